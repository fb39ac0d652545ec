package pubsub

import (
	"fmt"
	"strings"
)

type resourceKind string

const (
	kindTopic        resourceKind = "topics"
	kindSubscription resourceKind = "subscriptions"
)

// resourceName expands a short id into projects/<project>/<kind>/<id>.
// Fully qualified names pass through so another project can be targeted.
func resourceName(projectID string, kind resourceKind, name string) string {
	id := strings.TrimSpace(name)
	if id == "" {
		return ""
	}
	if strings.HasPrefix(id, "projects/") && strings.Contains(id, "/"+string(kind)+"/") {
		return id
	}
	project := strings.TrimSpace(projectID)
	if project == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/%s/%s", project, kind, id)
}

// uniqueNames trims and de-duplicates names, dropping blanks.
func uniqueNames(names ...string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
