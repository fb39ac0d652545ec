package redis

import "strings"

const (
	defaultKeyspace = "md"

	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	lockPrefix        = "lock"
)

// Keyspace namespaces every key the platform writes so several environments
// can share one Redis database.
type Keyspace string

func (k Keyspace) join(parts ...string) string {
	root := strings.TrimSpace(string(k))
	if root == "" {
		root = defaultKeyspace
	}
	var b strings.Builder
	b.WriteString(root)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

func (k Keyspace) Idempotency(scope, id string) string { return k.join(idempotencyPrefix, scope, id) }

func (k Keyspace) RateLimit(scope string) string { return k.join(rateLimitPrefix, scope) }

func (k Keyspace) Lock(name string) string { return k.join(lockPrefix, name) }
