package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/mealdash-backend/pkg/config"
)

func TestResourceName(t *testing.T) {
	cases := []struct {
		project string
		kind    resourceKind
		name    string
		want    string
	}{
		{"p", kindTopic, "orders", "projects/p/topics/orders"},
		{"p", kindTopic, "projects/other/topics/orders", "projects/other/topics/orders"},
		{"p", kindSubscription, " sub ", "projects/p/subscriptions/sub"},
		{"p", kindSubscription, "projects/other/topics/orders", "projects/p/subscriptions/projects/other/topics/orders"},
		{"p", kindTopic, "", ""},
		{"", kindTopic, "orders", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, resourceName(tc.project, tc.kind, tc.name), "%s/%s", tc.kind, tc.name)
	}
}

func TestSubscriptionNamesSkipsBlankAndDuplicates(t *testing.T) {
	assert.Equal(t, []string{"domain-sub"}, subscriptionNames(config.PubSubConfig{DomainSubscription: "domain-sub", NotificationSubscription: " "}))
	assert.Equal(t, []string{"shared"}, subscriptionNames(config.PubSubConfig{DomainSubscription: "shared", NotificationSubscription: "shared "}))
}

func TestClientOptionsUsesCredentialsJSON(t *testing.T) {
	assert.Empty(t, clientOptions(config.GCPConfig{ProjectID: "p"}))
	assert.Len(t, clientOptions(config.GCPConfig{ProjectID: "p", CredentialsJSON: `{"type":"service_account"}`}), 1)
}

func TestZeroClientIsInert(t *testing.T) {
	var c *Client
	assert.ErrorIs(t, c.Ping(context.Background()), errNotInitialized)
	assert.Nil(t, c.Publisher("orders"))
	assert.Nil(t, c.Subscriber("sub"))
	assert.NoError(t, c.Close())
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{ProjectID: " "}, config.PubSubConfig{}, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)
}
