package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/mealdash-backend/pkg/config"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoSubscriptions   = errors.New("pubsub subscription name is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// Client owns one Pub/Sub v2 connection for the project and hands out shared
// publishers and subscribers for the configured topics and subscriptions.
type Client struct {
	conn    *pubsub.Client
	project string
	cfg     config.PubSubConfig

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// NewClient connects and fails fast when a configured subscription is
// missing, so a misconfigured worker never starts.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errProjectIDRequired
	}
	conn, err := pubsub.NewClient(ctx, project, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c := &Client{
		conn:       conn,
		project:    project,
		cfg:        cfg,
		publishers: map[string]*pubsub.Publisher{},
	}
	if err := c.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"project_id":    project,
		"subscriptions": subscriptionNames(cfg),
	}), "pubsub client initialized")
	return c, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	var opts []option.ClientOption
	if creds := strings.TrimSpace(gcp.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	return opts
}

func subscriptionNames(cfg config.PubSubConfig) []string {
	return uniqueNames(cfg.DomainSubscription, cfg.NotificationSubscription)
}

// Ping looks up every configured subscription through the admin API.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.conn == nil {
		return errNotInitialized
	}
	names := subscriptionNames(c.cfg)
	if len(names) == 0 {
		return errNoSubscriptions
	}
	for _, name := range names {
		if err := c.lookupSubscription(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) lookupSubscription(ctx context.Context, name string) error {
	req := &pubsubpb.GetSubscriptionRequest{Subscription: resourceName(c.project, kindSubscription, name)}
	_, err := c.conn.SubscriptionAdminClient.GetSubscription(ctx, req)
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("subscription %q does not exist", name)
	default:
		return fmt.Errorf("checking subscription %q: %w", name, err)
	}
}

// Subscriber accepts a short subscription id or a full resource name.
func (c *Client) Subscriber(name string) *pubsub.Subscriber {
	if c == nil || c.conn == nil {
		return nil
	}
	full := resourceName(c.project, kindSubscription, name)
	if full == "" {
		return nil
	}
	return c.conn.Subscriber(full)
}

// Subscribers returns one subscriber per distinct configured subscription.
func (c *Client) Subscribers() []*pubsub.Subscriber {
	if c == nil {
		return nil
	}
	names := subscriptionNames(c.cfg)
	subs := make([]*pubsub.Subscriber, 0, len(names))
	for _, name := range names {
		if sub := c.Subscriber(name); sub != nil {
			subs = append(subs, sub)
		}
	}
	return subs
}

// Publisher returns the shared, batching publisher for a topic.
func (c *Client) Publisher(topic string) *pubsub.Publisher {
	if c == nil || c.conn == nil {
		return nil
	}
	full := resourceName(c.project, kindTopic, topic)
	if full == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pub, ok := c.publishers[full]
	if !ok {
		pub = c.conn.Publisher(full)
		c.publishers[full] = pub
	}
	return pub
}

// Close flushes pending publishes before closing the connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	c.mu.Lock()
	pubs := c.publishers
	c.publishers = map[string]*pubsub.Publisher{}
	c.mu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}
	return c.conn.Close()
}
