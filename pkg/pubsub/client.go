// Package pubsub wraps the Google Cloud Pub/Sub v2 client. The service
// publishes only; topics are provisioned out of band and their absence is a
// startup error, not something the service creates on the fly.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/stickerlandia/print-service/pkg/config"
	"github.com/stickerlandia/print-service/pkg/logger"
)

type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
}

var errProjectIDRequired = errors.New("gcp project id is required")

// NewClient connects and verifies the configured topics exist.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{client: psClient, projectID: gcp.ProjectID, cfg: cfg}
	if err := c.checkTopics(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, "pubsub client initialized")
	}
	return c, nil
}

// checkTopics verifies each configured topic is reachable. Doubles as the
// readiness probe.
func (c *Client) checkTopics(ctx context.Context) error {
	checked := 0
	for _, name := range []string{c.cfg.PrintersTopic, c.cfg.PrintJobsTopic} {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		checked++

		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{
			Topic: c.topicResourceName(name),
		})
		// v2 surfaces gRPC errors; NotFound means the topic was never created.
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("topic %q does not exist", name)
		}
		if err != nil {
			return fmt.Errorf("checking topic %q: %w", name, err)
		}
	}
	if checked == 0 {
		return errors.New("pubsub topic name is required")
	}
	return nil
}

// Publisher returns a publisher handle for the topic, or nil when the topic
// is not configured.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	full := c.topicResourceName(name)
	if full == "" {
		return nil
	}
	return c.client.Publisher(full)
}

// PrintersPublisher publishes printer lifecycle events.
func (c *Client) PrintersPublisher() *pubsub.Publisher {
	return c.Publisher(c.cfg.PrintersTopic)
}

// PrintJobsPublisher publishes print job lifecycle events.
func (c *Client) PrintJobsPublisher() *pubsub.Publisher {
	return c.Publisher(c.cfg.PrintJobsTopic)
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	return c.checkTopics(ctx)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// topicResourceName accepts either a bare topic id or a fully qualified
// projects/<p>/topics/<t> name.
func (c *Client) topicResourceName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/topics/") {
		return name
	}
	if c.projectID == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/topics/%s", c.projectID, name)
}
