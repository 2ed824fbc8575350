package events

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/imkonsowa/food-recs/config"
	"github.com/nats-io/nats.go"
)

type Client struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	subject string
}

// Connect dials NATS and makes sure the recommendations stream exists.
func Connect(cfg config.Nats) (*Client, error) {
	nc, err := nats.Connect(cfg.ConnStr())
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.RecommendationsSubject},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    time.Hour * 24 * 7,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		nc.Close()
		return nil, err
	}

	return &Client{conn: nc, js: js, subject: cfg.RecommendationsSubject}, nil
}

func (c *Client) Close() {
	c.conn.Close()
}

// Publish sends the event without waiting for the stream acknowledgement.
func (c *Client) Publish(evt RecommendationEvent) error {
	data, err := evt.Marshal()
	if err != nil {
		return err
	}

	_, err = c.js.PublishAsync(c.subject, data)

	return err
}

// Flush waits for outstanding async publishes to be acknowledged.
func (c *Client) Flush(ctx context.Context) error {
	select {
	case <-c.js.PublishAsyncComplete():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ConsumerName derives a durable consumer name from a subject.
func ConsumerName(subject string) string {
	return strings.ReplaceAll(subject+".consumer", ".", "-")
}

// Subscribe pulls messages from the recommendations subject until ctx is
// done. Acknowledging each message is left to handler.
func (c *Client) Subscribe(ctx context.Context, handler func(m *nats.Msg)) error {
	subscription, err := c.js.PullSubscribe(c.subject, ConsumerName(c.subject), nats.ManualAck())
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			if err := subscription.Unsubscribe(); err != nil {
				slog.Warn("failed to unsubscribe from subject", "subject", c.subject, "error", err)
			}

			return nil
		default:
			msgs, err := subscription.Fetch(4, nats.MaxWait(200*time.Millisecond))
			if err != nil && !errors.Is(err, nats.ErrTimeout) && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			for _, msg := range msgs {
				handler(msg)
			}
		}
	}
}
