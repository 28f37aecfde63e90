package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fmaric77/polmatch-sub004/internal/hub"
)

type Consumer struct {
	reader *kafkago.Reader
	origin string
	log    *zap.SugaredLogger
}

func NewConsumer(brokers []string, topic, groupID, origin string, log *zap.SugaredLogger) *Consumer {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &Consumer{reader: r, origin: origin, log: log}
}

// Run consumes envelopes and hands them to the local hub. Frames published
// by this instance were already pushed locally and are skipped.
func (c *Consumer) Run(ctx context.Context, push func(userID string, f hub.Frame)) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.log.Warnw("kafka read", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		var env Envelope
		if err := json.Unmarshal(m.Value, &env); err != nil {
			c.log.Warnw("envelope decode", "err", err)
			continue
		}
		if env.Origin == c.origin {
			continue
		}
		f := hub.Frame{Type: env.Type, Payload: env.Payload}
		for _, uid := range env.Recipients {
			push(uid, f)
		}
	}
}

func (c *Consumer) Close() error { return c.reader.Close() }
