// Package events moves created-message and invitation events between server
// instances over Kafka so every instance can deliver to its own local
// sockets. The bus is best-effort, like live push itself: publish failures
// are logged and never fail the request that stored the message.
package events

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Envelope is the bus wire format. Origin carries the publishing instance id
// so an instance can skip frames it already delivered locally.
type Envelope struct {
	Type       string          `json:"type"`
	Origin     string          `json:"origin"`
	Recipients []string        `json:"recipients"`
	Payload    json.RawMessage `json:"payload"`
}

type Producer struct {
	writer *kafkago.Writer
	origin string
}

func NewProducer(brokers []string, topic, origin string) *Producer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		Async:        false,
	}
	return &Producer{writer: w, origin: origin}
}

func (p *Producer) Publish(ctx context.Context, eventType string, recipients []string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	env := Envelope{Type: eventType, Origin: p.origin, Recipients: recipients, Payload: b}
	eb, err := json.Marshal(env)
	if err != nil {
		return err
	}
	msg := kafkago.Message{
		Key:   []byte(eventType),
		Value: eb,
		Time:  time.Now(),
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Producer) Close() error { return p.writer.Close() }
