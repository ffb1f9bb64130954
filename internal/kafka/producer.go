package kafka

import (
	"context"
	"encoding/json"
	"time"

	kgo "github.com/segmentio/kafka-go"
)

// Producer publishes user events, mirroring what the auth service sends
// on registration.
type Producer struct {
	w *kgo.Writer
}

// NewProducer writes to topic on the comma-separated brokers.
func NewProducer(brokers, topic string) *Producer {
	return &Producer{w: &kgo.Writer{
		Addr:                   kgo.TCP(splitBrokers(brokers)...),
		Topic:                  topic,
		Balancer:               &kgo.LeastBytes{},
		RequiredAcks:           kgo.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

// PublishUser announces username, keyed by username so replays stay ordered.
func (p *Producer) PublishUser(ctx context.Context, username string) error {
	b, err := json.Marshal(UserEvent{Username: username})
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kgo.Message{Key: []byte(username), Value: b, Time: time.Now()})
}

func (p *Producer) Close() error { return p.w.Close() }
