package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	kf "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// PostEvent is published by the post service whenever a post is created,
// updated or deleted. The feed service only needs to know something changed.
type PostEvent struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

type EventHandler func(ctx context.Context, ev PostEvent) error

func StartConsumer(ctx context.Context, bootstrap, topic, groupID string, handle EventHandler) error {
	r := kf.NewReader(kf.ReaderConfig{
		Brokers:  strings.Split(bootstrap, ","),
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10e3,
		MaxBytes: 10e6,
		MaxWait:  2 * time.Second,
	})
	defer r.Close()

	log.Infof("kafka consumer started group=%s topic=%s", groupID, topic)

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			return err
		}
		var ev PostEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			log.Errorf("kafka: bad payload: %v", err)
			continue
		}
		if err := handle(ctx, ev); err != nil {
			log.Errorf("handle post event: %v", err)
		}
	}
}
