package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// PubSubNotifier publishes run completions to a Google Cloud Pub/Sub topic.
type PubSubNotifier struct {
	topic *pubsub.Topic
}

// NewPubSubNotifier wraps an existing topic handle.
func NewPubSubNotifier(topic *pubsub.Topic) (*PubSubNotifier, error) {
	if topic == nil {
		return nil, fmt.Errorf("pubsub topic is required")
	}
	return &PubSubNotifier{topic: topic}, nil
}

// Notify marshals the completion to JSON and publishes it, waiting for the
// server acknowledgment.
func (n *PubSubNotifier) Notify(ctx context.Context, completion RunCompletion) error {
	data, err := json.Marshal(completion)
	if err != nil {
		return fmt.Errorf("marshal completion: %w", err)
	}
	result := n.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"run_id": completion.RunID,
			"status": completion.Status,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish completion: %w", err)
	}
	return nil
}
