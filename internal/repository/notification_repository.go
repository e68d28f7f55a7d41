package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// NotificationRepository publishes timetable changes on a Redis channel.
type NotificationRepository struct {
	client  redis.UniversalClient
	channel string
}

// NewNotificationRepository builds a publisher for channel.
func NewNotificationRepository(client redis.UniversalClient, channel string) *NotificationRepository {
	return &NotificationRepository{client: client, channel: channel}
}

// Channel returns the pub/sub channel name.
func (r *NotificationRepository) Channel() string {
	return r.channel
}

// Publish sends change as JSON and returns the number of receivers.
func (r *NotificationRepository) Publish(ctx context.Context, change models.SlotChange) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	payload, err := json.Marshal(change)
	if err != nil {
		return 0, fmt.Errorf("encode slot change: %w", err)
	}
	receivers, err := r.client.Publish(ctx, r.channel, payload).Result()
	if err != nil {
		return 0, fmt.Errorf("publish %s: %w", r.channel, err)
	}
	return receivers, nil
}
