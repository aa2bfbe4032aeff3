package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/promoit/shortlink/internal/app/model"
	apprepository "github.com/promoit/shortlink/internal/app/repository"
	"go.uber.org/zap"
)

// NotificationConsumer drains the notice stream and persists each entry so
// owners can query what happened to their links later.
type NotificationConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   apprepository.NotificationRepository
}

// NewNotificationConsumer creates a consumer writing notices through the repository.
func NewNotificationConsumer(js nats.JetStreamContext, logger *zap.Logger, repo apprepository.NotificationRepository) *NotificationConsumer {
	return &NotificationConsumer{js: js, logger: logger, repo: repo}
}

// Start ensures the stream and durable consumer exist, then consumes in the background.
func (c *NotificationConsumer) Start() error {
	_, err := c.js.StreamInfo(model.NoticeStreamName)
	if err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.NoticeStreamName,
			Subjects: []string{model.NoticeStreamSubject},
			MaxBytes: model.NoticeStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	_, err = c.js.ConsumerInfo(model.NoticeStreamName, model.NoticeConsumerName)
	if err != nil {
		_, err = c.js.AddConsumer(model.NoticeStreamName, &nats.ConsumerConfig{
			Durable:   model.NoticeConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.NoticeStreamSubject, model.NoticeConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

func (c *NotificationConsumer) consume(sub *nats.Subscription) {
	ctx := context.Background()
	for {
		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && err != nats.ErrTimeout {
			c.logger.Error("failed to fetch notifications", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			var notice model.Notification
			if err := json.Unmarshal(msg.Data, &notice); err != nil {
				c.logger.Error("failed to unmarshal notification", zap.Error(err))
				msg.Nak()
				continue
			}

			if err := c.repo.Create(ctx, &notice); err != nil {
				c.logger.Error("failed to store notification",
					zap.String("id", notice.ID),
					zap.String("link_code", notice.LinkCode),
					zap.Error(err))
				msg.Nak()
				continue
			}

			c.logger.Debug("notification stored",
				zap.String("id", notice.ID),
				zap.String("link_code", notice.LinkCode),
				zap.String("owner_id", notice.OwnerID),
				zap.String("reason", notice.Reason),
			)

			msg.Ack()
		}
	}
}
