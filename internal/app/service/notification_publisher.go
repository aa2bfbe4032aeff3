package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/promoit/shortlink/internal/app/model"
	"go.uber.org/zap"
)

// NotificationPublisher pushes unavailability notices onto NATS JetStream.
// It satisfies NotificationSink; publishing is asynchronous so the access
// path only pays for serialization.
type NotificationPublisher struct {
	js     nats.JetStreamContext
	logger *zap.Logger
}

// NewNotificationPublisher creates a JetStream-backed notification sink.
func NewNotificationPublisher(js nats.JetStreamContext, logger *zap.Logger) *NotificationPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationPublisher{js: js, logger: logger}
}

func (p *NotificationPublisher) Notify(link *model.Link, reason string) {
	notice := model.Notification{
		ID:        uuid.New().String(),
		LinkCode:  link.Code,
		OwnerID:   link.OwnerID,
		Reason:    reason,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(notice)
	if err != nil {
		p.logger.Error("failed to marshal notification", zap.Error(err))
		return
	}

	if _, err := p.js.PublishAsync(model.NoticeStreamSubject, data); err != nil {
		p.logger.Error("failed to publish notification",
			zap.String("code", link.Code),
			zap.Error(err))
	}
}
