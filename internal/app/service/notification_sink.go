package service

import (
	"github.com/promoit/shortlink/internal/app/model"
	"go.uber.org/zap"
)

// NotificationSink receives a notice whenever a link turns out to be
// unreachable. Implementations are fire-and-forget: they swallow their own
// errors and return fast so the redirect decision is never held up.
type NotificationSink interface {
	Notify(link *model.Link, reason string)
}

// LogSink is the fallback sink used when no message broker is wired in.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink returns a sink that records notices on the application log.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(link *model.Link, reason string) {
	s.logger.Info("link unavailable",
		zap.String("code", link.Code),
		zap.String("owner_id", link.OwnerID),
		zap.String("reason", reason))
}
