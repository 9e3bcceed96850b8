package eventbus

import (
	"context"

	"go.uber.org/zap"

	"github.com/matthewbaird/tapestry/internal/event"
)

// LogConsumer logs all engine events for observability.
type LogConsumer struct {
	log *zap.Logger
}

func NewLogConsumer(log *zap.Logger) *LogConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogConsumer{log: log}
}

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	c.log.Info("engine event",
		zap.String("event_type", evt.EventType),
		zap.String("view_id", evt.ViewID),
		zap.String("entity_url", evt.EntityURL),
		zap.String("summary", evt.Summary))
	return nil
}
