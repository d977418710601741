package service

import (
	"context"
	"fmt"

	"ai-relay-bot/internal/pkg/logger"
	"ai-relay-bot/pkg/events"
)

const auditModule = "AuditService"

// AuditService records every relay event in a dedicated log file so that
// operators can inspect what the bot did without digging through app logs.
type AuditService struct {
	subscriber events.Subscriber
	sink       logger.ILogger
	logger     logger.ILogger
	path       string
}

// NewAuditService subscribes on sub and writes to sink. path is the file sink
// writes to; Recent reads it back.
func NewAuditService(sub events.Subscriber, sink logger.ILogger, path string, log logger.ILogger) *AuditService {
	if log == nil {
		log = logger.NewNop()
	}
	return &AuditService{
		subscriber: sub,
		sink:       sink,
		logger:     log,
		path:       path,
	}
}

// Start registers one consumer per relay event type.
func (s *AuditService) Start() error {
	for _, eventType := range events.RelayEventTypes {
		durable := "relay-audit-" + eventType
		if err := s.subscriber.Subscribe(events.Subject(eventType), durable, s.handleEvent); err != nil {
			s.logger.Error(auditModule, "Failed to start audit subscriber", map[string]interface{}{
				"type":  eventType,
				"error": err,
			})
			return fmt.Errorf("subscribe %s: %w", eventType, err)
		}
	}
	s.logger.Info(auditModule, "Audit service started", map[string]interface{}{
		"types": events.RelayEventTypes,
	})
	return nil
}

func (s *AuditService) handleEvent(_ context.Context, event events.Event) error {
	details := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		details[k] = v
	}
	details["occurred_at"] = event.Timestamp()
	s.sink.Info(auditModule, event.EventType(), details)
	return nil
}

// Recent returns the newest audit entries, optionally only of eventType.
func (s *AuditService) Recent(eventType string, limit int) ([]logger.LogEntry, error) {
	if err := s.sink.Sync(); err != nil {
		s.logger.Debug(auditModule, "Audit sink sync failed", map[string]interface{}{"error": err.Error()})
	}
	return logger.ReadEntries(s.path, eventType, limit)
}
