package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-relay-bot/internal/constant"
	"ai-relay-bot/internal/metrics"
	"ai-relay-bot/internal/pkg/logger"
	"ai-relay-bot/pkg/command"
	"ai-relay-bot/pkg/dispatch"
	"ai-relay-bot/pkg/events"
	"ai-relay-bot/pkg/intent"
	"ai-relay-bot/pkg/session"
	"ai-relay-bot/pkg/store"

	"github.com/google/uuid"
)

const relayModule = "RelayService"

// Inbound is a normalized message addressed to the bot.
type Inbound struct {
	SessionKey store.SessionKey
	Text       string
}

// HistoryStore is the subset of the history repository the relay needs.
type HistoryStore interface {
	Get(key store.SessionKey) []store.Turn
	Clear(key store.SessionKey)
	Keys() []store.SessionKey
}

// Processor runs one conversational turn.
type Processor interface {
	Process(ctx context.Context, key store.SessionKey, userText string) (intent.Decision, error)
}

// Dispatcher delivers decisions and manual image requests.
type Dispatcher interface {
	DispatchDecision(ctx context.Context, sender dispatch.Sender, decision intent.Decision) error
	DispatchManual(ctx context.Context, sender dispatch.Sender, req command.ManualImageRequest) error
}

type IRelayService interface {
	HandleMessage(ctx context.Context, sender dispatch.Sender, in Inbound) error
	History(key store.SessionKey) []store.Turn
	ClearSession(ctx context.Context, key store.SessionKey)
	Sessions() []store.SessionKey
}

type relayService struct {
	history    HistoryStore
	processor  Processor
	dispatcher Dispatcher
	publisher  events.Publisher
	logger     logger.ILogger
	metrics    *metrics.Metrics
}

func NewRelayService(
	history HistoryStore,
	processor Processor,
	dispatcher Dispatcher,
	publisher events.Publisher,
	log logger.ILogger,
	m *metrics.Metrics,
) IRelayService {
	if publisher == nil {
		publisher = events.Discard
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &relayService{
		history:    history,
		processor:  processor,
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     log,
		metrics:    m,
	}
}

// HandleMessage routes one inbound message and sends every reply through
// sender. The returned error only reports delivery problems; model and image
// failures are turned into user-facing messages.
func (s *relayService) HandleMessage(ctx context.Context, sender dispatch.Sender, in Inbound) error {
	ctx = events.WithRequestID(ctx, uuid.NewString())
	text := strings.TrimSpace(in.Text)

	cmd, parseErr := command.Parse(text)
	route := routeName(text, cmd.Kind)
	s.metrics.RecordMessage(route)
	s.logger.Info(relayModule, "Message received", map[string]interface{}{
		"request_id":  events.RequestID(ctx),
		"session_key": in.SessionKey,
		"route":       route,
		"length":      len([]rune(text)),
	})
	s.publish(ctx, events.TypeMessageReceived, map[string]interface{}{
		"session_key": string(in.SessionKey),
		"route":       route,
	})

	if text == "" {
		return sender.SendText(ctx, constant.RelayGreetingMessage)
	}

	switch cmd.Kind {
	case command.KindClear:
		s.ClearSession(ctx, in.SessionKey)
		return sender.SendText(ctx, constant.RelaySessionClearedMessage)

	case command.KindHelp:
		return sender.SendText(ctx, constant.RelayHelpText)

	case command.KindCreatePic:
		switch {
		case errors.Is(parseErr, command.ErrInvalidArguments):
			return sender.SendText(ctx, constant.RelayInvalidDimensionsMessage)
		case parseErr != nil:
			return sender.SendText(ctx, constant.RelayCreatePicUsageMessage)
		}
		return s.dispatcher.DispatchManual(ctx, sender, *cmd.Request)

	default:
		decision, err := s.processor.Process(ctx, in.SessionKey, text)
		if err != nil {
			return sender.SendText(ctx, modelFailureMessage(err))
		}
		return s.dispatcher.DispatchDecision(ctx, sender, decision)
	}
}

func (s *relayService) History(key store.SessionKey) []store.Turn {
	return s.history.Get(key)
}

func (s *relayService) ClearSession(ctx context.Context, key store.SessionKey) {
	s.history.Clear(key)
	s.logger.Info(relayModule, "Session cleared", map[string]interface{}{
		"request_id":  events.RequestID(ctx),
		"session_key": key,
	})
	s.publish(ctx, events.TypeSessionCleared, map[string]interface{}{
		"session_key": string(key),
	})
}

func (s *relayService) Sessions() []store.SessionKey {
	return s.history.Keys()
}

func (s *relayService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	data["request_id"] = events.RequestID(ctx)
	if err := s.publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn(relayModule, "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func routeName(text string, kind command.Kind) string {
	if text == "" {
		return "greeting"
	}
	return strings.ToLower(string(kind))
}

func modelFailureMessage(err error) string {
	var callErr *session.ModelCallError
	if errors.As(err, &callErr) {
		return fmt.Sprintf(constant.RelayModelCallFailureFormat, callErr.Class(), callErr.Err.Error())
	}
	return fmt.Sprintf(constant.RelayModelCallFailureFormat, "Error", err.Error())
}
