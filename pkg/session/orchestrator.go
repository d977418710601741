// Package session runs one conversational turn: it records the user's message,
// asks the language model for a structured decision and records the reply.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-relay-bot/internal/constant"
	"ai-relay-bot/internal/metrics"
	"ai-relay-bot/internal/pkg/logger"
	"ai-relay-bot/pkg/events"
	"ai-relay-bot/pkg/failure"
	"ai-relay-bot/pkg/intent"
	"ai-relay-bot/pkg/llm"
	"ai-relay-bot/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const moduleName = "SessionOrchestrator"

// ErrModelCall is matched by every error Process returns.
var ErrModelCall = errors.New("language model call failed")

// ModelCallError wraps the cause of a failed model call.
type ModelCallError struct {
	Err error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("%s: %v", ErrModelCall, e.Err)
}

func (e *ModelCallError) Unwrap() []error {
	return []error{ErrModelCall, e.Err}
}

// Class is the short failure class shown to users.
func (e *ModelCallError) Class() string {
	return failure.Classify(e.Err)
}

// History is the per-session turn store.
type History interface {
	Append(key store.SessionKey, turn store.Turn)
	Get(key store.SessionKey) []store.Turn
}

type Orchestrator struct {
	history      History
	provider     llm.LLMProvider
	publisher    events.Publisher
	logger       logger.ILogger
	metrics      *metrics.Metrics
	systemPrompt string
}

func NewOrchestrator(
	history History,
	provider llm.LLMProvider,
	publisher events.Publisher,
	log logger.ILogger,
	m *metrics.Metrics,
) *Orchestrator {
	if publisher == nil {
		publisher = events.Discard
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Orchestrator{
		history:      history,
		provider:     provider,
		publisher:    publisher,
		logger:       log,
		metrics:      m,
		systemPrompt: constant.RelaySystemPromptV1,
	}
}

// Process runs one turn for key. The user turn is recorded before the model
// is called and stays recorded when the call fails; the assistant turn holds
// only the decision's reply text. No retries.
func (o *Orchestrator) Process(ctx context.Context, key store.SessionKey, userText string) (intent.Decision, error) {
	o.history.Append(key, store.Turn{Role: store.RoleUser, Content: userText})

	messages := o.buildMessages(key)

	ctx, span := otel.Tracer("ai-relay-bot/session").Start(ctx, "session.process")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.key", string(key)),
		attribute.Int("session.turns", len(messages)-1),
	)

	start := time.Now()
	raw, err := o.provider.Chat(ctx, messages)
	if err != nil {
		callErr := &ModelCallError{Err: err}
		o.metrics.RecordModelCall("error", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, callErr.Class())

		o.logger.Error(moduleName, "Model call failed", map[string]interface{}{
			"session_key": key,
			"request_id":  events.RequestID(ctx),
			"error":       err,
		})
		o.publish(ctx, events.TypeModelCallFailed, map[string]interface{}{
			"session_key": string(key),
			"class":       callErr.Class(),
			"error":       err.Error(),
		})
		return intent.Decision{}, callErr
	}
	o.metrics.RecordModelCall("ok", time.Since(start))

	result := intent.Parse(raw)
	decision := result.Decision
	o.history.Append(key, store.Turn{Role: store.RoleAssistant, Content: decision.Reply})

	outcome := decisionOutcome(result)
	o.metrics.RecordDecision(outcome)
	span.SetAttributes(attribute.String("decision.outcome", outcome))

	details := map[string]interface{}{
		"session_key": string(key),
		"request_id":  events.RequestID(ctx),
		"need_image":  decision.NeedImage,
		"width":       decision.Width,
		"height":      decision.Height,
		"fell_back":   result.FellBack,
	}
	if result.FellBack {
		details["reason"] = result.Err.Error()
		o.logger.Warn(moduleName, "Model output was not a structured decision", details)
	} else {
		o.logger.Debug(moduleName, "Decision parsed", details)
	}
	o.publish(ctx, events.TypeDecisionParsed, map[string]interface{}{
		"session_key": string(key),
		"need_image":  decision.NeedImage,
		"width":       decision.Width,
		"height":      decision.Height,
		"fell_back":   result.FellBack,
	})

	return decision, nil
}

func (o *Orchestrator) buildMessages(key store.SessionKey) []llm.Message {
	turns := o.history.Get(key)
	messages := make([]llm.Message, 0, len(turns)+1)
	messages = append(messages, llm.Message{Role: constant.ChatMessageRoleSystem, Content: o.systemPrompt})
	for _, t := range turns {
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
	}
	return messages
}

func (o *Orchestrator) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	data["request_id"] = events.RequestID(ctx)
	if err := o.publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		o.logger.Warn(moduleName, "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func decisionOutcome(r intent.Result) string {
	switch {
	case r.FellBack:
		return "fallback"
	case r.Decision.WantsImage():
		return "image"
	default:
		return "text"
	}
}
