// Package dispatch turns decisions and manual image requests into outbound
// chat messages and files.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"ai-relay-bot/internal/constant"
	"ai-relay-bot/internal/metrics"
	"ai-relay-bot/internal/pkg/logger"
	"ai-relay-bot/pkg/command"
	"ai-relay-bot/pkg/events"
	"ai-relay-bot/pkg/imagegen"
	"ai-relay-bot/pkg/intent"
	"ai-relay-bot/pkg/utils"
)

const moduleName = "ResponseDispatcher"

// Sender delivers outbound messages to wherever the inbound one came from.
type Sender interface {
	SendText(ctx context.Context, text string) error
	SendFile(ctx context.Context, name string, data []byte) error
}

type Dispatcher struct {
	generator    imagegen.Generator
	defaultModel string
	publisher    events.Publisher
	logger       logger.ILogger
	metrics      *metrics.Metrics
}

func NewDispatcher(
	generator imagegen.Generator,
	defaultModel string,
	publisher events.Publisher,
	log logger.ILogger,
	m *metrics.Metrics,
) *Dispatcher {
	if defaultModel == "" {
		defaultModel = imagegen.DefaultModel
	}
	if publisher == nil {
		publisher = events.Discard
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Dispatcher{
		generator:    generator,
		defaultModel: defaultModel,
		publisher:    publisher,
		logger:       log,
		metrics:      m,
	}
}

// DispatchDecision sends the reply in platform-sized chunks, then generates
// and sends the image when the decision asks for one. Image failures are
// reported to the user; only send failures are returned.
func (d *Dispatcher) DispatchDecision(ctx context.Context, sender Sender, decision intent.Decision) error {
	for _, chunk := range utils.ChunkText(decision.DisplayReply(), utils.DiscordMessageLimit) {
		if err := sender.SendText(ctx, chunk); err != nil {
			return fmt.Errorf("send reply: %w", err)
		}
	}

	if !decision.WantsImage() {
		return nil
	}

	announce := fmt.Sprintf(constant.RelayImageAnnounceFormat,
		decision.Width, decision.Height,
		utils.Truncate(decision.ImagePrompt, constant.RelayPromptPreviewLimit))
	if err := sender.SendText(ctx, announce); err != nil {
		return fmt.Errorf("send announcement: %w", err)
	}

	req := imagegen.Request{
		Model:  d.defaultModel,
		Width:  decision.Width,
		Height: decision.Height,
		Prompt: decision.ImagePrompt,
	}
	img, err := d.generate(ctx, "decision", req)
	if err != nil {
		return sender.SendText(ctx, decisionFailureMessage(err))
	}
	return sender.SendFile(ctx, img.Filename(), img.Data)
}

// DispatchManual serves a /create_pic request. It never touches history and
// never calls the language model.
func (d *Dispatcher) DispatchManual(ctx context.Context, sender Sender, req command.ManualImageRequest) error {
	announce := fmt.Sprintf(constant.RelayManualAnnounceFormat, req.Model, req.Width, req.Height, req.Prompt)
	if err := sender.SendText(ctx, announce); err != nil {
		return fmt.Errorf("send announcement: %w", err)
	}

	img, err := d.generate(ctx, "manual", imagegen.Request{
		Model:  req.Model,
		Width:  req.Width,
		Height: req.Height,
		Prompt: req.Prompt,
	})
	if err != nil {
		return sender.SendText(ctx, manualFailureMessage(err))
	}
	return sender.SendFile(ctx, img.Filename(), img.Data)
}

func (d *Dispatcher) generate(ctx context.Context, source string, req imagegen.Request) (imagegen.Image, error) {
	finish := d.metrics.ImageJobStarted(source)

	img, err := d.generator.Generate(ctx, req)
	if err != nil {
		class := imagegen.Classify(err)
		finish("error")
		d.logger.Error(moduleName, "Image generation failed", map[string]interface{}{
			"request_id": events.RequestID(ctx),
			"source":     source,
			"model":      req.Model,
			"class":      class,
			"error":      err,
		})
		d.publish(ctx, events.TypeImageFailed, map[string]interface{}{
			"source": source,
			"model":  req.Model,
			"class":  class,
			"error":  err.Error(),
		})
		return imagegen.Image{}, err
	}

	finish("ok")
	d.logger.Info(moduleName, "Image generated", map[string]interface{}{
		"request_id":   events.RequestID(ctx),
		"source":       source,
		"model":        req.Model,
		"width":        req.Width,
		"height":       req.Height,
		"bytes":        len(img.Data),
		"content_type": img.ContentType,
	})
	d.publish(ctx, events.TypeImageGenerated, map[string]interface{}{
		"source":       source,
		"model":        req.Model,
		"width":        req.Width,
		"height":       req.Height,
		"bytes":        len(img.Data),
		"content_type": img.ContentType,
	})
	return img, nil
}

func (d *Dispatcher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	data["request_id"] = events.RequestID(ctx)
	if err := d.publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		d.logger.Warn(moduleName, "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func decisionFailureMessage(err error) string {
	var httpErr *imagegen.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf(constant.RelayImageHTTPFailureFormat, httpErr.StatusCode)
	}
	return fmt.Sprintf(constant.RelayImageFailureFormat, imagegen.Classify(err), err.Error())
}

func manualFailureMessage(err error) string {
	var httpErr *imagegen.HTTPError
	if errors.As(err, &httpErr) {
		body := []rune(httpErr.Body)
		if len(body) > constant.RelayManualErrorBodyLimit {
			body = body[:constant.RelayManualErrorBodyLimit]
		}
		return fmt.Sprintf(constant.RelayManualHTTPFailureFormat, httpErr.StatusCode, string(body))
	}
	return fmt.Sprintf(constant.RelayManualFailureFormat, imagegen.Classify(err), err.Error())
}
