package bootstrap

import (
	"fmt"

	"ai-relay-bot/internal/config"
	"ai-relay-bot/internal/controller"
	"ai-relay-bot/internal/metrics"
	"ai-relay-bot/internal/pkg/logger"
	"ai-relay-bot/internal/repository/memory"
	"ai-relay-bot/internal/service"
	"ai-relay-bot/pkg/dispatch"
	"ai-relay-bot/pkg/events"
	"ai-relay-bot/pkg/imagegen"
	"ai-relay-bot/pkg/llm"
	"ai-relay-bot/pkg/llm/factory"
	"ai-relay-bot/pkg/session"

	pktNats "ai-relay-bot/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
)

const moduleName = "Container"

type Container struct {
	Logger  *logger.ZapLogger
	Metrics *metrics.Metrics

	History      *memory.HistoryRepository
	Orchestrator *session.Orchestrator
	Dispatcher   *dispatch.Dispatcher
	ImagePool    *imagegen.Pool

	// Services
	RelayService service.IRelayService
	AuditService *service.AuditService

	// Controllers
	RelayController controller.IRelayController

	closers []func()
}

// NewContainer wires the relay from configuration. Events go to NATS
// JetStream when NATS_URL is set and to an in-process bus otherwise.
func NewContainer(cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{
		Logger:  sysLogger,
		Metrics: metrics.NewMetrics(),
		History: memory.NewHistoryRepository(),
	}

	// 1. Event bus
	publisher, subscriber := c.initEventBus(cfg)

	// 2. Collaborators
	llmProvider, err := newLLMProvider(cfg)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	sysLogger.Info(moduleName, "Using LLM provider", map[string]interface{}{
		"provider": cfg.LLM.Provider,
		"model":    cfg.LLM.Model,
	})

	pollinations := imagegen.NewPollinationsClient(cfg.Image.BaseURL, cfg.Image.APIKey, cfg.Image.Timeout)
	c.ImagePool = imagegen.NewPool(pollinations, cfg.Image.Workers, cfg.Image.Timeout)

	// 3. Core
	c.Orchestrator = session.NewOrchestrator(c.History, llmProvider, publisher, sysLogger, c.Metrics)
	c.Dispatcher = dispatch.NewDispatcher(c.ImagePool, cfg.Image.Model, publisher, sysLogger, c.Metrics)

	// 4. Services
	c.RelayService = service.NewRelayService(c.History, c.Orchestrator, c.Dispatcher, publisher, sysLogger, c.Metrics)

	auditSink := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)
	c.AuditService = service.NewAuditService(subscriber, auditSink, cfg.App.AuditLogFilePath, sysLogger)
	if err := c.AuditService.Start(); err != nil {
		sysLogger.Warn(moduleName, "Audit trail disabled", map[string]interface{}{"error": err.Error()})
	}

	// 5. Controllers
	c.RelayController = controller.NewRelayController(c.RelayService, c.AuditService)

	return c, nil
}

func (c *Container) initEventBus(cfg *config.Config) (events.Publisher, events.Subscriber) {
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			c.Logger.Warn(moduleName, "Failed to connect to NATS publisher, falling back to local bus", map[string]interface{}{"error": err.Error()})
		} else {
			natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
			if err == nil {
				c.closers = append(c.closers, natsSub.Close, natsPub.Close)
				c.Logger.Info(moduleName, "Publishing relay events to NATS", map[string]interface{}{"url": cfg.App.NatsURL})
				return natsPub, natsSub
			}
			natsPub.Close()
			c.Logger.Warn(moduleName, "Failed to connect to NATS subscriber, falling back to local bus", map[string]interface{}{"error": err.Error()})
		}
	}

	bus := events.NewLocalBus(watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = bus.Close() })
	return bus, bus
}

func newLLMProvider(cfg *config.Config) (llm.LLMProvider, error) {
	baseURL := cfg.LLM.BaseURL
	if cfg.LLM.Provider == factory.ProviderOllama && baseURL == "" {
		baseURL = cfg.LLM.OllamaBaseURL
	}
	return factory.NewLLMProvider(factory.Settings{
		Provider: cfg.LLM.Provider,
		BaseURL:  baseURL,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		Timeout:  cfg.LLM.Timeout,
	})
}

// Close releases the event bus connections and flushes logs.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
