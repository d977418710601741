package controller

import (
	"context"
	"sync"

	"ai-relay-bot/internal/dto"
	"ai-relay-bot/internal/pkg/logger"
	"ai-relay-bot/internal/pkg/serverutils"
	"ai-relay-bot/internal/service"
	"ai-relay-bot/pkg/dispatch"
	"ai-relay-bot/pkg/store"

	"github.com/gofiber/fiber/v2"
)

const defaultAuditLimit = 100

type IRelayController interface {
	RegisterRoutes(api fiber.Router, middlewares ...fiber.Handler)
}

// AuditReader reads back the relay audit trail.
type AuditReader interface {
	Recent(eventType string, limit int) ([]logger.LogEntry, error)
}

type relayController struct {
	relayService service.IRelayService
	audit        AuditReader
}

func NewRelayController(relayService service.IRelayService, audit AuditReader) IRelayController {
	return &relayController{
		relayService: relayService,
		audit:        audit,
	}
}

func (c *relayController) RegisterRoutes(api fiber.Router, middlewares ...fiber.Handler) {
	relay := api.Group("/relay/v1", middlewares...)

	relay.Post("/messages", c.SendMessage)
	relay.Get("/sessions", c.ListSessions)
	relay.Get("/sessions/:key/history", c.GetHistory)
	relay.Delete("/sessions/:key", c.ClearSession)
	relay.Get("/audit", c.GetAudit)
}

// SendMessage runs a message through the relay exactly as if it had arrived
// from the chat platform and returns what the bot would have posted.
func (c *relayController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	sender := &collectingSender{}
	in := service.Inbound{SessionKey: store.SessionKey(req.SessionKey), Text: req.Text}
	if err := c.relayService.HandleMessage(ctx.UserContext(), sender, in); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Message processed", dto.SendMessageResponse{
		SessionKey: req.SessionKey,
		Messages:   sender.messages(),
	}))
}

func (c *relayController) ListSessions(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Sessions retrieved", dto.SessionListResponse{
		Sessions: c.relayService.Sessions(),
	}))
}

func (c *relayController) GetHistory(ctx *fiber.Ctx) error {
	key := store.SessionKey(ctx.Params("key"))
	return ctx.JSON(serverutils.SuccessResponse("History retrieved", dto.SessionHistoryResponse{
		SessionKey: string(key),
		Turns:      c.relayService.History(key),
	}))
}

func (c *relayController) ClearSession(ctx *fiber.Ctx) error {
	key := store.SessionKey(ctx.Params("key"))
	c.relayService.ClearSession(ctx.UserContext(), key)
	return ctx.JSON(serverutils.SuccessResponse("Session cleared", nil))
}

func (c *relayController) GetAudit(ctx *fiber.Ctx) error {
	if c.audit == nil {
		return fiber.NewError(fiber.StatusNotFound, "Audit log is not enabled")
	}

	entries, err := c.audit.Recent(ctx.Query("type"), ctx.QueryInt("limit", defaultAuditLimit))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Audit entries retrieved", dto.AuditLogResponse{Entries: entries}))
}

// collectingSender buffers outbound messages for the HTTP response.
type collectingSender struct {
	mu  sync.Mutex
	out []dto.OutboundMessage
}

var _ dispatch.Sender = (*collectingSender)(nil)

func (s *collectingSender) SendText(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = append(s.out, dto.OutboundMessage{Type: "text", Text: text})
	return nil
}

func (s *collectingSender) SendFile(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = append(s.out, dto.OutboundMessage{Type: "file", FileName: name, Data: data})
	return nil
}

func (s *collectingSender) messages() []dto.OutboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dto.OutboundMessage{}, s.out...)
}
