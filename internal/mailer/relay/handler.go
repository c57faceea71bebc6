// Package relay serves the HTTP endpoint that turns invitation requests
// into SMTP deliveries.
package relay

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/tecnochamados/internal/mailer"
	"github.com/spec-kit/tecnochamados/internal/observability"
)

const (
	msgMissingFields = "Todos os campos são obrigatórios"
	msgSendFailed    = "Erro interno do servidor ao enviar e-mail"
	msgSent          = "E-mail enviado com sucesso"
	msgHealthy       = "Servidor de e-mail funcionando!"
)

// Handler exposes the relay routes.
type Handler struct {
	transport Transport
	validate  *validator.Validate
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewHandler(transport Transport, metrics *observability.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		transport: transport,
		validate:  validator.New(),
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// SendInvite handles POST /api/send-invite-gmail.
func (h *Handler) SendInvite(c *fiber.Ctx) error {
	var req mailer.InviteEmail
	if err := c.BodyParser(&req); err != nil || h.validate.Struct(req) != nil {
		h.metrics.ObserveMail("invalid")
		return c.Status(fiber.StatusBadRequest).JSON(mailer.Result{Success: false, Error: msgMissingFields})
	}

	html, err := RenderInvite(req, h.now().Year())
	if err != nil {
		return h.fail(c, req, err)
	}

	messageID, err := h.transport.Send(c.UserContext(), Envelope{To: req.Email, Subject: Subject, HTML: html})
	if err != nil {
		return h.fail(c, req, err)
	}

	h.metrics.ObserveMail("sent")
	h.logger.Info("invitation e-mail sent",
		zap.String("message_id", messageID),
		zap.String("to", req.Email),
		zap.String("subject", Subject))
	return c.JSON(mailer.Result{Success: true, MessageID: messageID, Message: msgSent})
}

func (h *Handler) fail(c *fiber.Ctx, req mailer.InviteEmail, err error) error {
	h.metrics.ObserveMail("failed")
	h.logger.Error("invitation e-mail failed", zap.String("to", req.Email), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(mailer.Result{
		Success: false,
		Error:   msgSendFailed,
		Details: err.Error(),
	})
}

// Health handles GET /api/health.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   msgHealthy,
		"timestamp": h.now().UTC().Format("2006-01-02T15:04:05.000Z"),
	})
}
