// Package mailer talks to the invitation mail relay.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	msgConnection = "Erro de conexão"
	msgGeneric    = "Erro ao enviar e-mail"
)

// InviteEmail is the relay request body.
type InviteEmail struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required"`
	Role       string `json:"role" validate:"required"`
	Department string `json:"department" validate:"required"`
	InviteLink string `json:"inviteLink" validate:"required"`
}

// Result is the relay acknowledgment.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Details   string `json:"details,omitempty"`
}

// DeliveryError carries the message a caller should show when the relay
// refuses or cannot be reached.
type DeliveryError struct {
	Message string
	Err     error
}

func (e *DeliveryError) Error() string { return e.Message }

func (e *DeliveryError) Unwrap() error { return e.Err }

// Sender dispatches invitation e-mails.
type Sender interface {
	SendInvite(ctx context.Context, invite InviteEmail) (Result, error)
}

// HTTPSender posts invitations to the relay endpoint.
type HTTPSender struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPSender builds a sender for endpoint.
func NewHTTPSender(endpoint string, timeout time.Duration, logger *zap.Logger) *HTTPSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSender{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// SendInvite posts invite and decodes the acknowledgment. Any failure is
// returned as a *DeliveryError.
func (s *HTTPSender) SendInvite(ctx context.Context, invite InviteEmail) (Result, error) {
	body, err := json.Marshal(invite)
	if err != nil {
		return Result{}, &DeliveryError{Message: msgGeneric, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, &DeliveryError{Message: msgGeneric, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("mail relay unreachable", zap.String("endpoint", s.endpoint), zap.Error(err))
		return Result{Error: msgConnection}, &DeliveryError{Message: msgConnection, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{Error: msgConnection}, &DeliveryError{Message: msgConnection, Err: err}
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		err = fmt.Errorf("relay status %d: %w", resp.StatusCode, err)
		return Result{Error: msgGeneric}, &DeliveryError{Message: msgGeneric, Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest || !result.Success {
		msg := result.Error
		if msg == "" {
			msg = msgGeneric
		}
		result.Success = false
		result.Error = msg
		s.logger.Warn("mail relay rejected invitation",
			zap.String("email", invite.Email),
			zap.Int("status", resp.StatusCode),
			zap.String("error", msg),
			zap.String("details", result.Details))
		return result, &DeliveryError{Message: msg, Err: errors.New(result.Details)}
	}

	return result, nil
}
