package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/tecnochamados/internal/domain"
	"github.com/spec-kit/tecnochamados/internal/events"
	"github.com/spec-kit/tecnochamados/internal/invite"
	"github.com/spec-kit/tecnochamados/internal/mailer"
	"github.com/spec-kit/tecnochamados/internal/observability"
	"github.com/spec-kit/tecnochamados/internal/permission"
	"github.com/spec-kit/tecnochamados/internal/repository"
	"github.com/spec-kit/tecnochamados/pkg/util"
)

// InvitationMode selects how the activation link reaches the invitee.
type InvitationMode string

const (
	// ModeEmail hands the link to the mail relay.
	ModeEmail InvitationMode = "email"
	// ModeManualLink returns the link to the operator for manual delivery.
	ModeManualLink InvitationMode = "manual_link"
)

// Valid reports whether the mode is known.
func (m InvitationMode) Valid() bool {
	return m == ModeEmail || m == ModeManualLink
}

// InvitationProfile is the invitee as entered by the operator.
type InvitationProfile struct {
	Name       string
	Email      string
	Role       domain.Role
	Department string
}

// InvitationResult describes a created invitation.
type InvitationResult struct {
	User     *domain.User
	Link     string
	Mode     InvitationMode
	Delivery *mailer.Result
}

// InvitationService creates Pending users and distributes activation links.
type InvitationService struct {
	users      repository.UserRepository
	sender     mailer.Sender
	engine     *permission.Engine
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	linkOrigin string
}

// InvitationDependencies bundles collaborators for the invitation service.
type InvitationDependencies struct {
	Users      repository.UserRepository
	Sender     mailer.Sender
	Engine     *permission.Engine
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	LinkOrigin string
}

func NewInvitationService(deps InvitationDependencies) *InvitationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := deps.Engine
	if engine == nil {
		engine = permission.NewEngine()
	}
	return &InvitationService{
		users:      deps.Users,
		sender:     deps.Sender,
		engine:     engine,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		linkOrigin: deps.LinkOrigin,
	}
}

// SendInvitation creates an invitation delivered by e-mail.
func (s *InvitationService) SendInvitation(ctx context.Context, actor *domain.User, profile InvitationProfile) (*InvitationResult, error) {
	return s.CreateInvitation(ctx, actor, profile, ModeEmail)
}

// CreateInvitation inserts a Pending user for profile and, in ModeEmail,
// dispatches the activation link. The row is inserted before any dispatch
// and is kept when dispatch fails. Repeated invitations for one e-mail each
// add a row.
func (s *InvitationService) CreateInvitation(ctx context.Context, actor *domain.User, profile InvitationProfile, mode InvitationMode) (*InvitationResult, error) {
	profile = normalizeProfile(profile)
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	if !mode.Valid() {
		return nil, util.NewValidationError("modo de convite inválido", map[string]any{"mode": mode})
	}
	if !s.engine.CanManageUsers(actor) {
		return nil, util.NewForbidden("sem permissão para gerenciar usuários")
	}
	if profile.Role == domain.RoleAdministrator && !s.engine.CanCreateAdmin(actor) {
		return nil, util.NewForbidden("sem permissão para criar administradores")
	}

	payload := invite.Payload{
		Name:       profile.Name,
		Email:      profile.Email,
		Role:       profile.Role,
		Department: profile.Department,
		Status:     domain.UserStatusPending,
	}
	link, err := invite.EncodeLink(s.linkOrigin, payload)
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	user := &domain.User{
		Name:       payload.Name,
		Email:      payload.Email,
		Role:       payload.Role,
		Department: payload.Department,
		Status:     domain.UserStatusPending,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.metrics.ObserveInvitation(string(mode), "store_failed")
		return nil, util.NewUpstreamError("Erro ao criar usuário", err)
	}

	result := &InvitationResult{User: user, Link: link, Mode: mode}
	if mode == ModeManualLink {
		s.metrics.ObserveInvitation(string(mode), "created")
		s.published(ctx, actor, user, mode, false)
		return result, nil
	}

	ack, err := s.sender.SendInvite(ctx, mailer.InviteEmail{
		Name:       user.Name,
		Email:      user.Email,
		Role:       string(user.Role),
		Department: user.Department,
		InviteLink: link,
	})
	if err != nil {
		s.metrics.ObserveInvitation(string(mode), "dispatch_failed")
		s.logger.Warn("invitation dispatch failed", zap.String("email", user.Email), zap.String("user_id", user.ID), zap.Error(err))
		s.published(ctx, actor, user, mode, false)
		return result, dispatchError(err, user, link)
	}

	result.Delivery = &ack
	s.metrics.ObserveInvitation(string(mode), "sent")
	s.logger.Info("invitation sent", zap.String("email", user.Email), zap.String("message_id", ack.MessageID))
	s.published(ctx, actor, user, mode, true)
	return result, nil
}

func (s *InvitationService) published(ctx context.Context, actor, user *domain.User, mode InvitationMode, delivered bool) {
	publish(ctx, s.dispatcher, events.EventUserInvited, user.ID, events.ActorOf(actor), events.UserInvitedPayload{
		Email:      user.Email,
		Role:       user.Role,
		Department: user.Department,
		Mode:       string(mode),
		Delivered:  delivered,
	})
}

// dispatchError passes the sender's message through and keeps the link so
// the operator can still deliver it by hand.
func dispatchError(err error, user *domain.User, link string) error {
	msg := "Erro ao enviar e-mail"
	var de *mailer.DeliveryError
	if errors.As(err, &de) && de.Message != "" {
		msg = de.Message
	}
	return &util.DomainError{
		Code:       "UPSTREAM_FAILED",
		Message:    msg,
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"user_id": user.ID, "invite_link": link},
		Err:        err,
	}
}

func normalizeProfile(p InvitationProfile) InvitationProfile {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Department = strings.TrimSpace(p.Department)
	return p
}

func validateProfile(p InvitationProfile) error {
	missing := []string{}
	if p.Name == "" {
		missing = append(missing, "name")
	}
	if p.Email == "" {
		missing = append(missing, "email")
	}
	if p.Role == "" {
		missing = append(missing, "role")
	}
	if p.Department == "" {
		missing = append(missing, "department")
	}
	if len(missing) > 0 {
		return util.NewValidationError("Todos os campos são obrigatórios", map[string]any{"missing": missing})
	}
	if !p.Role.Valid() {
		return util.NewValidationError("função inválida", map[string]any{"role": p.Role})
	}
	return nil
}
