package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/tecnochamados/internal/auth"
	"github.com/spec-kit/tecnochamados/internal/domain"
	"github.com/spec-kit/tecnochamados/internal/events"
	"github.com/spec-kit/tecnochamados/internal/invite"
	"github.com/spec-kit/tecnochamados/internal/observability"
	"github.com/spec-kit/tecnochamados/internal/repository"
	"github.com/spec-kit/tecnochamados/pkg/util"
)

const (
	MsgInvalidInvite    = "Link de convite inválido"
	MsgMissingInvite    = "Dados do convite não encontrados"
	MsgPasswordTooShort = "A senha deve ter pelo menos 6 caracteres"
	MsgPasswordMismatch = "As senhas não coincidem"
	MsgActivated        = "Conta criada com sucesso! Verifique seu e-mail para confirmar."
	MsgInviteNotPending = "Convite não encontrado ou já utilizado"
	MsgAccountExists    = "Este e-mail já possui uma conta"
	MsgAccountFailed    = "Erro ao criar conta"
	MsgIncomplete       = "Conta criada, mas o perfil não pôde ser ativado. Contate um administrador."
)

var (
	// ErrInvalidInvite is terminal for the activation page.
	ErrInvalidInvite = util.NewDomainError("INVALID_INVITE", MsgInvalidInvite, http.StatusBadRequest, nil)
	// ErrActivationIncomplete means the account exists but its profile row
	// could not be bound; the account is flagged for reconciliation.
	ErrActivationIncomplete = util.NewDomainError("ACTIVATION_INCOMPLETE", MsgIncomplete, http.StatusInternalServerError, nil)
	// ErrPageBusy rejects a submission while another is in flight or after success.
	ErrPageBusy = util.NewDomainError("ACTIVATION_NOT_READY", "ativação indisponível no estado atual", http.StatusConflict, nil)
)

// ActivationState is a step of the activation page.
type ActivationState string

const (
	StateAwaitingPayload ActivationState = "awaiting_payload"
	StateFormReady       ActivationState = "form_ready"
	StateSubmitting      ActivationState = "submitting"
	StateSuccess         ActivationState = "success"
	StateError           ActivationState = "error"
	StateInvalid         ActivationState = "invalid"
)

// ActivationResult reports a completed activation.
type ActivationResult struct {
	User                *domain.User
	AccountID           string
	ConfirmationPending bool
	Message             string
}

// ActivationService turns invitation links into credentialed accounts.
type ActivationService struct {
	users         repository.UserRepository
	accounts      repository.AccountRepository
	hasher        *auth.Hasher
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	minPassword   int
	bindAttempts  uint
	retryInterval time.Duration
}

// ActivationDependencies bundles collaborators for activation.
type ActivationDependencies struct {
	Users         repository.UserRepository
	Accounts      repository.AccountRepository
	Hasher        *auth.Hasher
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	MinPassword   int
	BindAttempts  int
	RetryInterval time.Duration
}

func NewActivationService(deps ActivationDependencies) *ActivationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	minPassword := deps.MinPassword
	if minPassword <= 0 {
		minPassword = 6
	}
	attempts := deps.BindAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &ActivationService{
		users:         deps.Users,
		accounts:      deps.Accounts,
		hasher:        deps.Hasher,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        logger,
		minPassword:   minPassword,
		bindAttempts:  uint(attempts),
		retryInterval: deps.RetryInterval,
	}
}

// ActivationPage walks one invitee through activation.
type ActivationPage struct {
	svc *ActivationService

	mu      sync.Mutex
	state   ActivationState
	payload *invite.Payload
	lastErr error
	result  *ActivationResult
}

// Open reads the payload from rawQuery. A malformed payload leaves the page
// Invalid for good; otherwise the form is ready.
func (s *ActivationService) Open(rawQuery string) *ActivationPage {
	page := &ActivationPage{svc: s, state: StateAwaitingPayload}
	payload, err := invite.DecodeQuery(rawQuery)
	if err != nil {
		page.state = StateInvalid
		page.lastErr = ErrInvalidInvite
		return page
	}
	page.payload = &payload
	page.state = StateFormReady
	return page
}

// Activate opens the link and submits the password in one step.
func (s *ActivationService) Activate(ctx context.Context, rawQuery, password, confirm string) (*ActivationResult, error) {
	return s.Open(rawQuery).Submit(ctx, password, confirm)
}

func (p *ActivationPage) State() ActivationState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Payload returns the decoded invitee profile.
func (p *ActivationPage) Payload() (invite.Payload, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.payload == nil {
		return invite.Payload{}, false
	}
	return *p.payload, true
}

// Err returns the error shown on the page, if any.
func (p *ActivationPage) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Submit validates the passwords locally and, when they pass, creates the
// account and activates the pending profile. A failed submission returns
// the page to the form.
func (p *ActivationPage) Submit(ctx context.Context, password, confirm string) (*ActivationResult, error) {
	p.mu.Lock()
	switch p.state {
	case StateInvalid:
		p.mu.Unlock()
		return nil, ErrInvalidInvite
	case StateError:
		p.state = StateFormReady
	case StateFormReady:
	default:
		p.mu.Unlock()
		return nil, ErrPageBusy
	}
	if p.payload == nil {
		p.mu.Unlock()
		return nil, util.NewValidationError(MsgMissingInvite, nil)
	}
	payload := *p.payload
	p.state = StateSubmitting
	p.lastErr = nil
	p.mu.Unlock()

	result, err := p.svc.activate(ctx, payload, password, confirm)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state = StateError
		p.lastErr = err
		return nil, err
	}
	p.state = StateSuccess
	p.result = result
	return result, nil
}

func (s *ActivationService) validatePassword(password, confirm string) error {
	if password == "" || utf8.RuneCountInString(password) < s.minPassword {
		return util.NewValidationError(MsgPasswordTooShort, nil)
	}
	if password != confirm {
		return util.NewValidationError(MsgPasswordMismatch, nil)
	}
	return nil
}

func (s *ActivationService) activate(ctx context.Context, payload invite.Payload, password, confirm string) (*ActivationResult, error) {
	if err := s.validatePassword(password, confirm); err != nil {
		s.metrics.ObserveActivation("rejected")
		return nil, err
	}

	email := strings.TrimSpace(payload.Email)
	if _, err := s.users.FindPendingByEmail(ctx, email); err != nil {
		if util.IsNotFound(err) {
			s.metrics.ObserveActivation("rejected")
			return nil, util.NewDomainError("INVITE_NOT_PENDING", MsgInviteNotPending, http.StatusConflict, nil)
		}
		s.metrics.ObserveActivation("failed")
		return nil, util.NewUpstreamError(MsgAccountFailed, err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.metrics.ObserveActivation("failed")
		return nil, util.NewInternalError(err)
	}
	account := &domain.Account{
		Email:        email,
		PasswordHash: hash,
		Metadata: domain.AccountMetadata{
			Name:       payload.Name,
			Role:       payload.Role,
			Department: payload.Department,
		},
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		s.metrics.ObserveActivation("failed")
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, util.NewConflict(MsgAccountExists, nil)
		}
		return nil, accountFailure(err)
	}

	user, err := s.bindProfile(ctx, email, account.ID)
	if err != nil {
		s.logger.Error("profile binding failed after account creation",
			zap.String("email", email),
			zap.String("account_id", account.ID),
			zap.Error(err))
		if markErr := s.accounts.MarkNeedsReconciliation(context.WithoutCancel(ctx), account.ID); markErr != nil {
			s.logger.Error("could not flag account for reconciliation", zap.String("account_id", account.ID), zap.Error(markErr))
		}
		s.metrics.ObserveActivation("incomplete")
		publish(ctx, s.dispatcher, events.EventActivationIncomplete, account.ID, events.Actor{}, events.UserActivatedPayload{
			Email:     email,
			AccountID: account.ID,
		})
		return nil, ErrActivationIncomplete
	}

	s.metrics.ObserveActivation("success")
	s.logger.Info("account activated", zap.String("email", email), zap.String("user_id", user.ID))
	publish(ctx, s.dispatcher, events.EventUserActivated, user.ID, events.Actor{UserID: user.ID, Role: user.Role}, events.UserActivatedPayload{
		Email:     email,
		AccountID: account.ID,
	})

	return &ActivationResult{
		User:                user,
		AccountID:           account.ID,
		ConfirmationPending: !account.EmailConfirmed,
		Message:             MsgActivated,
	}, nil
}

// bindProfile retries transient failures. A missing Pending row is final.
func (s *ActivationService) bindProfile(ctx context.Context, email, accountID string) (*domain.User, error) {
	op := func() (*domain.User, error) {
		user, err := s.users.BindAccount(ctx, email, accountID)
		if err != nil && util.IsNotFound(err) {
			return nil, backoff.Permanent(err)
		}
		return user, err
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(s.retryInterval)),
		backoff.WithMaxTries(s.bindAttempts),
	)
}

// accountFailure passes a rejection from the account store through as the
// message. Driver and connection failures keep the generic message and
// carry the cause in details only.
func accountFailure(err error) error {
	message := err.Error()
	var pgErr *pgconn.PgError
	var connErr *pgconn.ConnectError
	if errors.As(err, &pgErr) || errors.As(err, &connErr) || errors.Is(err, context.DeadlineExceeded) {
		message = MsgAccountFailed
	}
	return &util.DomainError{
		Code:       "UPSTREAM_FAILED",
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"cause": err.Error()},
		Err:        err,
	}
}
