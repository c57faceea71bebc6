package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	apihttp "github.com/spec-kit/tecnochamados/internal/api/http"
	"github.com/spec-kit/tecnochamados/internal/api/http/handlers"
	"github.com/spec-kit/tecnochamados/internal/auth"
	"github.com/spec-kit/tecnochamados/internal/domain"
	"github.com/spec-kit/tecnochamados/internal/events"
	"github.com/spec-kit/tecnochamados/internal/mailer"
	"github.com/spec-kit/tecnochamados/internal/observability"
	"github.com/spec-kit/tecnochamados/internal/permission"
	"github.com/spec-kit/tecnochamados/internal/service"
	"github.com/spec-kit/tecnochamados/internal/session"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type harness struct {
	app      *fiber.App
	users    *memUsers
	accounts *memAccounts
	tickets  *memTickets
	sender   *stubSender
	sessions *session.Manager
	tokens   *auth.TokenManager
}

func newHarness() *harness {
	logger := zap.NewNop()
	h := &harness{
		users:    &memUsers{},
		accounts: &memAccounts{rows: map[string]domain.Account{}},
		tickets:  &memTickets{},
		sender:   &stubSender{},
		sessions: session.NewManager(session.NewMemoryStore(), logger),
		tokens:   auth.NewTokenManager("test-secret", 60),
	}
	engine := permission.NewEngine()
	dispatcher := events.NewInMemoryDispatcher(logger)
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	hasher := auth.NewHasher(4)
	clients := &memClients{}

	authService := service.NewAuthService(service.AuthDependencies{
		Users: h.users, Accounts: h.accounts, Hasher: hasher,
		Tokens: h.tokens, Sessions: h.sessions, Engine: engine, Logger: logger,
	})
	invitations := service.NewInvitationService(service.InvitationDependencies{
		Users: h.users, Sender: h.sender, Engine: engine, Dispatcher: dispatcher,
		Metrics: metrics, Logger: logger, LinkOrigin: "https://chamados.example.com",
	})
	activation := service.NewActivationService(service.ActivationDependencies{
		Users: h.users, Accounts: h.accounts, Hasher: hasher, Dispatcher: dispatcher,
		Metrics: metrics, Logger: logger, BindAttempts: 1,
	})

	h.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	apihttp.RegisterMiddlewares(h.app, logger, metrics, apihttp.MiddlewareConfig{})
	apihttp.RegisterRoutes(h.app, apihttp.RouteConfig{
		Health:         handlers.NewHealthHandler("tecnochamados", "test", nil),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(service.NewUserService(h.users, h.accounts, engine, logger), invitations),
		Activation:     handlers.NewActivationHandler(activation),
		Clients:        handlers.NewClientsHandler(service.NewClientService(clients, engine)),
		Tickets:        handlers.NewTicketsHandler(service.NewTicketService(h.tickets, engine, dispatcher, logger)),
		Dashboard:      handlers.NewDashboardHandler(service.NewDashboardService(h.tickets, clients, engine)),
		AuthMiddleware: auth.NewAuthMiddleware(h.tokens, h.sessions),
		Engine:         engine,
		Gatherer:       registry,
	})
	return h
}

func (h *harness) tokenFor(role domain.Role) string {
	user := &domain.User{ID: "op-1", Name: "Operador", Email: "op@x.com", Role: role, Department: "TI", Status: domain.UserStatusActive}
	holder, err := h.sessions.Start(context.Background(), user)
	Expect(err).NotTo(HaveOccurred())
	token, _, err := h.tokens.Issue(holder.Key(), user.ID)
	Expect(err).NotTo(HaveOccurred())
	return token
}

func (h *harness) do(method, target, token string, body any) (int, envelope) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		Expect(json.Unmarshal(raw, &env)).To(Succeed())
	}
	return resp.StatusCode, env
}

func queryOf(link string) string {
	parts := strings.SplitN(link, "?", 2)
	Expect(parts).To(HaveLen(2))
	return parts[1]
}

var _ = Describe("HTTP API", func() {
	var h *harness

	BeforeEach(func() {
		h = newHarness()
	})

	It("reports liveness", func() {
		status, _ := h.do(http.MethodGet, "/health/live", "", nil)
		Expect(status).To(Equal(http.StatusOK))
	})

	It("exposes prometheus metrics", func() {
		h.do(http.MethodGet, "/health/live", "", nil)
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		resp, err := h.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		raw, _ := io.ReadAll(resp.Body)
		Expect(string(raw)).To(ContainSubstring("tecnochamados_http_requests_total"))
	})

	Describe("authorization", func() {
		It("rejects requests without a token", func() {
			status, env := h.do(http.MethodGet, "/users", "", nil)
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(env.Error.Code).To(Equal("UNAUTHORIZED"))
		})

		It("names the missing capability", func() {
			status, env := h.do(http.MethodGet, "/users", h.tokenFor(domain.RoleTechnician), nil)
			Expect(status).To(Equal(http.StatusForbidden))
			Expect(env.Error.Code).To(Equal("FORBIDDEN"))
			Expect(env.Error.Message).To(Equal("permissão insuficiente: manage_users"))
		})

		It("lets technicians read tickets but not delete them", func() {
			token := h.tokenFor(domain.RoleTechnician)
			status, _ := h.do(http.MethodGet, "/tickets", token, nil)
			Expect(status).To(Equal(http.StatusOK))

			status, _ = h.do(http.MethodDelete, "/tickets/ticket-1", token, nil)
			Expect(status).To(Equal(http.StatusForbidden))
		})

		It("keeps the dashboard away from technicians", func() {
			status, _ := h.do(http.MethodGet, "/dashboard", h.tokenFor(domain.RoleTechnician), nil)
			Expect(status).To(Equal(http.StatusForbidden))

			status, env := h.do(http.MethodGet, "/dashboard", h.tokenFor(domain.RoleManager), nil)
			Expect(status).To(Equal(http.StatusOK))
			Expect(string(env.Data)).To(ContainSubstring("total_clients"))
		})

		It("returns grants with the current operator", func() {
			status, env := h.do(http.MethodGet, "/auth/me", h.tokenFor(domain.RoleManager), nil)
			Expect(status).To(Equal(http.StatusOK))

			var me struct {
				User   map[string]any `json:"user"`
				Grants struct {
					Capabilities map[string]bool `json:"capabilities"`
					Navigation   map[string]bool `json:"navigation"`
				} `json:"grants"`
			}
			Expect(json.Unmarshal(env.Data, &me)).To(Succeed())
			Expect(me.User["role"]).To(Equal("Gestor"))
			Expect(me.Grants.Capabilities["manage_users"]).To(BeTrue())
			Expect(me.Grants.Capabilities["create_admin"]).To(BeFalse())
			Expect(me.Grants.Navigation["users"]).To(BeTrue())
		})

		It("ends the session on logout", func() {
			token := h.tokenFor(domain.RoleAdministrator)
			status, _ := h.do(http.MethodPost, "/auth/logout", token, nil)
			Expect(status).To(Equal(http.StatusNoContent))

			status, _ = h.do(http.MethodGet, "/auth/me", token, nil)
			Expect(status).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("tickets", func() {
		It("creates a ticket with the pending status by default", func() {
			status, env := h.do(http.MethodPost, "/tickets", h.tokenFor(domain.RoleTechnician), map[string]any{
				"client": "Padaria Central", "subject": "Impressora", "category": "Hardware",
				"technician": "Carlos", "date": "2024-03-01",
			})
			Expect(status).To(Equal(http.StatusCreated))

			var ticket domain.Ticket
			Expect(json.Unmarshal(env.Data, &ticket)).To(Succeed())
			Expect(ticket.Status).To(Equal(domain.TicketStatusPending))
			Expect(h.tickets.rows).To(HaveLen(1))
		})

		It("reports the failing fields", func() {
			status, env := h.do(http.MethodPost, "/tickets", h.tokenFor(domain.RoleTechnician), map[string]any{
				"client": "Padaria Central",
			})
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(env.Error.Code).To(Equal("VALIDATION_FAILED"))
			Expect(env.Error.Details).To(HaveKey("fields"))
		})
	})

	Describe("invitations and activation", func() {
		invitee := map[string]any{
			"name": "Bob", "email": "bob@x.com", "role": "Técnico", "department": "Suporte",
		}

		It("returns a manual link without mailing it", func() {
			body := map[string]any{"mode": "manual_link"}
			for k, v := range invitee {
				body[k] = v
			}
			status, env := h.do(http.MethodPost, "/users/invitations", h.tokenFor(domain.RoleAdministrator), body)
			Expect(status).To(Equal(http.StatusCreated))

			var res struct {
				User       map[string]any `json:"user"`
				InviteLink string         `json:"invite_link"`
				Mode       string         `json:"mode"`
			}
			Expect(json.Unmarshal(env.Data, &res)).To(Succeed())
			Expect(res.Mode).To(Equal("manual_link"))
			Expect(res.User["status"]).To(Equal("Pendente"))
			Expect(res.InviteLink).To(HavePrefix("https://chamados.example.com/invite?data="))
			Expect(h.sender.sent).To(BeEmpty())
		})

		It("keeps the pending row and the link when the relay fails", func() {
			h.sender.err = &mailer.DeliveryError{Message: "Erro de conexão"}
			status, env := h.do(http.MethodPost, "/users/invitations", h.tokenFor(domain.RoleAdministrator), invitee)
			Expect(status).To(Equal(http.StatusBadGateway))
			Expect(env.Error.Message).To(Equal("Erro de conexão"))
			Expect(env.Error.Details).To(HaveKey("invite_link"))
			Expect(h.users.rows).To(HaveLen(1))
		})

		It("stops managers from inviting administrators", func() {
			body := map[string]any{"role": "Administrador"}
			for k, v := range invitee {
				if k != "role" {
					body[k] = v
				}
			}
			status, _ := h.do(http.MethodPost, "/users/invitations", h.tokenFor(domain.RoleManager), body)
			Expect(status).To(Equal(http.StatusForbidden))
			Expect(h.users.rows).To(BeEmpty())
		})

		It("activates the invitee who can then log in", func() {
			status, env := h.do(http.MethodPost, "/users/invitations", h.tokenFor(domain.RoleAdministrator), invitee)
			Expect(status).To(Equal(http.StatusCreated))
			Expect(h.sender.sent).To(HaveLen(1))
			query := queryOf(h.sender.sent[0].InviteLink)

			status, env = h.do(http.MethodGet, "/invite?"+query, "", nil)
			Expect(status).To(Equal(http.StatusOK))
			Expect(string(env.Data)).To(ContainSubstring("bob@x.com"))

			status, env = h.do(http.MethodPost, "/invite?"+query, "", map[string]any{
				"password": "segredo1", "confirm_password": "segredo2",
			})
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(env.Error.Message).To(Equal(service.MsgPasswordMismatch))

			status, env = h.do(http.MethodPost, "/invite?"+query, "", map[string]any{
				"password": "segredo1", "confirm_password": "segredo1",
			})
			Expect(status).To(Equal(http.StatusCreated))
			Expect(string(env.Data)).To(ContainSubstring(service.MsgActivated))

			status, env = h.do(http.MethodPost, "/auth/login", "", map[string]any{
				"email": "bob@x.com", "password": "segredo1",
			})
			Expect(status).To(Equal(http.StatusOK))
			var login struct {
				Token string         `json:"token"`
				User  map[string]any `json:"user"`
			}
			Expect(json.Unmarshal(env.Data, &login)).To(Succeed())
			Expect(login.Token).NotTo(BeEmpty())
			Expect(login.User["status"]).To(Equal("Ativo"))
			Expect(login.User["id"]).To(Equal("account-1"))

			status, _ = h.do(http.MethodGet, "/auth/me", login.Token, nil)
			Expect(status).To(Equal(http.StatusOK))

			status, env = h.do(http.MethodPost, "/invite?"+query, "", map[string]any{
				"password": "segredo1", "confirm_password": "segredo1",
			})
			Expect(status).To(Equal(http.StatusConflict))
			Expect(env.Error.Message).To(Equal(service.MsgInviteNotPending))
		})

		It("keeps an activated operator able to log in after a second invitation", func() {
			login := func() (int, envelope) {
				return h.do(http.MethodPost, "/auth/login", "", map[string]any{
					"email": "bob@x.com", "password": "segredo1",
				})
			}
			status, _ := h.do(http.MethodPost, "/users/invitations", h.tokenFor(domain.RoleAdministrator), invitee)
			Expect(status).To(Equal(http.StatusCreated))
			status, _ = h.do(http.MethodPost, "/invite?"+queryOf(h.sender.sent[0].InviteLink), "", map[string]any{
				"password": "segredo1", "confirm_password": "segredo1",
			})
			Expect(status).To(Equal(http.StatusCreated))

			status, _ = h.do(http.MethodPost, "/users/invitations", h.tokenFor(domain.RoleAdministrator), invitee)
			Expect(status).To(Equal(http.StatusCreated))
			Expect(h.users.rows).To(HaveLen(2))

			status, env := login()
			Expect(status).To(Equal(http.StatusOK))
			var res struct {
				User map[string]any `json:"user"`
			}
			Expect(json.Unmarshal(env.Data, &res)).To(Succeed())
			Expect(res.User["id"]).To(Equal("account-1"))
			Expect(res.User["status"]).To(Equal("Ativo"))
		})

		It("rejects a malformed link", func() {
			status, env := h.do(http.MethodGet, "/invite?data=%7Bnot-json", "", nil)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(env.Error.Code).To(Equal("INVALID_INVITE"))
		})
	})
})
