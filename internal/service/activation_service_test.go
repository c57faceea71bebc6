package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/tecnochamados/internal/auth"
	"github.com/spec-kit/tecnochamados/internal/domain"
	"github.com/spec-kit/tecnochamados/internal/events"
	"github.com/spec-kit/tecnochamados/internal/invite"
	"github.com/spec-kit/tecnochamados/internal/permission"
	"github.com/spec-kit/tecnochamados/internal/service"
	"github.com/spec-kit/tecnochamados/pkg/util"
)

var _ = Describe("ActivationService", func() {
	var (
		ctx        context.Context
		users      *fakeUsers
		accounts   *fakeAccounts
		dispatcher events.Dispatcher
		incomplete []events.Event
		svc        *service.ActivationService
		query      string
	)

	queryFor := func(p invite.Payload) string {
		link, err := invite.EncodeLink("http://localhost:5173", p)
		Expect(err).NotTo(HaveOccurred())
		u, err := url.Parse(link)
		Expect(err).NotTo(HaveOccurred())
		return u.RawQuery
	}

	messageOf := func(err error) string {
		return util.ToDomainError(err).Message
	}

	BeforeEach(func() {
		ctx = context.Background()
		users = &fakeUsers{}
		accounts = newFakeAccounts()
		incomplete = nil
		dispatcher = events.NewInMemoryDispatcher(nil)
		dispatcher.Subscribe(events.EventActivationIncomplete, func(_ context.Context, e events.Event) error {
			incomplete = append(incomplete, e)
			return nil
		})
		svc = service.NewActivationService(service.ActivationDependencies{
			Users:         users,
			Accounts:      accounts,
			Hasher:        auth.NewHasher(4),
			Dispatcher:    dispatcher,
			MinPassword:   6,
			BindAttempts:  3,
			RetryInterval: time.Millisecond,
		})

		pending := &domain.User{Name: "Ana", Email: "ana@x.com", Role: domain.RoleTechnician, Department: "TI", Status: domain.UserStatusPending}
		Expect(users.Create(ctx, pending)).To(Succeed())
		query = queryFor(invite.Payload{Name: "Ana", Email: "ana@x.com", Role: domain.RoleTechnician, Department: "TI", Status: domain.UserStatusPending})
		users.calls = 0
	})

	Describe("local validation", func() {
		It("rejects a five character password without remote calls", func() {
			_, err := svc.Activate(ctx, query, "abcde", "abcde")
			Expect(messageOf(err)).To(Equal(service.MsgPasswordTooShort))
			Expect(users.calls).To(BeZero())
			Expect(accounts.calls).To(BeZero())
		})

		It("rejects mismatched confirmation without remote calls", func() {
			_, err := svc.Activate(ctx, query, "abcdef", "abcdeg")
			Expect(messageOf(err)).To(Equal(service.MsgPasswordMismatch))
			Expect(users.calls).To(BeZero())
			Expect(accounts.calls).To(BeZero())
		})

		It("proceeds to account creation for matching passwords", func() {
			res, err := svc.Activate(ctx, query, "abcdef", "abcdef")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.ConfirmationPending).To(BeTrue())
			Expect(res.Message).To(Equal(service.MsgActivated))
			Expect(accounts.rows).To(HaveKey("ana@x.com"))
		})
	})

	Describe("page states", func() {
		It("is terminally invalid for a malformed payload", func() {
			page := svc.Open("data=%7Bnot-json")
			Expect(page.State()).To(Equal(service.StateInvalid))
			Expect(messageOf(page.Err())).To(Equal(service.MsgInvalidInvite))

			_, err := page.Submit(ctx, "abcdef", "abcdef")
			Expect(err).To(MatchError(service.ErrInvalidInvite))
			Expect(page.State()).To(Equal(service.StateInvalid))
			Expect(accounts.calls).To(BeZero())
		})

		It("is invalid when the data parameter is missing", func() {
			Expect(svc.Open("").State()).To(Equal(service.StateInvalid))
		})

		It("recovers from an error back to the form", func() {
			page := svc.Open(query)
			Expect(page.State()).To(Equal(service.StateFormReady))
			payload, ok := page.Payload()
			Expect(ok).To(BeTrue())
			Expect(payload.Name).To(Equal("Ana"))

			_, err := page.Submit(ctx, "abcdef", "abcdeg")
			Expect(err).To(HaveOccurred())
			Expect(page.State()).To(Equal(service.StateError))

			_, err = page.Submit(ctx, "abcdef", "abcdef")
			Expect(err).NotTo(HaveOccurred())
			Expect(page.State()).To(Equal(service.StateSuccess))
		})

		It("refuses a second submission after success", func() {
			page := svc.Open(query)
			_, err := page.Submit(ctx, "abcdef", "abcdef")
			Expect(err).NotTo(HaveOccurred())
			_, err = page.Submit(ctx, "abcdef", "abcdef")
			Expect(err).To(MatchError(service.ErrPageBusy))
		})
	})

	Describe("account and profile binding", func() {
		It("rejects a link whose invitation is no longer pending", func() {
			_, err := svc.Activate(ctx, query, "abcdef", "abcdef")
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Activate(ctx, query, "abcdef", "abcdef")
			Expect(messageOf(err)).To(Equal(service.MsgInviteNotPending))
			Expect(accounts.rows).To(HaveLen(1))
		})

		It("reports an existing account", func() {
			accounts.rows["ana@x.com"] = &domain.Account{ID: "existing", Email: "ana@x.com"}
			_, err := svc.Activate(ctx, query, "abcdef", "abcdef")
			Expect(util.ToDomainError(err).Code).To(Equal("CONFLICT"))
			Expect(messageOf(err)).To(Equal(service.MsgAccountExists))
		})

		It("surfaces account creation failures", func() {
			accounts.createErr = errors.New("Email rate limit exceeded")
			_, err := svc.Activate(ctx, query, "abcdef", "abcdef")
			Expect(util.ToDomainError(err).Code).To(Equal("UPSTREAM_FAILED"))
			Expect(messageOf(err)).To(Equal("Email rate limit exceeded"))
			Expect(util.ToDomainError(err).Details).To(HaveKeyWithValue("cause", "Email rate limit exceeded"))
			Expect(users.byEmail("ana@x.com")[0].Status).To(Equal(domain.UserStatusPending))
		})

		It("keeps the generic message for driver failures", func() {
			accounts.createErr = fmt.Errorf("insert account: %w", &pgconn.PgError{Code: "53300", Message: "too many connections"})
			_, err := svc.Activate(ctx, query, "abcdef", "abcdef")
			Expect(messageOf(err)).To(Equal(service.MsgAccountFailed))
			Expect(util.ToDomainError(err).Details["cause"]).To(ContainSubstring("too many connections"))
		})

		It("retries a transient binding failure", func() {
			users.bindErrs = []error{errors.New("timeout")}
			res, err := svc.Activate(ctx, query, "abcdef", "abcdef")
			Expect(err).NotTo(HaveOccurred())
			Expect(users.bindCalls).To(Equal(2))
			Expect(res.User.Status).To(Equal(domain.UserStatusActive))
			Expect(accounts.flagged).To(BeEmpty())
		})

		It("flags the account when binding keeps failing", func() {
			users.bindErrs = []error{errors.New("timeout"), errors.New("timeout"), errors.New("timeout")}
			_, err := svc.Activate(ctx, query, "abcdef", "abcdef")
			Expect(err).To(MatchError(service.ErrActivationIncomplete))
			Expect(users.bindCalls).To(Equal(3))

			account := accounts.rows["ana@x.com"]
			Expect(account.NeedsReconciliation).To(BeTrue())
			Expect(accounts.flagged).To(ConsistOf(account.ID))
			Expect(incomplete).To(HaveLen(1))
			Expect(users.byEmail("ana@x.com")[0].Status).To(Equal(domain.UserStatusPending))
		})

		It("binds only the newest pending row", func() {
			second := &domain.User{Name: "Ana", Email: "ana@x.com", Role: domain.RoleTechnician, Department: "TI", Status: domain.UserStatusPending}
			Expect(users.Create(ctx, second)).To(Succeed())

			res, err := svc.Activate(ctx, query, "abcdef", "abcdef")
			Expect(err).NotTo(HaveOccurred())

			statuses := map[string]domain.UserStatus{}
			for _, row := range users.byEmail("ana@x.com") {
				statuses[row.ID] = row.Status
			}
			Expect(statuses).To(HaveKeyWithValue(res.AccountID, domain.UserStatusActive))
			Expect(statuses).To(HaveKeyWithValue("user-1", domain.UserStatusPending))
		})
	})

	It("takes Bob from invitation to an active account", func() {
		sender := &fakeSender{}
		invitations := service.NewInvitationService(service.InvitationDependencies{
			Users:      users,
			Sender:     sender,
			Engine:     permission.NewEngine(),
			LinkOrigin: "http://localhost:5173",
		})

		_, err := invitations.SendInvitation(ctx, operator(domain.RoleAdministrator), service.InvitationProfile{
			Name: "Bob", Email: "bob@x.com", Role: domain.RoleTechnician, Department: "Suporte",
		})
		Expect(err).NotTo(HaveOccurred())

		rows := users.byEmail("bob@x.com")
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Status).To(Equal(domain.UserStatusPending))

		Expect(sender.invites).To(HaveLen(1))
		link, err := url.Parse(sender.invites[0].InviteLink)
		Expect(err).NotTo(HaveOccurred())

		res, err := svc.Activate(ctx, link.RawQuery, "secret1", "secret1")
		Expect(err).NotTo(HaveOccurred())

		account, ok := accounts.rows["bob@x.com"]
		Expect(ok).To(BeTrue())
		Expect(account.Metadata).To(Equal(domain.AccountMetadata{Name: "Bob", Role: domain.RoleTechnician, Department: "Suporte"}))
		Expect(auth.NewHasher(4).Compare(account.PasswordHash, "secret1")).To(Succeed())

		rows = users.byEmail("bob@x.com")
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Status).To(Equal(domain.UserStatusActive))
		Expect(rows[0].ID).To(Equal(account.ID))
		Expect(res.User.ID).To(Equal(account.ID))
	})
})
