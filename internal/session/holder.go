// Package session holds the identity of the current operator.
//
// A snapshot written on login is trusted on restore: it is not checked
// against the user table.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/tecnochamados/internal/domain"
)

// Holder tracks one logical session.
type Holder struct {
	store  SnapshotStore
	key    string
	logger *zap.Logger

	mu      sync.RWMutex
	current *domain.User
}

// NewHolder builds a holder persisting under key.
func NewHolder(store SnapshotStore, key string, logger *zap.Logger) *Holder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Holder{store: store, key: key, logger: logger}
}

// Key returns the storage key of the session.
func (h *Holder) Key() string {
	return h.key
}

// Login replaces the current user and persists a snapshot of it.
func (h *Holder) Login(ctx context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("login requires a user")
	}
	snapshot, err := json.Marshal(user)
	if err != nil {
		return err
	}

	copied := *user
	h.mu.Lock()
	h.current = &copied
	h.mu.Unlock()

	return h.store.Save(ctx, h.key, snapshot)
}

// Logout clears the current user and its snapshot.
func (h *Holder) Logout(ctx context.Context) error {
	h.mu.Lock()
	h.current = nil
	h.mu.Unlock()

	return h.store.Delete(ctx, h.key)
}

// CurrentUser returns a copy of the current user.
func (h *Holder) CurrentUser() (*domain.User, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return nil, false
	}
	copied := *h.current
	return &copied, true
}

// Restore loads a previously persisted snapshot. A missing or unreadable
// snapshot leaves the holder logged out.
func (h *Holder) Restore(ctx context.Context) error {
	data, err := h.store.Load(ctx, h.key)
	if errors.Is(err, ErrNoSnapshot) {
		return nil
	}
	if err != nil {
		return err
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		h.logger.Warn("discarding unreadable session snapshot", zap.String("session", h.key), zap.Error(err))
		return nil
	}

	h.mu.Lock()
	h.current = &user
	h.mu.Unlock()
	return nil
}

// Manager opens holders over a shared store.
type Manager struct {
	store  SnapshotStore
	logger *zap.Logger
}

// NewManager builds a manager.
func NewManager(store SnapshotStore, logger *zap.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Start logs user into a fresh session and returns its holder.
func (m *Manager) Start(ctx context.Context, user *domain.User) (*Holder, error) {
	holder := NewHolder(m.store, uuid.NewString(), m.logger)
	if err := holder.Login(ctx, user); err != nil {
		return nil, err
	}
	return holder, nil
}

// Open restores the holder stored under key.
func (m *Manager) Open(ctx context.Context, key string) (*Holder, error) {
	holder := NewHolder(m.store, key, m.logger)
	if err := holder.Restore(ctx); err != nil {
		return nil, err
	}
	return holder, nil
}
