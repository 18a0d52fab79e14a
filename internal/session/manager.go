// Package session is the process-wide session context: registration,
// sign-in and sign-out, token resolution and session lifecycle events.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrTokenRevoked       = errors.New("token revoked")
)

// UserStore is the users table
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenCache remembers revoked tokens and caches role lookups
type TokenCache interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	CacheRole(ctx context.Context, userID uuid.UUID, role string, ttl time.Duration) error
	GetCachedRole(ctx context.Context, userID uuid.UUID) (string, bool, error)
}

// EventType names a session lifecycle event
type EventType string

// Session lifecycle events
const (
	EventRegistered EventType = "registered"
	EventSignedIn   EventType = "signed_in"
	EventSignedOut  EventType = "signed_out"
)

// Event is delivered to listeners on every session lifecycle change
type Event struct {
	Type      EventType
	Principal models.Principal
	At        time.Time
}

// Listener receives session events. It runs on the caller's goroutine and
// must not block.
type Listener func(Event)

// Manager owns every session of the process
type Manager struct {
	users        UserStore
	cache        TokenCache
	tokens       *TokenIssuer
	roleCacheTTL time.Duration
	logger       *zap.Logger

	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
}

// NewManager creates a session manager
func NewManager(users UserStore, cache TokenCache, tokens *TokenIssuer, roleCacheTTL time.Duration) *Manager {
	return &Manager{
		users:        users,
		cache:        cache,
		tokens:       tokens,
		roleCacheTTL: roleCacheTTL,
		logger:       util.GetLogger(),
		listeners:    make(map[int]Listener),
	}
}

// Subscribe registers a listener and returns the function that removes it
func (m *Manager) Subscribe(l Listener) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) emit(t EventType, p models.Principal) {
	m.mu.RLock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.RUnlock()

	e := Event{Type: t, Principal: p, At: time.Now()}
	for _, l := range listeners {
		l(e)
	}
}

// Register creates a customer account
func (m *Manager) Register(ctx context.Context, email, password, fullName string) (*models.User, error) {
	return m.create(ctx, email, password, fullName, models.RoleCustomer)
}

// CreateAdmin creates an admin account
func (m *Manager) CreateAdmin(ctx context.Context, email, password, fullName string) (*models.User, error) {
	return m.create(ctx, email, password, fullName, models.RoleAdmin)
}

func (m *Manager) create(ctx context.Context, email, password, fullName, role string) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "Manager.Register")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(fullName),
		Role:         role,
	}
	if err := m.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	m.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", role))
	m.emit(EventRegistered, principalOf(user, ""))
	return user, nil
}

// SignIn checks credentials and issues a session token
func (m *Manager) SignIn(ctx context.Context, email, password string) (string, *models.Principal, error) {
	ctx, span := util.StartSpan(ctx, "Manager.SignIn")
	defer span.End()

	user, err := m.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	signed, claims, err := m.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}

	m.rememberRole(ctx, user.ID, user.Role)

	p := principalOf(user, claims.Id)
	m.logger.Info("User signed in", zap.String("user_id", user.ID.String()))
	m.emit(EventSignedIn, p)
	return signed, &p, nil
}

// SignOut revokes a token for the rest of its lifetime
func (m *Manager) SignOut(ctx context.Context, token string) error {
	ctx, span := util.StartSpan(ctx, "Manager.SignOut")
	defer span.End()

	p, err := m.Resolve(ctx, token)
	if err != nil {
		return err
	}

	claims, err := m.tokens.Parse(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	if err := m.cache.RevokeToken(ctx, claims.Id, m.tokens.remaining(claims)); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	m.logger.Info("User signed out", zap.String("user_id", p.UserID.String()))
	m.emit(EventSignedOut, *p)
	return nil
}

// Resolve turns a token into the principal it belongs to, with the role
// read from the cache or, on a miss, from the users table.
func (m *Manager) Resolve(ctx context.Context, token string) (*models.Principal, error) {
	ctx, span := util.StartSpan(ctx, "Manager.Resolve")
	defer span.End()

	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := m.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	revoked, err := m.cache.IsTokenRevoked(ctx, claims.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to check token: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrUnauthenticated)
	}

	role, err := m.role(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.Principal{
		UserID:   userID,
		Email:    claims.Email,
		FullName: claims.FullName,
		Role:     role,
		TokenID:  claims.Id,
	}, nil
}

func (m *Manager) role(ctx context.Context, userID uuid.UUID) (string, error) {
	role, ok, err := m.cache.GetCachedRole(ctx, userID)
	if err != nil {
		m.logger.Warn("Role cache unavailable", zap.Error(err))
	}
	if ok {
		return role, nil
	}

	user, err := m.users.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("%w: unknown user", ErrUnauthenticated)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up role: %w", err)
	}

	m.rememberRole(ctx, userID, user.Role)
	return user.Role, nil
}

func (m *Manager) rememberRole(ctx context.Context, userID uuid.UUID, role string) {
	if err := m.cache.CacheRole(ctx, userID, role, m.roleCacheTTL); err != nil {
		m.logger.Warn("Failed to cache role", zap.Error(err))
	}
}

func principalOf(u *models.User, tokenID string) models.Principal {
	return models.Principal{
		UserID:   u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		TokenID:  tokenID,
	}
}
