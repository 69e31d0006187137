package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/charsheets/internal/dependencies/clock"
	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidSession      = errors.New("invalid or expired session")
	ErrMasterLoginRequired = errors.New("the master identity must log in with a password")
	ErrInvalidUsername     = errors.New("username must not be empty")
	ErrPasswordRequired    = errors.New("the master identity requires a password")
)

// Session represents an authenticated session
type Session struct {
	ID         string // token id (jti)
	Token      string
	IdentityID model.IdentityID
	Identity   model.Identity
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Service handles identity selection, master login and session tokens
type Service struct {
	storage storage.Storage
	clock   clock.Clock

	secret          []byte
	sessionDuration time.Duration
	bcryptCost      int

	// revoked maps logged-out token ids to their expiry
	mu      sync.RWMutex
	revoked map[string]time.Time
}

// Config holds configuration for the auth service
type Config struct {
	// Secret signs session tokens. A random one is generated when empty,
	// which invalidates sessions on every restart.
	Secret          []byte
	SessionDuration time.Duration
	BcryptCost      int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
		BcryptCost:      bcrypt.DefaultCost,
	}
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, cfg Config) *Service {
	defaults := DefaultConfig()
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = defaults.SessionDuration
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaults.BcryptCost
	}
	if len(cfg.Secret) == 0 {
		cfg.Secret = make([]byte, 32)
		_, _ = rand.Read(cfg.Secret)
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		secret:          cfg.Secret,
		sessionDuration: cfg.SessionDuration,
		bcryptCost:      cfg.BcryptCost,
		revoked:         make(map[string]time.Time),
	}
}

// SessionDuration is how long a new session stays valid
func (s *Service) SessionDuration() time.Duration {
	return s.sessionDuration
}

// ListIdentities returns every identity, for the choose-identity page
func (s *Service) ListIdentities(ctx context.Context) ([]*model.Identity, error) {
	return s.storage.ListIdentities(ctx)
}

// CreateIdentity registers a new identity. Players may have no password;
// the master must have one.
func (s *Service) CreateIdentity(ctx context.Context, username, password string, isMaster bool) (*model.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidUsername
	}
	if isMaster && password == "" {
		return nil, ErrPasswordRequired
	}

	identity := &model.Identity{
		Username:  username,
		IsMaster:  isMaster,
		CreatedAt: s.clock.Now(),
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
		if err != nil {
			return nil, err
		}
		identity.PasswordHash = string(hash)
	}

	id, err := s.storage.SaveIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	identity.ID = id
	return identity, nil
}

// SelectIdentity starts a session for a player identity chosen from the list.
// The master cannot be selected this way.
func (s *Service) SelectIdentity(ctx context.Context, id model.IdentityID) (*Session, error) {
	identity, err := s.storage.GetIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	if identity.IsMaster {
		return nil, ErrMasterLoginRequired
	}
	return s.createSession(identity)
}

// MasterLogin checks password against the master identity and starts a session
func (s *Service) MasterLogin(ctx context.Context, password string) (*Session, error) {
	master, err := s.storage.GetMasterIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(master.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.createSession(master)
}

// ValidateSession checks a session token and resolves its identity
func (s *Service) ValidateSession(ctx context.Context, token string) (*Session, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidSession
	}

	s.mu.RLock()
	_, revoked := s.revoked[claims.ID]
	s.mu.RUnlock()
	if revoked {
		return nil, ErrInvalidSession
	}

	rawID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidSession
	}
	identity, err := s.storage.GetIdentity(ctx, model.IdentityID(rawID))
	if err != nil {
		if errors.Is(err, model.ErrIdentityNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	session := &Session{
		ID:         claims.ID,
		Token:      token,
		IdentityID: identity.ID,
		Identity:   *identity,
	}
	if claims.IssuedAt != nil {
		session.CreatedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// InvalidateSession revokes a token until it would have expired anyway
func (s *Service) InvalidateSession(token string) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || claims.ID == "" {
		return
	}

	expiresAt := s.clock.Now().Add(s.sessionDuration)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	s.mu.Lock()
	s.revoked[claims.ID] = expiresAt
	s.mu.Unlock()
}

// CleanExpiredSessions forgets revocations for tokens that have expired (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, expiresAt := range s.revoked {
		if now.After(expiresAt) {
			delete(s.revoked, id)
		}
	}
}

// createSession mints a signed token for an identity
func (s *Service) createSession(identity *model.Identity) (*Session, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.sessionDuration)
	id := uuid.NewString()

	claims := jwt.RegisteredClaims{
		ID:        id,
		Subject:   strconv.FormatInt(int64(identity.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	return &Session{
		ID:         id,
		Token:      token,
		IdentityID: identity.ID,
		Identity:   *identity,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}, nil
}

func (s *Service) keyFunc(*jwt.Token) (any, error) {
	return s.secret, nil
}
