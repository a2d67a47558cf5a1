package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NIN31/hdattendance/utils"
)

// AdminSession is the capability handed to admin handlers once the session
// cookie has been verified.
type AdminSession struct {
	ID        string
	Username  string
	ExpiresAt time.Time
}

// AdminAuthConfig holds the fixed credential pair and token settings.
type AdminAuthConfig struct {
	Username     string
	Password     string
	PasswordHash string
	Secret       string
	TTL          time.Duration
}

// AdminAuth issues and verifies admin sessions. Revoked sessions and
// restriction resets are tracked in flag stores keyed by session id.
type AdminAuth struct {
	username     string
	passwordHash string
	secret       string
	ttl          time.Duration

	revoked *utils.FlagStore
	resets  *utils.FlagStore
}

// NewAdminAuth resolves the password hash once at startup.
func NewAdminAuth(cfg AdminAuthConfig, revoked, resets *utils.FlagStore) (*AdminAuth, error) {
	if cfg.Username == "" {
		return nil, fmt.Errorf("admin username is not configured")
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is not configured")
	}
	hash, err := utils.ResolvePasswordHash(cfg.Password, cfg.PasswordHash)
	if err != nil {
		return nil, err
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AdminAuth{
		username:     cfg.Username,
		passwordHash: hash,
		secret:       cfg.Secret,
		ttl:          ttl,
		revoked:      revoked,
		resets:       resets,
	}, nil
}

// TTL is the lifetime of a fresh session.
func (a *AdminAuth) TTL() time.Duration {
	return a.ttl
}

// Login checks the credential pair and opens a new session.
func (a *AdminAuth) Login(username, password string) (string, *AdminSession, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := utils.CheckPassword(a.passwordHash, password)
	if !userOK || !passOK {
		utils.Logger.Info("admin login rejected", zap.String("username", username))
		return "", nil, ErrInvalidCredentials
	}

	sid := uuid.NewString()
	token, expiresAt, err := utils.GenerateAdminToken(a.secret, sid, a.username, a.ttl)
	if err != nil {
		return "", nil, fmt.Errorf("issue admin token: %w", err)
	}
	utils.Logger.Info("admin login", zap.String("session_id", sid))
	return token, &AdminSession{ID: sid, Username: a.username, ExpiresAt: expiresAt}, nil
}

// Authenticate verifies a session token and rejects revoked sessions.
func (a *AdminAuth) Authenticate(ctx context.Context, token string) (*AdminSession, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}
	claims, err := utils.ParseAdminToken(a.secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}
	if claims.Username != a.username {
		return nil, ErrSessionInvalid
	}
	if a.revoked.IsSet(ctx, claims.SessionID) {
		return nil, ErrSessionInvalid
	}
	s := &AdminSession{ID: claims.SessionID, Username: claims.Username}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Logout revokes the session for the rest of its lifetime and drops any pending reset.
func (a *AdminAuth) Logout(ctx context.Context, s *AdminSession) {
	if s == nil {
		return
	}
	a.revoked.Set(ctx, s.ID, time.Until(s.ExpiresAt))
	a.resets.Clear(ctx, s.ID)
	utils.Logger.Info("admin logout", zap.String("session_id", s.ID))
}

// SetRestrictionReset arms a one-shot cooldown bypass for the next sign-in
// submitted with this session.
func (a *AdminAuth) SetRestrictionReset(ctx context.Context, s *AdminSession) {
	if s == nil {
		return
	}
	a.resets.Set(ctx, s.ID, time.Until(s.ExpiresAt))
}

// PeekRestrictionReset reports whether a bypass is armed without consuming it.
func (a *AdminAuth) PeekRestrictionReset(ctx context.Context, s *AdminSession) bool {
	if s == nil {
		return false
	}
	return a.resets.IsSet(ctx, s.ID)
}

// ClearRestrictionReset consumes the bypass.
func (a *AdminAuth) ClearRestrictionReset(ctx context.Context, s *AdminSession) bool {
	if s == nil {
		return false
	}
	return a.resets.Clear(ctx, s.ID)
}
