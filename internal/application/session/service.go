package session

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/pkg/id"
	pkgtoken "github.com/go-notify-nosql/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgBadCredentials = "Invalid username or password."
	msgDisabled       = "Account disabled."
	msgSessionExpired = "Session expired."
	msgBadRefresh     = "Invalid or expired refresh token."
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Bearer       string          `json:"bearer"`
	RefreshToken string          `json:"refreshToken"`
	Session      *domain.Session `json:"session"`
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
	// List returns the caller's sessions, newest first.
	List(ctx context.Context, userID string) ([]domain.Session, error)
	// Revoke signs out one of userID's sessions.
	Revoke(ctx context.Context, userID, sessionID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Session, error)
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
	GetByRefreshDigest(ctx context.Context, digest string) (*domain.Session, error)
	RotateRefreshDigest(ctx context.Context, sessionID, oldDigest, newDigest string, expiresAt int64) error
}

type signer interface {
	Sign(userID, role, sessionID string) (string, error)
}

type ServiceDeps struct {
	UserRepo        userStore
	SessionRepo     sessionStore
	JWTProvider     signer
	RefreshTokenDur time.Duration
	Now             func() time.Time
}

type service struct {
	ServiceDeps
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{ServiceDeps: deps}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.UserRepo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthorized(msgBadCredentials)
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.Unauthorized(msgBadCredentials)
	}
	if !u.Enable {
		return nil, domain.Forbidden(msgDisabled)
	}

	refreshToken, digest, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.At(now),
		UserID:           u.UserID,
		Enable:           true,
		RefreshDigest:    digest,
		RefreshExpiresAt: now.Add(s.RefreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.SessionRepo.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.JWTProvider.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return &LoginResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.SessionRepo.Update(ctx, sessionID, map[string]interface{}{"enable": false})
}

func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.SessionRepo.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthorized(msgSessionExpired)
	}
	if err != nil {
		return nil, err
	}
	if !sess.Enable {
		return nil, domain.Unauthorized(msgSessionExpired)
	}
	u, err := s.UserRepo.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return sess, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if refreshToken == "" {
		return "", "", domain.Unauthorized(msgBadRefresh)
	}
	oldDigest := pkgtoken.Digest(refreshToken)
	sess, err := s.SessionRepo.GetByRefreshDigest(ctx, oldDigest)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnauthorized) {
		return "", "", domain.Unauthorized(msgBadRefresh)
	}
	if err != nil {
		return "", "", err
	}
	now := s.Now()
	if sess.RefreshExpiresAt < now.Unix() {
		return "", "", domain.Unauthorized(msgBadRefresh)
	}
	u, err := s.UserRepo.Get(ctx, sess.UserID)
	if err != nil {
		return "", "", err
	}
	if !u.Enable {
		return "", "", domain.Forbidden(msgDisabled)
	}

	newToken, newDigest, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	err = s.SessionRepo.RotateRefreshDigest(ctx, sess.SessionID, oldDigest, newDigest, now.Add(s.RefreshTokenDur).Unix())
	if errors.Is(err, domain.ErrClaimLost) {
		return "", "", domain.Unauthorized(msgBadRefresh)
	}
	if err != nil {
		return "", "", err
	}
	bearer, err := s.JWTProvider.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return "", "", err
	}
	return bearer, newToken, nil
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Session, error) {
	sessions, err := s.SessionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })
	return sessions, nil
}

func (s *service) Revoke(ctx context.Context, userID, sessionID string) error {
	sess, err := s.SessionRepo.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && sess.UserID != userID) {
		return domain.NotFound("Session not found.")
	}
	if err != nil {
		return err
	}
	if !sess.Enable {
		return nil
	}
	return s.Logout(ctx, sessionID)
}
