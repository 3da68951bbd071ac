package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-notify-nosql/internal/application/audit"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/pkg/id"
	"github.com/go-notify-nosql/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldEmail        = "email"
	fieldDisplayName  = "display_name"
	fieldRole         = "role"
	fieldPasswordHash = "password_hash"
)

const defaultPageSize = 20

type Service interface {
	Create(ctx context.Context, actorID string, req domain.CreateUserRequest) (*domain.User, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, actorID, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, actorID, userID string) error
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

type sessionStore interface {
	DisableByUser(ctx context.Context, userID string) error
}

type service struct {
	repo        userStore
	sessionRepo sessionStore
	audit       audit.Recorder
}

type ServiceDeps struct {
	UserRepo    userStore
	SessionRepo sessionStore
	Audit       audit.Recorder
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:        deps.UserRepo,
		sessionRepo: deps.SessionRepo,
		audit:       deps.Audit,
	}
}

func (s *service) Create(ctx context.Context, actorID string, req domain.CreateUserRequest) (*domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = trimmed(req.Email)
	req.DisplayName = trimmed(req.DisplayName)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, domain.Conflict("Username already taken.")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		Role:         role,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Conflict("Username already taken.")
		}
		return nil, err
	}
	s.audit.Record(ctx, actorID, domain.AuditCreate, domain.EntityUser, u.UserID, map[string]interface{}{"username": u.Username})
	return u, nil
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 || limit > 100 {
		limit = defaultPageSize
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !u.Enable) {
		return nil, domain.NotFound("User not found")
	}
	return u, err
}

func (s *service) Update(ctx context.Context, actorID, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	req.Email = trimmed(req.Email)
	req.DisplayName = trimmed(req.DisplayName)
	if req.Role != nil {
		r := strings.TrimSpace(*req.Role)
		req.Role = &r
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		updates[fieldEmail] = *req.Email
		u.Email = req.Email
	}
	if req.DisplayName != nil {
		updates[fieldDisplayName] = *req.DisplayName
		u.DisplayName = req.DisplayName
	}
	if req.Role != nil {
		updates[fieldRole] = *req.Role
		u.Role = *req.Role
	}
	if req.NewPassword != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updates[fieldPasswordHash] = string(hash)
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actorID, domain.AuditUpdate, domain.EntityUser, userID, map[string]interface{}{"username": u.Username})
	return u, nil
}

// Delete disables the account and all of its sessions.
func (s *service) Delete(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return domain.Validation("You cannot delete your own account.")
	}
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return err
	}
	if err := s.sessionRepo.DisableByUser(ctx, userID); err != nil {
		return err
	}
	s.audit.Record(ctx, actorID, domain.AuditDelete, domain.EntityUser, userID, nil)
	return nil
}

// trimmed returns nil for blank strings so optional fields are not stored empty.
func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

// EnsureAdmin creates the bootstrap admin account. An existing account with
// the same username is left untouched.
func EnsureAdmin(ctx context.Context, svc Service, username, password string) (created bool, err error) {
	_, err = svc.Create(ctx, "", domain.CreateUserRequest{Username: username, Password: password, Role: domain.RoleAdmin})
	if errors.Is(err, domain.ErrConflict) {
		return false, nil
	}
	return err == nil, err
}
