package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskdesk-api/internal/apperr"
	"taskdesk-api/internal/auth"
	"taskdesk-api/internal/denylist"
	"taskdesk-api/internal/models"
	"taskdesk-api/internal/store"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type UserService struct {
	users  store.UserStore
	tokens *auth.Issuer
	denied *denylist.Denylist
	now    func() time.Time
}

func NewUserService(users store.UserStore, tokens *auth.Issuer, denied *denylist.Denylist) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		denied: denied,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Session is a signed token together with the user it was issued for.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name, err := requireText(in.Name, "Name")
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Invalid("Password must be at least 6 characters")
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, apperr.NewError(apperr.Internal, "server error", err)
	}

	now := s.now()
	u := &models.User{
		ID:        ulid.Make().String(),
		Name:      name,
		Email:     email,
		Password:  hash,
		Role:      models.RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, apperr.WrapStoreError("User", err)
	}
	return s.issue(u)
}

func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, apperr.WrapStoreError("User", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, invalidCredentials()
	}
	if !u.IsActive {
		return nil, apperr.NewError(apperr.Unauthenticated, "Account is deactivated", nil)
	}
	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		return nil, apperr.WrapStoreError("User", err)
	}
	now := s.now()
	u.LastLogin = &now
	return s.issue(u)
}

// Logout revokes the token described by claims until it would have expired.
func (s *UserService) Logout(claims *auth.Claims) {
	if claims == nil || claims.ExpiresAt == nil {
		return
	}
	s.denied.Revoke(claims.ID, claims.ExpiresAt.Time)
}

// Authenticate validates token and resolves the principal from the stored
// user, so role changes apply to tokens issued before them.
func (s *UserService) Authenticate(ctx context.Context, token string) (models.Principal, *auth.Claims, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return models.Principal{}, nil, apperr.NewError(apperr.Unauthenticated, "Invalid or expired token", err)
	}
	if s.denied.IsRevoked(claims.ID) {
		return models.Principal{}, nil, apperr.NewError(apperr.Unauthenticated, "Token has been revoked", nil)
	}
	u, err := s.users.Get(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Principal{}, nil, apperr.NewError(apperr.Unauthenticated, "User no longer exists", nil)
	}
	if err != nil {
		return models.Principal{}, nil, apperr.WrapStoreError("User", err)
	}
	if !u.IsActive {
		return models.Principal{}, nil, apperr.NewError(apperr.Unauthenticated, "Account is deactivated", nil)
	}
	return u.Principal(), claims, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, apperr.WrapStoreError("User", err)
	}
	return u, nil
}

func (s *UserService) Me(ctx context.Context, p models.Principal) (*models.User, error) {
	return s.Get(ctx, p.ID)
}

func (s *UserService) UpdateProfile(ctx context.Context, p models.Principal, name, email string) (*models.User, error) {
	name, err := requireText(name, "Name")
	if err != nil {
		return nil, err
	}
	email, err = normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateProfile(ctx, p.ID, name, email); err != nil {
		return nil, apperr.WrapStoreError("User", err)
	}
	return s.Get(ctx, p.ID)
}

func (s *UserService) ChangePassword(ctx context.Context, p models.Principal, current, next string) error {
	u, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(current)) != nil {
		return apperr.Invalid("Current password is incorrect")
	}
	if len(next) < minPasswordLength {
		return apperr.Invalid("Password must be at least 6 characters")
	}
	hash, err := HashPassword(next)
	if err != nil {
		return apperr.NewError(apperr.Internal, "server error", err)
	}
	if err := s.users.UpdatePassword(ctx, p.ID, hash); err != nil {
		return apperr.WrapStoreError("User", err)
	}
	return nil
}

// List returns every user. Admin only.
func (s *UserService) List(ctx context.Context, p models.Principal) ([]models.User, error) {
	return s.list(ctx, p, store.UserFilter{})
}

// Assignable lists the users of role an admin can pick from, excluding the
// admin. Tasks are assigned to users and queries to admins.
func (s *UserService) Assignable(ctx context.Context, p models.Principal, role models.Role) ([]models.User, error) {
	return s.list(ctx, p, store.UserFilter{Role: role, ExcludeID: p.ID})
}

func (s *UserService) list(ctx context.Context, p models.Principal, f store.UserFilter) ([]models.User, error) {
	if !p.IsAdmin() {
		return nil, apperr.Forbidden("Admin access required")
	}
	users, err := s.users.List(ctx, f)
	if err != nil {
		return nil, apperr.WrapStoreError("User", err)
	}
	return users, nil
}

// EnsureAdmin creates an admin account for email, or promotes the existing
// account. It reports whether a new account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, in RegisterInput) (*models.User, bool, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, false, err
	}
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			if err := s.users.UpdateRole(ctx, existing.ID, models.RoleAdmin); err != nil {
				return nil, false, apperr.WrapStoreError("User", err)
			}
			existing.Role = models.RoleAdmin
		}
		return existing, false, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, false, apperr.WrapStoreError("User", err)
	}

	sess, err := s.Register(ctx, in)
	if err != nil {
		return nil, false, err
	}
	if err := s.users.UpdateRole(ctx, sess.User.ID, models.RoleAdmin); err != nil {
		return nil, false, apperr.WrapStoreError("User", err)
	}
	sess.User.Role = models.RoleAdmin
	return sess.User, true, nil
}

func (s *UserService) issue(u *models.User) (*Session, error) {
	token, claims, err := s.tokens.GenerateToken(u)
	if err != nil {
		return nil, apperr.NewError(apperr.Internal, "server error", err)
	}
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperr.Invalid("Email is required")
	}
	if !strings.Contains(email, "@") {
		return "", apperr.Invalid("Invalid email address")
	}
	return email, nil
}

func invalidCredentials() error {
	return apperr.NewError(apperr.Unauthenticated, "Invalid credentials", nil)
}
