package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/elskow/gatehouse/internal/config"
)

type Service struct {
	config     *config.AuthConfig
	log        *zap.Logger
	repository Repository
	hasher     *Hasher
	tokens     *Tokens
	lifecycle  *Lifecycle
	metrics    *Metrics
	now        func() time.Time
	userRealm  Realm
	adminRealm Realm
}

func NewService(
	config *config.AuthConfig,
	log *zap.Logger,
	repo Repository,
	lifecycle *Lifecycle,
	metrics *Metrics,
	now func() time.Time,
) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		config:     config,
		log:        log,
		repository: repo,
		hasher:     NewHasher(config.BcryptCost),
		tokens:     NewTokens(now),
		lifecycle:  lifecycle,
		metrics:    metrics,
		now:        now,
		userRealm: Realm{
			Name:   RealmUser,
			Secret: []byte(config.UserJWTSecret),
			TTL:    config.UserTokenTTL,
		},
		adminRealm: Realm{
			Name:   RealmAdmin,
			Secret: []byte(config.AdminJWTSecret),
			TTL:    config.AdminTokenTTL,
		},
	}
}

type LoginResult struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

func (s *Service) RegisterUser(ctx context.Context, username, password string) (*User, error) {
	if _, err := s.repository.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Username:         username,
		PasswordHash:     hashedPassword,
		Status:           StatusPending,
		RegistrationDate: s.now().UTC(),
	}
	if err := s.repository.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.metrics.registered()
	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", username))
	return user, nil
}

func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	_, err := s.repository.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, ErrUserNotFound):
		return true, nil
	default:
		return false, err
	}
}

// ValidateLogin checks credentials and account state, then issues a user
// token that replaces any previously active session.
func (s *Service) ValidateLogin(ctx context.Context, username, password, ip string) (*LoginResult, error) {
	user, err := s.repository.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.Hash("dummy") // Prevent timing attacks
			s.metrics.login(RealmUser, "invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.login(RealmUser, "invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	switch user.Status {
	case StatusPending:
		s.metrics.login(RealmUser, "pending")
		return nil, ErrAccountPending
	case StatusDeactivated:
		s.metrics.login(RealmUser, "deactivated")
		return nil, ErrAccountDeactivated
	}

	expired, err := s.lifecycle.EnforceExpiry(ctx, user)
	if err != nil {
		return nil, err
	}
	if expired {
		s.metrics.login(RealmUser, "expired")
		return nil, ErrAccountExpired
	}

	token, expiresAt, err := s.tokens.Issue(s.userRealm, user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	// Overwriting the session pointer is what logs out any older token.
	if err := s.repository.UpdateUser(ctx, user.ID, UserUpdate{
		ActiveSessionToken: &token,
		LastLoginIP:        &ip,
	}); err != nil {
		return nil, err
	}

	s.metrics.login(RealmUser, "success")
	s.log.Info("user logged in", zap.Uint("user_id", user.ID), zap.String("ip", ip))
	return &LoginResult{Token: token, Username: user.Username, ExpiresAt: expiresAt}, nil
}

// Logout drops the session pointer if token is still the active one.
func (s *Service) Logout(ctx context.Context, user *User, token string) error {
	return s.repository.ClearSession(ctx, user.ID, token)
}

// AuthenticateUser is the per-request user gate. It verifies the token in
// the user realm, requires it to be the user's active session, requires the
// approved status and lazily expires accounts whose expiry date has passed.
func (s *Service) AuthenticateUser(ctx context.Context, token string) (*User, error) {
	if token == "" {
		s.metrics.rejected(RealmUser, "missing_token")
		return nil, ErrTokenRequired
	}

	claims, err := s.tokens.Verify(s.userRealm, token)
	if err != nil {
		s.metrics.rejected(RealmUser, "invalid_token")
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	id := claims.SubjectID()

	user, err := s.repository.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.metrics.rejected(RealmUser, "unknown_subject")
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}

	if user.ActiveSessionToken == nil || *user.ActiveSessionToken != token {
		s.metrics.rejected(RealmUser, "superseded")
		return nil, ErrSessionSuperseded
	}
	if user.Status != StatusApproved {
		s.metrics.rejected(RealmUser, "not_approved")
		return nil, ErrSessionSuperseded
	}

	expired, err := s.lifecycle.EnforceExpiry(ctx, user)
	if err != nil {
		return nil, err
	}
	if expired {
		s.metrics.rejected(RealmUser, "expired")
		return nil, ErrGateAccountExpired
	}

	return user, nil
}

func (s *Service) ValidateAdminLogin(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		s.metrics.login(RealmAdmin, "invalid_credentials")
		return "", ErrInvalidAdminCredentials
	}

	admin, err := s.repository.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			s.hasher.Hash("dummy") // Prevent timing attacks
			s.metrics.login(RealmAdmin, "invalid_credentials")
			return "", ErrInvalidAdminCredentials
		}
		return "", err
	}

	if !s.hasher.Verify(password, admin.PasswordHash) {
		s.metrics.login(RealmAdmin, "invalid_credentials")
		return "", ErrInvalidAdminCredentials
	}

	token, _, err := s.tokens.Issue(s.adminRealm, admin.ID, admin.Username)
	if err != nil {
		return "", fmt.Errorf("issue admin token: %w", err)
	}

	s.metrics.login(RealmAdmin, "success")
	s.log.Info("admin logged in", zap.Uint("admin_id", admin.ID))
	return token, nil
}

// AuthenticateAdmin is the per-request admin gate: a valid admin-realm token
// whose subject still exists.
func (s *Service) AuthenticateAdmin(ctx context.Context, token string) (*Admin, error) {
	if token == "" {
		s.metrics.rejected(RealmAdmin, "missing_token")
		return nil, ErrAdminTokenRequired
	}

	claims, err := s.tokens.Verify(s.adminRealm, token)
	if err != nil {
		s.metrics.rejected(RealmAdmin, "invalid_token")
		return nil, fmt.Errorf("%w: %w", ErrInvalidAdminToken, err)
	}
	id := claims.SubjectID()

	admin, err := s.repository.GetAdminByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			s.metrics.rejected(RealmAdmin, "unknown_subject")
			return nil, ErrUnknownAdmin
		}
		return nil, err
	}
	return admin, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repository.ListUsers(ctx)
}

func (s *Service) ApproveUser(ctx context.Context, id uint) (*User, error) {
	return s.lifecycle.Approve(ctx, id)
}

func (s *Service) DeactivateUser(ctx context.Context, id uint) (*User, error) {
	return s.lifecycle.Deactivate(ctx, id)
}

func (s *Service) ReactivateUser(ctx context.Context, id uint) (*User, error) {
	return s.lifecycle.Reactivate(ctx, id)
}

func (s *Service) ExpiryDays(ctx context.Context) (int, error) {
	return s.lifecycle.ExpiryDays(ctx)
}

func (s *Service) SetExpiryDays(ctx context.Context, days int) error {
	_, err := s.lifecycle.SetExpiryDays(ctx, days)
	return err
}

func (s *Service) ListAdmins(ctx context.Context) ([]Admin, error) {
	return s.repository.ListAdmins(ctx)
}

func (s *Service) CreateAdmin(ctx context.Context, username, password string) (*Admin, error) {
	if _, err := s.repository.GetAdminByUsername(ctx, username); err == nil {
		return nil, ErrAdminExists
	} else if !errors.Is(err, ErrAdminNotFound) {
		return nil, err
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := &Admin{Username: username, PasswordHash: hashedPassword}
	if err := s.repository.CreateAdmin(ctx, admin); err != nil {
		return nil, err
	}

	s.log.Info("admin created", zap.Uint("admin_id", admin.ID), zap.String("username", username))
	return admin, nil
}

// DeleteAdmin removes admin id. Callers cannot delete themselves, which keeps
// at least one admin in place.
func (s *Service) DeleteAdmin(ctx context.Context, caller *Admin, id uint) error {
	target, err := s.repository.GetAdminByID(ctx, id)
	if err != nil {
		return err
	}
	if target.ID == caller.ID {
		return ErrSelfDelete
	}

	if err := s.repository.DeleteAdmin(ctx, id); err != nil {
		return err
	}

	s.log.Info("admin deleted",
		zap.Uint("admin_id", target.ID),
		zap.Uint("deleted_by", caller.ID))
	return nil
}
