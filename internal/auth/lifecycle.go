package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/elskow/gatehouse/internal/config"
)

// Lifecycle drives user status transitions:
//
//	pending     -> approved     (approve)
//	approved    -> deactivated  (deactivate)
//	deactivated -> approved     (reactivate)
//	expired     -> approved     (reactivate)
//	approved    -> expired      (lazy, on observation)
//
// Approve and reactivate always renew: approval_date = now and
// expiry_date = now + user_expiry_days read at call time.
type Lifecycle struct {
	repo        Repository
	log         *zap.Logger
	metrics     *Metrics
	now         func() time.Time
	defaultDays int
}

func NewLifecycle(repo Repository, log *zap.Logger, metrics *Metrics, now func() time.Time, defaultDays int) *Lifecycle {
	if now == nil {
		now = time.Now
	}
	return &Lifecycle{
		repo:        repo,
		log:         log,
		metrics:     metrics,
		now:         now,
		defaultDays: defaultDays,
	}
}

// ExpiryDays reads the current expiry period from the settings record. A
// missing record falls back to the configured default.
func (l *Lifecycle) ExpiryDays(ctx context.Context) (int, error) {
	s, err := l.repo.GetSetting(ctx, SettingUserExpiryDays)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return l.defaultDays, nil
		}
		return 0, err
	}
	return s.Value, nil
}

// SetExpiryDays changes the period used by future approvals. Existing expiry
// dates are not touched.
func (l *Lifecycle) SetExpiryDays(ctx context.Context, days int) (*Setting, error) {
	if days < 1 || days > config.MaxExpiryDays {
		return nil, ErrInvalidExpiryDays
	}
	s, err := l.repo.PutSetting(ctx, SettingUserExpiryDays, days)
	if err != nil {
		return nil, err
	}
	l.log.Info("user expiry period changed",
		zap.Int("days", s.Value),
		zap.Int("version", s.Version))
	return s, nil
}

func (l *Lifecycle) Approve(ctx context.Context, id uint) (*User, error) {
	return l.renew(ctx, id)
}

func (l *Lifecycle) Reactivate(ctx context.Context, id uint) (*User, error) {
	return l.renew(ctx, id)
}

func (l *Lifecycle) renew(ctx context.Context, id uint) (*User, error) {
	user, err := l.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	days, err := l.ExpiryDays(ctx)
	if err != nil {
		return nil, err
	}

	now := l.now().UTC()
	expiry := now.AddDate(0, 0, days)
	status := StatusApproved
	update := UserUpdate{
		Status:       &status,
		ApprovalDate: &now,
		ExpiryDate:   &expiry,
	}
	if err := l.repo.UpdateUser(ctx, id, update); err != nil {
		return nil, err
	}

	from := user.Status
	update.apply(user)
	l.recordTransition(user.ID, from, StatusApproved, zap.Time("expiry_date", expiry))
	return user, nil
}

// Deactivate moves an approved user to deactivated. Any other state is left
// as is.
func (l *Lifecycle) Deactivate(ctx context.Context, id uint) (*User, error) {
	user, err := l.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Status != StatusApproved {
		l.log.Debug("deactivate ignored",
			zap.Uint("user_id", user.ID),
			zap.String("status", string(user.Status)))
		return user, nil
	}

	status := StatusDeactivated
	update := UserUpdate{Status: &status}
	if err := l.repo.UpdateUser(ctx, id, update); err != nil {
		return nil, err
	}

	update.apply(user)
	l.recordTransition(user.ID, StatusApproved, StatusDeactivated)
	return user, nil
}

// ExpiryMutation is the state change implied by an elapsed expiry date.
type ExpiryMutation struct {
	UserID uint
	From   UserStatus
	To     UserStatus
}

// EvaluateExpiry reports whether user has passed its expiry date at now, and
// the mutation that should be persisted if so. Users that are already
// expired report true with no mutation.
func EvaluateExpiry(user *User, now time.Time) (bool, *ExpiryMutation) {
	if user.Status == StatusExpired {
		return true, nil
	}
	if user.ExpiryDate == nil || !user.ExpiryDate.Before(now) {
		return false, nil
	}
	if user.Status != StatusApproved {
		return true, nil
	}
	return true, &ExpiryMutation{UserID: user.ID, From: StatusApproved, To: StatusExpired}
}

// EnforceExpiry evaluates user against the clock and persists the expired
// status when due. The in-memory user is updated to match. The stored record
// is only flipped while its own expiry date is still past, so a renewal that
// landed after user was read survives.
func (l *Lifecycle) EnforceExpiry(ctx context.Context, user *User) (bool, error) {
	now := l.now().UTC()
	expired, mutation := EvaluateExpiry(user, now)
	if mutation == nil {
		return expired, nil
	}

	changed, err := l.repo.ExpireUser(ctx, mutation.UserID, now)
	if err != nil {
		return true, fmt.Errorf("persist expiry: %w", err)
	}
	user.Status = mutation.To
	if changed {
		l.recordTransition(mutation.UserID, mutation.From, mutation.To, zap.Timep("expiry_date", user.ExpiryDate))
	}
	return true, nil
}

func (l *Lifecycle) recordTransition(id uint, from, to UserStatus, fields ...zap.Field) {
	l.metrics.transition(from, to)
	l.log.Info("user status changed",
		append([]zap.Field{
			zap.Uint("user_id", id),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		}, fields...)...)
}
