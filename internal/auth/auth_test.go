package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/elskow/gatehouse/internal/config"
)

const testExpiryDays = 30

// testClock is a settable clock shared by the service, lifecycle and tokens.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		UserJWTSecret:  "test-user-secret",
		AdminJWTSecret: "test-admin-secret",
		UserTokenTTL:   24 * time.Hour,
		AdminTokenTTL:  8 * time.Hour,
		BcryptCost:     bcrypt.MinCost,
	}
}

type testEnv struct {
	svc       *Service
	repo      *mockRepository
	clock     *testClock
	lifecycle *Lifecycle
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newMockRepository()
	clock := newTestClock()
	log := newTestLogger(t)

	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	lifecycle := NewLifecycle(repo, log, metrics, clock.Now, testExpiryDays)
	svc := NewService(newTestConfig(), log, repo, lifecycle, metrics, clock.Now)
	require.NoError(t, svc.Seed(context.Background(), &config.SeedConfig{
		AdminUsername:     "admin",
		AdminPassword:     "admin123",
		DefaultExpiryDays: testExpiryDays,
	}))

	return &testEnv{svc: svc, repo: repo, clock: clock, lifecycle: lifecycle}
}

func newTestService(t *testing.T) *Service {
	return newTestEnv(t).svc
}

// registerApproved registers username and approves it at the current clock.
func (e *testEnv) registerApproved(t *testing.T, username, password string) *User {
	t.Helper()
	ctx := context.Background()

	user, err := e.svc.RegisterUser(ctx, username, password)
	require.NoError(t, err)
	approved, err := e.svc.ApproveUser(ctx, user.ID)
	require.NoError(t, err)
	return approved
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, err := e.svc.ValidateAdminLogin(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	return token
}
