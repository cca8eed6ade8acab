package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/elskow/gatehouse/internal/config"
)

// Seed creates the first admin when none exists and makes sure the expiry
// setting row is present. It is safe to run on every start.
func (s *Service) Seed(ctx context.Context, seed *config.SeedConfig) error {
	n, err := s.repository.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.CreateAdmin(ctx, seed.AdminUsername, seed.AdminPassword); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		s.log.Warn("seeded default admin account",
			zap.String("username", seed.AdminUsername))
	}

	if err := s.repository.EnsureSetting(ctx, SettingUserExpiryDays, seed.DefaultExpiryDays); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}
