package availability

import (
	"context"
	"fmt"

	"github.com/spring2life/telehealth-portal/internal/profiles"
	"github.com/spring2life/telehealth-portal/pkg/logging"
)

// Service validates and persists provider weekly availability.
type Service struct {
	repo     Repository
	profiles profiles.Repository
	logger   *logging.Logger
}

// NewService constructs an availability service.
func NewService(repo Repository, profileRepo profiles.Repository, logger *logging.Logger) *Service {
	if repo == nil {
		panic("availability: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, profiles: profileRepo, logger: logger}
}

// Get returns the provider's current weekly slots.
func (s *Service) Get(ctx context.Context, providerID string) ([]Slot, error) {
	if err := s.requireProvider(ctx, providerID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, providerID)
}

// Replace validates and atomically replaces the provider's weekly slots.
// Replacing with an identical set is a no-op from the caller's perspective.
func (s *Service) Replace(ctx context.Context, providerID string, slots []Slot) error {
	if err := s.requireProvider(ctx, providerID); err != nil {
		return err
	}
	if err := Validate(slots); err != nil {
		return err
	}
	if err := s.repo.Replace(ctx, providerID, slots); err != nil {
		return err
	}
	s.logger.Info("availability replaced", "provider_id", providerID, "slots", len(slots))
	return nil
}

func (s *Service) requireProvider(ctx context.Context, providerID string) error {
	if s.profiles == nil {
		return nil
	}
	profile, err := s.profiles.GetByID(ctx, providerID)
	if err != nil {
		return err
	}
	if !profile.IsProvider() {
		return fmt.Errorf("%w: %s is not a provider", profiles.ErrProfileNotFound, providerID)
	}
	return nil
}
