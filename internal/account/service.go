package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

type Service struct {
	repo   ledger.Repository
	logger *slog.Logger
}

func NewService(repo ledger.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{repo: repo, logger: logger}
}

// Register returns the account for id, creating it with zero credits and the
// user role on first sight.
func (s *Service) Register(ctx context.Context, id, displayName string) (*ledger.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("account id is required: %w", ledger.ErrInvalidInput)
	}

	if a, err := s.repo.GetAccount(ctx, id); err == nil {
		return a, nil
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return nil, fmt.Errorf("getting account: %w", err)
	}

	a := &ledger.Account{
		ID:          id,
		DisplayName: strings.TrimSpace(displayName),
		Role:        ledger.RoleUser,
	}

	if err := s.repo.CreateAccount(ctx, a); err != nil {
		// Lost a race with a concurrent registration for the same id.
		if errors.Is(err, ledger.ErrAlreadyExists) {
			return s.Get(ctx, id)
		}

		return nil, fmt.Errorf("creating account: %w", err)
	}

	s.logger.Info("account registered", "account_id", id)

	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (*ledger.Account, error) {
	a, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("account %s: %w", id, ledger.ErrAccountNotFound)
		}

		return nil, fmt.Errorf("getting account: %w", err)
	}

	return a, nil
}

func (s *Service) SetRole(ctx context.Context, id string, role ledger.Role) error {
	role, err := ledger.ParseRole(string(role))
	if err != nil {
		return err
	}

	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return fmt.Errorf("account %s: %w", id, ledger.ErrAccountNotFound)
		}

		return fmt.Errorf("updating role: %w", err)
	}

	s.logger.Info("account role changed", "account_id", id, "role", role)

	return nil
}

// IsAdmin reports whether id holds the admin role. Unknown accounts are not admins.
func (s *Service) IsAdmin(ctx context.Context, id string) (bool, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return false, nil
		}

		return false, err
	}

	return a.Role == ledger.RoleAdmin, nil
}
