package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-kpi/internal/core/ports"
)

// AuthorizationService implements the business logic for RBAC.
type AuthorizationService struct {
	authRepo ports.AuthorizationRepository
}

// Ensure implementation matches the interface.
var _ ports.AuthorizationService = (*AuthorizationService)(nil)

// NewAuthorizationService creates a new service for authorization logic.
func NewAuthorizationService(authRepo ports.AuthorizationRepository) ports.AuthorizationService {
	return &AuthorizationService{
		authRepo: authRepo,
	}
}

// Can checks if a user has a specific permission.
func (s *AuthorizationService) Can(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	permissions, err := s.GetPermissions(ctx, userID)
	if err != nil {
		// Deny when permissions cannot be loaded.
		return false, err
	}
	return slices.Contains(permissions, permission), nil
}

// GetPermissions returns all permissions for a user.
func (s *AuthorizationService) GetPermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	permissions, err := s.authRepo.GetUserPermissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}
	if permissions == nil {
		return []string{}, nil
	}
	return permissions, nil
}

// CanViewProject reports whether the user belongs to the project.
func (s *AuthorizationService) CanViewProject(ctx context.Context, userID, projectID uuid.UUID) (bool, error) {
	member, err := s.authRepo.IsProjectMember(ctx, userID, projectID)
	if err != nil {
		return false, fmt.Errorf("failed to check project membership: %w", err)
	}
	return member, nil
}
