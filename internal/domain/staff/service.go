package staff

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/careboard/careboard/internal/platform/authz"
)

type Service struct {
	members Repository
}

func NewService(members Repository) *Service {
	return &Service{members: members}
}

func (s *Service) Create(ctx context.Context, m *Member) error {
	if m.Email == "" {
		return fmt.Errorf("email is required")
	}
	if m.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if !m.Role.Valid() {
		return fmt.Errorf("invalid role: %s", m.Role)
	}
	m.Active = true
	return s.members.Create(ctx, m)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Member, error) {
	return s.members.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, m *Member) error {
	if m.Role != "" && !m.Role.Valid() {
		return fmt.Errorf("invalid role: %s", m.Role)
	}
	return s.members.Update(ctx, m)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.members.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Member, int, error) {
	return s.members.List(ctx, limit, offset)
}

// ChangeRole updates only the role of a member. Deactivated members keep
// their record but cannot be given a new role.
func (s *Service) ChangeRole(ctx context.Context, id uuid.UUID, role authz.Role) (*Member, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role: %s", role)
	}
	m, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.Active {
		return nil, fmt.Errorf("cannot change role of deactivated member")
	}
	m.Role = role
	if err := s.members.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RoleStore adapts the staff repository to the role lookup the route guard
// and API auth middleware perform on every request. An inactive member
// resolves to no role at all, which fails closed upstream.
type RoleStore struct {
	members Repository
}

func NewRoleStore(members Repository) *RoleStore {
	return &RoleStore{members: members}
}

func (s *RoleStore) RoleOf(ctx context.Context, userID string) (authz.Role, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", fmt.Errorf("malformed user id: %w", err)
	}
	m, err := s.members.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !m.Active {
		return "", nil
	}
	return m.Role, nil
}
