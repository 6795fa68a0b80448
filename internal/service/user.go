package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/counterpos/pos-service/internal/apperr"
	"github.com/counterpos/pos-service/internal/db/repository"
	"github.com/counterpos/pos-service/internal/models"
)

// UserService manages staff accounts
type UserService struct {
	users UserStore
	refs  ReferenceStore
}

func NewUserService(users UserStore, refs ReferenceStore) *UserService {
	return &UserService{users: users, refs: refs}
}

// Register creates an active staff account
func (s *UserService) Register(ctx context.Context, req models.UserRequest) (*models.UserView, error) {
	username := strings.TrimSpace(req.Username)
	if err := s.ensureUsernameFree(ctx, username, uuid.Nil); err != nil {
		return nil, err
	}

	role, err := s.role(ctx, req.Role)
	if err != nil {
		return nil, err
	}

	status, err := s.refs.StatusByName(ctx, models.StatusActive)
	if err != nil {
		return nil, apperr.Internal("Failed to register user", err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal("Failed to register user", err)
	}

	created, err := s.users.Create(ctx, models.User{
		Name:         strings.TrimSpace(req.Name),
		Username:     username,
		PasswordHash: hash,
		RoleID:       role.ID,
		StatusID:     status.ID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("Username already exists")
		}
		return nil, apperr.Internal("Failed to register user", err)
	}

	zap.L().Info("user registered", zap.String("username", created.Username), zap.String("role", created.Role))
	view := models.NewUserView(*created)
	return &view, nil
}

// List returns staff accounts without credentials
func (s *UserService) List(ctx context.Context, descending bool) ([]models.UserView, error) {
	users, err := s.users.List(ctx, descending)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch users", err)
	}

	views := make([]models.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, models.NewUserView(u))
	}
	return views, nil
}

// Update applies the fields present in req. Changing the password or
// deactivating the account revokes the user's existing tokens.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req models.UserUpdateRequest) (*models.UserView, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	revoke := false

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username != user.Username {
			if err := s.ensureUsernameFree(ctx, username, user.ID); err != nil {
				return nil, err
			}
			user.Username = username
		}
	}

	if req.Password != nil {
		hash, err := HashPassword(*req.Password)
		if err != nil {
			return nil, apperr.Internal("Failed to update user", err)
		}
		user.PasswordHash = hash
		revoke = true
	}

	if req.Role != nil {
		role, err := s.role(ctx, *req.Role)
		if err != nil {
			return nil, err
		}
		user.RoleID = role.ID
	}

	if req.IsActive != nil {
		name := models.StatusInactive
		if *req.IsActive {
			name = models.StatusActive
		}
		status, err := s.refs.StatusByName(ctx, name)
		if err != nil {
			return nil, apperr.Internal("Failed to update user", err)
		}
		if !*req.IsActive && user.IsActive() {
			revoke = true
		}
		user.StatusID = status.ID
	}

	updated, err := s.users.Update(ctx, *user, revoke)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("User not found")
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperr.Conflict("Username already exists")
		}
		return nil, apperr.Internal("Failed to update user", err)
	}

	view := models.NewUserView(*updated)
	return &view, nil
}

// Delete removes a staff account. Admins cannot remove themselves.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if actor != nil && actor.ID == id {
		return apperr.BusinessRule("You cannot delete your own account")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Internal("Failed to delete user", err)
	}

	zap.L().Info("user deleted", zap.String("id", id.String()))
	return nil
}

func (s *UserService) get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal("Failed to fetch user", err)
	}
	return user, nil
}

func (s *UserService) role(ctx context.Context, name string) (*models.Role, error) {
	role, err := s.refs.RoleByName(ctx, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Validation("Invalid role", apperr.FieldError{Field: "role", Message: "role does not exist"})
		}
		return nil, apperr.Internal("Failed to look up role", err)
	}
	return role, nil
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username string, self uuid.UUID) error {
	existing, err := s.users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return apperr.Internal("Failed to check username", err)
	case existing.ID != self:
		return apperr.Conflict("Username already exists")
	}
	return nil
}
