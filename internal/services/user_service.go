package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/lms-store/internal/models"
	"github.com/SAP-F-2025/lms-store/internal/repositories"
	"github.com/SAP-F-2025/lms-store/internal/validator"
)

const defaultAvatarURL = "https://i.pravatar.cc/150?u="

type userService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== DIRECTORY OPERATIONS =====

func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if errs := s.validator.Struct(req); len(errs) > 0 {
		return nil, errs
	}

	user := models.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		FirstName: strings.TrimSpace(req.FirstName),
		Email:     strings.TrimSpace(req.Email),
		Role:      models.RoleStudent,
		CreatedAt: now(),
	}
	user.Avatar = defaultAvatar(user.Email)

	if err := s.insert(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User registered", "user_id", user.ID, "email", user.Email)
	return &user, nil
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := readCollection(ctx, s.repo.Users(), s.logger)
	if err != nil {
		return nil, err
	}
	user, ok := models.FindUserByEmail(users, email)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	return &user, nil
}

func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	users, err := readCollection(ctx, s.repo.Users(), s.logger)
	if err != nil {
		return nil, err
	}
	user, ok := models.FindUser(users, id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return &user, nil
}

// List returns the users holding role, or everyone when role is empty.
func (s *userService) List(ctx context.Context, role models.UserRole) ([]models.User, error) {
	if role != "" {
		if err := role.Validate(); err != nil {
			return nil, NewValidationError("role", "is not a known role", role)
		}
	}

	users, err := readCollection(ctx, s.repo.Users(), s.logger)
	if err != nil {
		return nil, err
	}
	if role == "" {
		return users, nil
	}

	filtered := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.Role == role {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *ProfileUpdateRequest) (*models.User, error) {
	if errs := s.validator.Struct(req); len(errs) > 0 {
		return nil, errs
	}

	var updated models.User
	err := s.repo.Users().Update(ctx, func(users []models.User) ([]models.User, error) {
		for i := range users {
			if users[i].ID != userID {
				continue
			}
			u := &users[i]
			u.Name = strings.TrimSpace(req.Name)
			u.FirstName = strings.TrimSpace(req.FirstName)
			u.Phone = validator.NormalizePhone(req.Phone)
			u.City = req.City
			u.Country = req.Country
			u.Bio = req.Bio
			u.Age = req.Age
			u.GradeLevel = req.GradeLevel
			if req.Avatar != "" {
				u.Avatar = req.Avatar
			}
			updated = *u
			return users, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Profile updated", "user_id", userID)
	return &updated, nil
}

// ===== ADMINISTRATION =====

func (s *userService) AddStaff(ctx context.Context, actorID string, req *StaffRequest) (*models.User, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if errs := s.validator.Struct(req); len(errs) > 0 {
		return nil, errs
	}
	if req.Role == models.RoleStudent {
		return nil, NewValidationError("role", "staff accounts cannot be students", req.Role)
	}

	user := models.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		FirstName: strings.TrimSpace(req.FirstName),
		Email:     strings.TrimSpace(req.Email),
		Role:      req.Role,
		CreatedAt: now(),
	}
	user.Avatar = defaultAvatar(user.Email)

	if err := s.insert(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Staff account created",
		"actor_id", actorID,
		"user_id", user.ID,
		"role", user.Role)
	return &user, nil
}

func (s *userService) ChangeRole(ctx context.Context, actorID, userID string, role models.UserRole) (*models.User, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if err := role.Validate(); err != nil {
		return nil, NewValidationError("role", "is not a known role", role)
	}
	if actorID == userID && role != models.RoleAdmin {
		return nil, NewBusinessRuleError("ADMIN-SELF-DEMOTION", "administrators cannot remove their own admin role",
			map[string]interface{}{"user_id": userID})
	}

	var updated models.User
	err := s.repo.Users().Update(ctx, func(users []models.User) ([]models.User, error) {
		for i := range users {
			if users[i].ID == userID {
				if users[i].Role == role {
					updated = users[i]
					return nil, repositories.ErrNoChange
				}
				users[i].Role = role
				updated = users[i]
				return users, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User role changed", "actor_id", actorID, "user_id", userID, "role", role)
	return &updated, nil
}

// Remove deletes the user record only. Enrollments, courses and messages that point at
// the user are left in place and surface through the integrity check.
func (s *userService) Remove(ctx context.Context, actorID, userID string) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if actorID == userID {
		return NewBusinessRuleError("ADMIN-SELF-REMOVAL", "administrators cannot remove their own account",
			map[string]interface{}{"user_id": userID})
	}

	err := s.repo.Users().Update(ctx, func(users []models.User) ([]models.User, error) {
		kept := users[:0]
		found := false
		for _, u := range users {
			if u.ID == userID {
				found = true
				continue
			}
			kept = append(kept, u)
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return kept, nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "User removed", "actor_id", actorID, "user_id", userID)
	return nil
}

// ===== HELPERS =====

// insert appends user unless the email is already taken (case-insensitive).
func (s *userService) insert(ctx context.Context, user models.User) error {
	return s.repo.Users().Update(ctx, func(users []models.User) ([]models.User, error) {
		if _, exists := models.FindUserByEmail(users, user.Email); exists {
			return nil, fmt.Errorf("%w: %s", ErrEmailExists, user.Email)
		}
		return append(users, user), nil
	})
}

func (s *userService) requireAdmin(ctx context.Context, actorID string) error {
	actor, err := s.Get(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.Role.CanAdminister() {
		return NewBusinessRuleError("ROLE-ADMIN-REQUIRED", "only administrators can manage accounts",
			map[string]interface{}{"actor_id": actorID, "role": actor.Role})
	}
	return nil
}

func defaultAvatar(email string) string {
	return defaultAvatarURL + url.QueryEscape(strings.ToLower(email))
}
