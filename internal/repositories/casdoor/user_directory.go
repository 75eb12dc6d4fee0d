package casdoor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/lms-store/internal/cache"
	"github.com/SAP-F-2025/lms-store/internal/config"
	"github.com/SAP-F-2025/lms-store/internal/models"
)

// ErrUserNotFound is returned when the directory has no matching account.
var ErrUserNotFound = errors.New("user not found in directory")

// directoryClient is the subset of the Casdoor SDK client used here
type directoryClient interface {
	GetUserByUserId(userId string) (*casdoorsdk.User, error)
	GetUserByEmail(email string) (*casdoorsdk.User, error)
	GetUsers() ([]*casdoorsdk.User, error)
}

// UserDirectory looks accounts up in a remote Casdoor directory.
// It never writes to the local store; callers decide what to do with the results.
type UserDirectory struct {
	client directoryClient
	cache  *cache.CacheHelper
	logger *slog.Logger
}

// NewUserDirectory returns nil when cfg lacks credentials, so callers can treat the directory as optional.
func NewUserDirectory(cfg config.CasdoorConfig, redisClient *redis.Client, logger *slog.Logger) *UserDirectory {
	if !cfg.Enabled() {
		return nil
	}
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return newUserDirectory(client, redisClient, logger)
}

func newUserDirectory(client directoryClient, redisClient *redis.Client, logger *slog.Logger) *UserDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserDirectory{
		client: client,
		cache:  cache.NewCacheHelper(redisClient, cache.DirectoryCacheConfig),
		logger: logger,
	}
}

// Enabled is false for a nil directory.
func (d *UserDirectory) Enabled() bool {
	return d != nil && d.client != nil
}

// ===== CACHE METHODS =====

func (d *UserDirectory) getUserFromCache(ctx context.Context, key string) (*models.User, bool) {
	var user models.User
	if !cache.SafeGet(ctx, d.logger, d.cache, key, &user) {
		return nil, false
	}
	return &user, true
}

// setUserCache stores user under both lookup keys.
func (d *UserDirectory) setUserCache(ctx context.Context, user models.User) {
	cache.SafeSet(ctx, d.logger, d.cache, user, "id:"+user.ID, "email:"+strings.ToLower(user.Email))
}

// ===== CONVERSION METHODS =====

// ConvertUser maps a directory account onto the local user record.
func ConvertUser(cu *casdoorsdk.User) models.User {
	name := cu.LastName
	if name == "" {
		name = cu.DisplayName
	}
	firstName := cu.FirstName
	if firstName == "" {
		firstName = cu.Name
	}

	var createdAt time.Time
	if cu.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, cu.CreatedTime)
	}

	return models.User{
		ID:        cu.Id,
		Name:      name,
		FirstName: firstName,
		Email:     cu.Email,
		Role:      convertRoles(cu),
		Avatar:    cu.Avatar,
		Phone:     cu.Phone,
		City:      cu.Location,
		Country:   cu.Region,
		Bio:       cu.Bio,
		CreatedAt: createdAt.UTC(),
	}
}

// convertRoles picks admin when present, otherwise the first mapped role, defaulting to student.
func convertRoles(cu *casdoorsdk.User) models.UserRole {
	var roles []models.UserRole
	for _, r := range cu.Roles {
		if r == nil {
			continue
		}
		if role := mapRole(r.Name); !slices.Contains(roles, role) {
			roles = append(roles, role)
		}
	}

	if cu.IsAdmin || slices.Contains(roles, models.RoleAdmin) {
		return models.RoleAdmin
	}
	if len(roles) == 0 {
		return models.RoleStudent
	}
	return roles[0]
}

func mapRole(name string) models.UserRole {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "teacher", "instructor":
		return models.RoleInstructor
	case "editor":
		return models.RoleEditor
	case "admin", "administrator":
		return models.RoleAdmin
	default:
		return models.RoleStudent
	}
}

// ===== READ OPERATIONS =====

func (d *UserDirectory) GetByID(ctx context.Context, id string) (models.User, error) {
	if cached, ok := d.getUserFromCache(ctx, "id:"+id); ok {
		return *cached, nil
	}

	cu, err := d.client.GetUserByUserId(id)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get user from Casdoor: %w", err)
	}
	if cu == nil {
		return models.User{}, fmt.Errorf("%w: id %s", ErrUserNotFound, id)
	}

	user := ConvertUser(cu)
	d.setUserCache(ctx, user)
	return user, nil
}

func (d *UserDirectory) GetByEmail(ctx context.Context, email string) (models.User, error) {
	email = strings.TrimSpace(email)
	if cached, ok := d.getUserFromCache(ctx, "email:"+strings.ToLower(email)); ok {
		return *cached, nil
	}

	cu, err := d.client.GetUserByEmail(email)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get user by email from Casdoor: %w", err)
	}
	if cu == nil {
		return models.User{}, fmt.Errorf("%w: email %s", ErrUserNotFound, email)
	}

	user := ConvertUser(cu)
	d.setUserCache(ctx, user)
	return user, nil
}

// FetchUsers lists every account of the configured organization.
func (d *UserDirectory) FetchUsers(ctx context.Context) ([]models.User, error) {
	cus, err := d.client.GetUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to get users from Casdoor: %w", err)
	}

	users := make([]models.User, 0, len(cus))
	for _, cu := range cus {
		if cu == nil {
			continue
		}
		users = append(users, ConvertUser(cu))
	}
	d.logger.DebugContext(ctx, "Fetched directory users", "count", len(users))
	return users, nil
}
