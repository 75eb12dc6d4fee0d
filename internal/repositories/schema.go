package repositories

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/lms-store/internal/models"
)

// SchemaVersion is the envelope version written by this build.
const SchemaVersion = 1

type envelope struct {
	Version int             `json:"version"`
	Items   json.RawMessage `json:"items"`
}

// legacyDecoder turns a version 0 payload (a bare JSON array) into items.
type legacyDecoder[T any] func(data []byte) ([]T, error)

func encodeItems[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}
	return json.Marshal(envelope{Version: SchemaVersion, Items: raw})
}

func decodeItems[T any](data []byte, legacy legacyDecoder[T]) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	switch trimmed[0] {
	case '[':
		if legacy != nil {
			return legacy(trimmed)
		}
		return unmarshalItems[T](trimmed)

	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("invalid envelope: %w", err)
		}
		if env.Version > SchemaVersion {
			return nil, fmt.Errorf("%w: %d (supported %d)", ErrUnsupportedVersion, env.Version, SchemaVersion)
		}
		if env.Version < 1 {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
		}
		if len(env.Items) == 0 || string(env.Items) == "null" {
			return []T{}, nil
		}
		return unmarshalItems[T](env.Items)

	default:
		return nil, fmt.Errorf("payload is neither an array nor an envelope")
	}
}

func unmarshalItems[T any](data []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// legacyRoleLabels maps the display labels stored by the first dataset format.
var legacyRoleLabels = map[string]models.UserRole{
	"étudiant":       models.RoleStudent,
	"formateur":      models.RoleInstructor,
	"éditeur":        models.RoleEditor,
	"administrateur": models.RoleAdmin,
}

type legacyUser struct {
	models.User
	Role string `json:"role"`
}

func decodeLegacyUsers(data []byte) ([]models.User, error) {
	var rows []legacyUser
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		role, err := migrateRole(row.Role)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", row.ID, err)
		}
		user := row.User
		user.Role = role
		users = append(users, user)
	}
	return users, nil
}

func migrateRole(value string) (models.UserRole, error) {
	if role, ok := legacyRoleLabels[strings.ToLower(strings.TrimSpace(value))]; ok {
		return role, nil
	}
	return models.ParseRole(value)
}
