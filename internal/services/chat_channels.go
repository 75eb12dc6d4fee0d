package services

import (
	"sort"

	"github.com/SAP-F-2025/lms-store/internal/models"
)

// unknownSenderLabel is shown for global messages whose sender no longer exists.
const unknownSenderLabel = "User"

// FilterGlobal keeps the broadcast messages in display order.
func FilterGlobal(messages []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, 0)
	for _, m := range messages {
		if m.IsGlobal() {
			out = append(out, m)
		}
	}
	sortByCreatedAt(out)
	return out
}

// FilterDirect keeps the messages exchanged between a and b, in either direction.
func FilterDirect(messages []models.ChatMessage, a, b string) []models.ChatMessage {
	out := make([]models.ChatMessage, 0)
	for _, m := range messages {
		if (m.FromID == a && m.ToID == b) || (m.FromID == b && m.ToID == a) {
			out = append(out, m)
		}
	}
	sortByCreatedAt(out)
	return out
}

// SenderLabel is the sender's first name, or a generic label when the sender is unknown.
func SenderLabel(users []models.User, senderID string) string {
	if u, ok := models.FindUser(users, senderID); ok && u.FirstName != "" {
		return u.FirstName
	}
	return unknownSenderLabel
}

// sortByCreatedAt keeps append order for equal timestamps.
func sortByCreatedAt(messages []models.ChatMessage) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}
