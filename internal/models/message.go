package models

import (
	"errors"
	"strings"
	"time"
)

// GlobalChannelID is the sentinel destination of the broadcast channel.
const GlobalChannelID = "global"

// MaxAttachmentSize caps inline attachments at 100 MiB.
const MaxAttachmentSize int64 = 100 * 1024 * 1024

// Attachment is a file inlined into a message as a data URL.
type Attachment struct {
	FileName string `json:"fileName,omitempty"`
	FileData string `json:"fileData,omitempty"` // data:<mime>;base64,<payload>
	FileType string `json:"fileType,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
}

// ErrInvalidDataURL is returned for a FileData value that is not a base64 data URL.
var ErrInvalidDataURL = errors.New("file data is not a base64 data URL")

// PayloadSize returns the decoded length of FileData without decoding it.
func (a *Attachment) PayloadSize() (int64, error) {
	rest, ok := strings.CutPrefix(a.FileData, "data:")
	if !ok {
		return 0, ErrInvalidDataURL
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(header, ";base64") || len(payload)%4 != 0 {
		return 0, ErrInvalidDataURL
	}
	padding := len(payload) - len(strings.TrimRight(payload, "="))
	if padding > 2 {
		return 0, ErrInvalidDataURL
	}
	return int64(len(payload)/4*3 - padding), nil
}

type ChatMessage struct {
	ID     string `json:"id"`
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
	Text   string `json:"text"`

	// Optional file payload, flattened into the message record
	*Attachment

	CreatedAt time.Time `json:"createdAt"`
}

// IsGlobal reports whether the message was broadcast.
func (m ChatMessage) IsGlobal() bool {
	return m.ToID == GlobalChannelID
}

// HasAttachment reports whether file data is present; a name alone is not a file.
func (m ChatMessage) HasAttachment() bool {
	return m.Attachment != nil && m.Attachment.FileData != ""
}

// IsEmpty is true when the message carries neither text nor file.
func (m ChatMessage) IsEmpty() bool {
	return strings.TrimSpace(m.Text) == "" && !m.HasAttachment()
}

// Involves reports whether the user sent or received the message.
func (m ChatMessage) Involves(userID string) bool {
	return m.FromID == userID || m.ToID == userID
}
