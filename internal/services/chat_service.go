package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/SAP-F-2025/lms-store/internal/models"
	"github.com/SAP-F-2025/lms-store/internal/repositories"
)

type chatService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewChatService(repo repositories.Repository, logger *slog.Logger) ChatService {
	return &chatService{
		repo:   repo,
		logger: logger,
	}
}

// ===== SENDING =====

func (s *chatService) Send(ctx context.Context, req *SendMessageRequest) (*models.ChatMessage, error) {
	if strings.TrimSpace(req.FromID) == "" {
		return nil, NewValidationError("fromId", "is required", req.FromID)
	}
	if err := s.resolveDestination(ctx, req.FromID, req.ToID); err != nil {
		return nil, err
	}

	attachment := req.Attachment
	if attachment != nil && attachment.FileName == "" && attachment.FileData == "" {
		attachment = nil
	}
	if attachment != nil {
		if attachment.FileSize > models.MaxAttachmentSize {
			return nil, fmt.Errorf("%w: %d bytes", ErrAttachmentTooLarge, attachment.FileSize)
		}
		if attachment.FileData != "" {
			size, err := attachment.PayloadSize()
			if err != nil {
				return nil, NewValidationError("fileData", err.Error(), attachment.FileName)
			}
			if size > models.MaxAttachmentSize {
				return nil, fmt.Errorf("%w: %d bytes", ErrAttachmentTooLarge, size)
			}
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}
	msg := models.ChatMessage{
		ID:         "msg-" + id.String(),
		FromID:     req.FromID,
		ToID:       req.ToID,
		Text:       req.Text,
		Attachment: attachment,
	}
	if msg.IsEmpty() {
		return nil, NewValidationError("text", "a message needs text or a file", req.Text)
	}

	err = s.repo.Messages().Update(ctx, func(messages []models.ChatMessage) ([]models.ChatMessage, error) {
		// stamped at append time so the log stays ordered by createdAt
		msg.CreatedAt = now()
		if n := len(messages); n > 0 && msg.CreatedAt.Before(messages[n-1].CreatedAt) {
			msg.CreatedAt = messages[n-1].CreatedAt
		}
		return append(messages, msg), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	s.logger.InfoContext(ctx, "Message sent",
		"message_id", msg.ID,
		"from_id", msg.FromID,
		"to_id", msg.ToID,
		"attachment", msg.HasAttachment())
	return &msg, nil
}

// resolveDestination accepts the global channel or an existing user other than the sender.
func (s *chatService) resolveDestination(ctx context.Context, fromID, toID string) error {
	switch {
	case toID == "":
		return NewValidationError("toId", "is required", toID)
	case toID == models.GlobalChannelID:
		return nil
	case toID == fromID:
		return NewValidationError("toId", "cannot be the sender", toID)
	}

	users, err := readCollection(ctx, s.repo.Users(), s.logger)
	if err != nil {
		return err
	}
	if _, ok := models.FindUser(users, toID); !ok {
		return fmt.Errorf("%w: recipient %s", ErrUserNotFound, toID)
	}
	return nil
}

// EncodeAttachment reads a file into an inline data URL. The declared size is checked
// before anything is read and the reader is never consumed past the limit.
func (s *chatService) EncodeAttachment(ctx context.Context, name, mimeType string, size int64, r io.Reader) (*models.Attachment, error) {
	if size > models.MaxAttachmentSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrAttachmentTooLarge, size)
	}
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("fileName", "is required", name)
	}

	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}
	limited := io.LimitReader(r, models.MaxAttachmentSize+1)
	if _, err := io.Copy(&buf, contextReader{ctx: ctx, r: limited}); err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	if int64(buf.Len()) > models.MaxAttachmentSize {
		return nil, fmt.Errorf("%w: more than %d bytes read", ErrAttachmentTooLarge, models.MaxAttachmentSize)
	}

	data := buf.Bytes()
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}

	attachment := &models.Attachment{
		FileName: filepath.Base(name),
		FileData: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		FileType: mimeType,
		FileSize: int64(len(data)),
	}

	s.logger.DebugContext(ctx, "Attachment encoded",
		"file_name", attachment.FileName,
		"file_type", attachment.FileType,
		"file_size", attachment.FileSize)
	return attachment, nil
}

// contextReader stops a long copy once ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// ===== CHANNELS =====

func (s *chatService) GlobalChannel(ctx context.Context) ([]models.ChatMessage, error) {
	messages, err := readCollection(ctx, s.repo.Messages(), s.logger)
	if err != nil {
		return nil, err
	}
	return FilterGlobal(messages), nil
}

func (s *chatService) DirectChannel(ctx context.Context, userA, userB string) ([]models.ChatMessage, error) {
	if userA == "" || userB == "" {
		return nil, NewValidationError("userId", "both participants are required", nil)
	}
	messages, err := readCollection(ctx, s.repo.Messages(), s.logger)
	if err != nil {
		return nil, err
	}
	return FilterDirect(messages, userA, userB), nil
}

// Contacts lists every other user; the global channel is always available on top of them.
func (s *chatService) Contacts(ctx context.Context, userID string) ([]models.User, error) {
	users, err := readCollection(ctx, s.repo.Users(), s.logger)
	if err != nil {
		return nil, err
	}
	contacts := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID != userID {
			contacts = append(contacts, u)
		}
	}
	return contacts, nil
}

// Conversations lists the global channel first, then one entry per contact.
func (s *chatService) Conversations(ctx context.Context, userID string) ([]Conversation, error) {
	contacts, err := s.Contacts(ctx, userID)
	if err != nil {
		return nil, err
	}
	messages, err := readCollection(ctx, s.repo.Messages(), s.logger)
	if err != nil {
		return nil, err
	}

	conversations := make([]Conversation, 0, len(contacts)+1)
	conversations = append(conversations, summarize(models.GlobalChannelID, nil, FilterGlobal(messages)))
	for i := range contacts {
		peer := contacts[i]
		conversations = append(conversations, summarize(peer.ID, &peer, FilterDirect(messages, userID, peer.ID)))
	}
	return conversations, nil
}

func summarize(channelID string, peer *models.User, messages []models.ChatMessage) Conversation {
	c := Conversation{ChannelID: channelID, Peer: peer, MessageCount: len(messages)}
	if n := len(messages); n > 0 {
		last := messages[n-1]
		c.LastMessage = &last
	}
	return c
}

// OrphanedMessages lists direct messages whose sender or recipient no longer exists.
func (s *chatService) OrphanedMessages(ctx context.Context) ([]models.ChatMessage, error) {
	users, err := readCollection(ctx, s.repo.Users(), s.logger)
	if err != nil {
		return nil, err
	}
	messages, err := readCollection(ctx, s.repo.Messages(), s.logger)
	if err != nil {
		return nil, err
	}
	return orphanedMessages(users, messages), nil
}

func orphanedMessages(users []models.User, messages []models.ChatMessage) []models.ChatMessage {
	known := make(map[string]bool, len(users))
	for _, u := range users {
		known[u.ID] = true
	}

	out := make([]models.ChatMessage, 0)
	for _, m := range messages {
		if m.IsGlobal() {
			continue
		}
		if !known[m.FromID] || !known[m.ToID] {
			out = append(out, m)
		}
	}
	return out
}

func (s *chatService) SenderLabel(ctx context.Context, senderID string) (string, error) {
	users, err := readCollection(ctx, s.repo.Users(), s.logger)
	if err != nil {
		return "", err
	}
	return SenderLabel(users, senderID), nil
}
