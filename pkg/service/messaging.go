package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/1mt4y/travelbuddy/pkg/db"
	"github.com/1mt4y/travelbuddy/pkg/metrics"
	"github.com/1mt4y/travelbuddy/pkg/models"
)

const maxMessageLength = 5000

// Messaging is the append-only direct message log.
type Messaging struct {
	*core
}

// Send appends a message from senderID to receiverID.
func (s *Messaging) Send(ctx context.Context, senderID, receiverID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	receiverID = strings.TrimSpace(receiverID)

	if receiverID == "" || content == "" {
		return nil, ValidationError("Receiver and content are required")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, ValidationErrorf("content must be at most %d characters", maxMessageLength)
	}
	if receiverID == senderID {
		return nil, ValidationError("You cannot send a message to yourself")
	}

	exists, err := s.repo.UserExists(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to check receiver: %w", err)
	}
	if !exists {
		return nil, NotFoundError("Receiver not found")
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		IsRead:     false,
		CreatedAt:  s.clock(),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	metrics.MessagesSent.Inc()
	s.logger.LogMessage(msg.ID, senderID, receiverID)

	return msg, nil
}

// Conversation returns the thread between userID and otherID, oldest
// first, after marking everything otherID sent to userID as read. With
// sinceID set only messages newer than that message are returned; an
// unknown sinceID returns the whole thread.
func (s *Messaging) Conversation(ctx context.Context, userID, otherID, sinceID string) (*Conversation, error) {
	other, err := s.repo.GetUserByID(ctx, otherID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NotFoundError("User not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if _, err := s.repo.MarkConversationRead(ctx, userID, otherID); err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}

	var after *models.Message
	if sinceID != "" {
		ref, err := s.repo.GetMessageByID(ctx, sinceID)
		switch {
		case err == nil:
			after = ref
		case !db.IsNotFound(err):
			return nil, fmt.Errorf("failed to load reference message: %w", err)
		}
	}

	var msgs []models.Message
	if after != nil {
		msgs, err = s.repo.ListConversation(ctx, userID, otherID, &after.CreatedAt)
	} else {
		msgs, err = s.repo.ListConversation(ctx, userID, otherID, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	return &Conversation{
		OtherUser: summarizeUser(other),
		Messages:  msgs,
	}, nil
}

// MarkRead marks every message from otherID to userID as read and reports
// how many changed. Calling it again changes nothing.
func (s *Messaging) MarkRead(ctx context.Context, userID, otherID string) (int64, error) {
	exists, err := s.repo.UserExists(ctx, otherID)
	if err != nil {
		return 0, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return 0, NotFoundError("User not found")
	}

	n, err := s.repo.MarkConversationRead(ctx, userID, otherID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return n, nil
}

// Conversations lists one entry per counterpart, most recent first.
func (s *Messaging) Conversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	ids, err := s.repo.ListCounterpartIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	users, err := s.repo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	byID := make(map[string]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	out := make([]ConversationSummary, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			continue
		}

		last, err := s.repo.GetLatestMessageBetween(ctx, userID, id)
		if err != nil {
			if db.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("failed to load last message: %w", err)
		}

		unread, err := s.repo.CountUnreadFrom(ctx, userID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to count unread messages: %w", err)
		}

		out = append(out, ConversationSummary{
			User:        summarizeUser(u),
			LastMessage: *last,
			UnreadCount: unread,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastMessage, out[j].LastMessage
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	return out, nil
}

// UnreadCount is the total number of unread messages addressed to userID.
func (s *Messaging) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}
