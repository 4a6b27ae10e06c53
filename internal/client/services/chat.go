package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/campusmarket/internal/client/models"
	"github.com/dmitrijs2005/campusmarket/internal/logging"
)

var ErrChatUnavailable = errors.New("chat is not configured")

// ChatService obtains what the hosted chat SDK needs. It does not speak any
// chat protocol itself.
type ChatService struct {
	api    ChatAPI
	apiKey string
	logger logging.Logger
}

// NewChatService returns a chat bootstrapper. apiKey is used when the
// backend's token response does not carry one.
func NewChatService(api ChatAPI, apiKey string, logger logging.Logger) *ChatService {
	return &ChatService{api: api, apiKey: apiKey, logger: logger}
}

// Connect fetches the per-user chat credential.
func (c *ChatService) Connect(ctx context.Context) (models.ChatSession, error) {
	s, err := c.api.ChatToken(ctx)
	if err != nil {
		return models.ChatSession{}, fmt.Errorf("chat token: %w", err)
	}
	if s.APIKey == "" {
		s.APIKey = c.apiKey
	}
	if s.APIKey == "" || s.Token == "" {
		return models.ChatSession{}, ErrChatUnavailable
	}
	c.logger.Debug(ctx, "chat session ready", "user_id", s.UserID)
	return s, nil
}

// OpenChannel returns the channel id for talking to the seller of a listing.
func (c *ChatService) OpenChannel(ctx context.Context, listingID int) (string, error) {
	id, err := c.api.CreateChannel(ctx, listingID)
	if err != nil {
		return "", fmt.Errorf("create channel for listing %d: %w", listingID, err)
	}
	return id, nil
}
