package client

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/campusmarket/internal/client/models"
)

// ChatToken fetches the per-user credential for the hosted chat service.
func (c *HTTPClient) ChatToken(ctx context.Context) (models.ChatSession, error) {
	var s models.ChatSession
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/chat/token/"}, &s)
	return s, err
}

// CreateChannel opens (or reuses) the buyer/seller channel for a listing.
func (c *HTTPClient) CreateChannel(ctx context.Context, listingID int) (string, error) {
	var resp struct {
		ChannelID string `json:"channel_id"`
	}
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/chat/channels/",
		Body:   map[string]int{"listing_id": listingID},
	}, &resp)
	return resp.ChannelID, err
}
