package services

import (
	"context"
	"net/url"

	"github.com/dmitrijs2005/campusmarket/internal/client/models"
	"github.com/dmitrijs2005/campusmarket/internal/client/tokens"
)

// SessionAPI is the part of the backend the session store needs.
type SessionAPI interface {
	Login(ctx context.Context, email, password string) (tokens.Pair, error)
	Register(ctx context.Context, req models.RegisterRequest) (models.User, tokens.Pair, error)
	CurrentUser(ctx context.Context) (models.User, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.Profile, error)
	OnAuthExpired(fn func())
}

// ListingAPI is the part of the backend used by search and saved listings.
type ListingAPI interface {
	ListListings(ctx context.Context, params url.Values) (models.Page[models.Listing], error)
	SaveListing(ctx context.Context, id int) error
	UnsaveListing(ctx context.Context, id int) error
	SavedListings(ctx context.Context) (models.Page[models.SavedListing], error)
}

type ChatAPI interface {
	ChatToken(ctx context.Context) (models.ChatSession, error)
	CreateChannel(ctx context.Context, listingID int) (string, error)
}
