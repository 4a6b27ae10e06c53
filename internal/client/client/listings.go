package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/campusmarket/internal/client/models"
)

func listingPath(id int, action string) string {
	if action == "" {
		return fmt.Sprintf("/api/listings/%d/", id)
	}
	return fmt.Sprintf("/api/listings/%d/%s/", id, action)
}

func (c *HTTPClient) ListListings(ctx context.Context, params url.Values) (models.Page[models.Listing], error) {
	var page models.Page[models.Listing]
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/listings/", Query: params}, &page)
	return page, err
}

func (c *HTTPClient) GetListing(ctx context.Context, id int) (models.Listing, error) {
	var l models.Listing
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: listingPath(id, "")}, &l)
	return l, err
}

func (c *HTTPClient) MyListings(ctx context.Context) (models.Page[models.Listing], error) {
	return c.ListListings(ctx, url.Values{"seller": []string{"me"}})
}

// CreateListing publishes a new listing owned by the caller.
func (c *HTTPClient) CreateListing(ctx context.Context, in models.ListingInput) (models.Listing, error) {
	if err := in.Validate(); err != nil {
		return models.Listing{}, fmt.Errorf("create listing: %w", err)
	}
	var l models.Listing
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/api/listings/", Body: in}, &l)
	return l, err
}

// UpdateListing patches the non-empty fields of in onto listing id.
func (c *HTTPClient) UpdateListing(ctx context.Context, id int, in models.ListingInput) (models.Listing, error) {
	var l models.Listing
	err := c.Do(ctx, Request{Method: http.MethodPatch, Path: listingPath(id, ""), Body: in}, &l)
	return l, err
}

func (c *HTTPClient) DeleteListing(ctx context.Context, id int) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: listingPath(id, "")}, nil)
}

func (c *HTTPClient) SaveListing(ctx context.Context, id int) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: listingPath(id, "save_listing")}, nil)
}

func (c *HTTPClient) UnsaveListing(ctx context.Context, id int) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: listingPath(id, "unsave_listing")}, nil)
}

// MarkListing moves a listing the caller sells to status.
func (c *HTTPClient) MarkListing(ctx context.Context, id int, status models.ListingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("mark listing %d: unknown status %q", id, status)
	}
	return c.Do(ctx, Request{Method: http.MethodPost, Path: listingPath(id, "mark_"+string(status))}, nil)
}

func (c *HTTPClient) SavedListings(ctx context.Context) (models.Page[models.SavedListing], error) {
	var page models.Page[models.SavedListing]
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/saved-listings/"}, &page)
	return page, err
}

func (c *HTTPClient) ListCategories(ctx context.Context) (models.Page[models.Category], error) {
	var page models.Page[models.Category]
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/categories/"}, &page)
	return page, err
}

func (c *HTTPClient) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	var cat models.Category
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/api/categories/", Body: map[string]string{"name": name}}, &cat)
	return cat, err
}
