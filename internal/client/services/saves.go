package services

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/campusmarket/internal/client/client"
	"github.com/dmitrijs2005/campusmarket/internal/client/models"
	"github.com/dmitrijs2005/campusmarket/internal/client/notify"
	"github.com/dmitrijs2005/campusmarket/internal/logging"
	"github.com/dmitrijs2005/campusmarket/internal/optimistic"
)

const (
	msgSaved       = "Saved to favourites"
	msgUnsaved     = "Removed from saved"
	msgSaveFailed  = "Failed to update"
	msgLoadFailed  = "Failed to load listings"
	msgSavedFailed = "Failed to load saved listings"
)

// SaveService owns the locally predicted saved flag of every listing the
// client has seen.
type SaveService struct {
	api      ListingAPI
	notifier notify.Notifier
	logger   logging.Logger

	mu        sync.Mutex
	cells     map[int]*optimistic.Cell[bool]
	writes    uint64
	lastWrite map[int]uint64
}

func NewSaveService(api ListingAPI, notifier notify.Notifier, logger logging.Logger) *SaveService {
	return &SaveService{
		api:       api,
		notifier:  notifier,
		logger:    logger,
		cells:     make(map[int]*optimistic.Cell[bool]),
		lastWrite: make(map[int]uint64),
	}
}

// Version identifies the local writes made so far. Take it before reading
// listings from the server and hand it to TrackAt.
func (s *SaveService) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Track seeds or refreshes local flags from server data read just now.
func (s *SaveService) Track(listings ...models.Listing) {
	s.TrackAt(s.Version(), listings...)
}

// TrackAt seeds or refreshes local flags from server data read at version.
// Listings written locally after version, or with any write still unsettled,
// keep their local flag.
func (s *SaveService) TrackAt(version uint64, listings ...models.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range listings {
		c, ok := s.cells[l.ID]
		if !ok {
			s.cells[l.ID] = optimistic.NewCell(l.IsSaved)
			continue
		}
		if s.lastWrite[l.ID] > version {
			continue
		}
		c.Sync(l.IsSaved)
	}
}

// begin records a local write to id and returns its cell.
func (s *SaveService) begin(id int) *optimistic.Cell[bool] {
	s.mu.Lock()
	s.writes++
	s.lastWrite[id] = s.writes
	s.mu.Unlock()
	return s.cell(id)
}

func (s *SaveService) cell(id int) *optimistic.Cell[bool] {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cells[id]
	if !ok {
		c = optimistic.NewCell(false)
		s.cells[id] = c
	}
	return c
}

// Saved reports the current local flag for listing id.
func (s *SaveService) Saved(id int) bool {
	return s.cell(id).Get()
}

func (s *SaveService) commit(id int) func(context.Context, bool) error {
	return func(ctx context.Context, saved bool) error {
		if saved {
			return s.api.SaveListing(ctx, id)
		}
		return s.api.UnsaveListing(ctx, id)
	}
}

// Toggle flips the saved flag of listing id. While an earlier toggle of the
// same listing is unsettled the call is dropped with optimistic.ErrInFlight.
func (s *SaveService) Toggle(ctx context.Context, id int) (bool, error) {
	saved, err := s.begin(id).Toggle(ctx, func(v bool) bool { return !v }, s.commit(id))
	if errors.Is(err, optimistic.ErrInFlight) {
		s.logger.Debug(ctx, "toggle dropped, previous one in flight", "listing_id", id)
		return saved, err
	}
	s.report(ctx, id, saved, err)
	return saved, err
}

// Set moves listing id to saved. Overlapping calls resolve last-writer-wins.
func (s *SaveService) Set(ctx context.Context, id int, saved bool) error {
	err := s.begin(id).Set(ctx, saved, s.commit(id))
	s.report(ctx, id, saved, err)
	return err
}

func (s *SaveService) report(ctx context.Context, id int, saved bool, err error) {
	if err != nil {
		s.logger.Warn(ctx, "saved flag update failed", "listing_id", id, "error", err)
		s.notifier.Error(client.UserMessage(err, msgSaveFailed))
		return
	}
	if saved {
		s.notifier.Success(msgSaved)
	} else {
		s.notifier.Success(msgUnsaved)
	}
}

// SavedListings fetches the user's saved listings and marks them saved
// locally.
func (s *SaveService) SavedListings(ctx context.Context) ([]models.Listing, error) {
	version := s.Version()
	page, err := s.api.SavedListings(ctx)
	if err != nil {
		s.notifier.Error(client.UserMessage(err, msgSavedFailed))
		return nil, err
	}
	out := make([]models.Listing, 0, len(page.Results))
	for _, sl := range page.Results {
		l := sl.Listing
		l.IsSaved = true
		out = append(out, l)
	}
	s.TrackAt(version, out...)
	return out, nil
}
