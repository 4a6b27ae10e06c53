package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/campusmarket/internal/client/models"
	"github.com/dmitrijs2005/campusmarket/internal/client/notify"
	"github.com/dmitrijs2005/campusmarket/internal/debounce"
	"github.com/dmitrijs2005/campusmarket/internal/logging"
)

const DefaultSearchDebounce = 500 * time.Millisecond

var ErrClosed = errors.New("search closed")

// Results is what the listing view shows. Seq identifies the fetch that
// produced it.
type Results struct {
	Filter   Filter
	Listings []models.Listing
	Count    int
	Empty    bool
	Err      error
	Loading  bool
	Seq      uint64
}

// SearchService turns filter edits into listing fetches. Text edits are
// debounced, every other edit fetches at once, and only the latest fetch may
// update Results.
type SearchService struct {
	api      ListingAPI
	saves    *SaveService
	notifier notify.Notifier
	logger   logging.Logger
	debounce *debounce.Func

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu      sync.Mutex
	filter  Filter
	results Results
	seq     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	closed  bool
	subs    map[int]func(Results)
	nextSub int
}

// NewSearchService builds a search session. saves may be nil; when set, every
// fetched listing is tracked there. wait <= 0 selects DefaultSearchDebounce.
func NewSearchService(api ListingAPI, saves *SaveService, notifier notify.Notifier, logger logging.Logger, wait time.Duration) *SearchService {
	if wait <= 0 {
		wait = DefaultSearchDebounce
	}
	ctx, stop := context.WithCancel(context.Background())
	s := &SearchService{
		api:      api,
		saves:    saves,
		notifier: notifier,
		logger:   logger,
		ctx:      ctx,
		stop:     stop,
		filter:   DefaultFilter(),
		subs:     make(map[int]func(Results)),
	}
	s.results.Filter = s.filter
	s.debounce = debounce.New(wait, s.fire)
	return s
}

func (s *SearchService) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func (s *SearchService) Results() Results {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SearchService) snapshotLocked() Results {
	r := s.results
	r.Listings = append([]models.Listing(nil), r.Listings...)
	return r
}

// Subscribe calls fn after every change to Results until cancel is called.
func (s *SearchService) Subscribe(fn func(Results)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *SearchService) emit(r Results, subs []func(Results)) {
	for _, f := range subs {
		f(r)
	}
}

func (s *SearchService) subsLocked() []func(Results) {
	out := make([]func(Results), 0, len(s.subs))
	for _, f := range s.subs {
		out = append(out, f)
	}
	return out
}

// SetText changes the free-text query; the fetch waits for typing to pause.
func (s *SearchService) SetText(text string) {
	if s.mutate(func(f *Filter) { f.Text = text; f.Page = 0 }, false) {
		s.debounce.Trigger()
	}
}

func (s *SearchService) SetCategory(slug string) {
	s.mutate(func(f *Filter) { f.Category = strings.TrimSpace(slug); f.Page = 0 }, true)
}

func (s *SearchService) SetCondition(c models.Condition) error {
	if c != "" && !c.Valid() {
		return fmt.Errorf("unknown condition %q", c)
	}
	s.mutate(func(f *Filter) { f.Condition = c; f.Page = 0 }, true)
	return nil
}

// SetPriceRange sets both bounds; an empty string leaves that side open.
func (s *SearchService) SetPriceRange(minPrice, maxPrice string) error {
	minPrice, maxPrice = strings.TrimSpace(minPrice), strings.TrimSpace(maxPrice)
	if err := validatePriceRange(minPrice, maxPrice); err != nil {
		return err
	}
	s.mutate(func(f *Filter) { f.MinPrice, f.MaxPrice = minPrice, maxPrice; f.Page = 0 }, true)
	return nil
}

func (s *SearchService) SetSort(value string) error {
	if !validSort(value) {
		return fmt.Errorf("unknown sort %q", value)
	}
	s.mutate(func(f *Filter) { f.Sort = value; f.Page = 0 }, true)
	return nil
}

func (s *SearchService) SetPage(page int) error {
	if page < 1 {
		return fmt.Errorf("page must be positive, got %d", page)
	}
	s.mutate(func(f *Filter) { f.Page = page }, true)
	return nil
}

// Clear resets every filter and fetches the unfiltered list at once.
func (s *SearchService) Clear() {
	s.mutate(func(f *Filter) { *f = DefaultFilter() }, true)
}

// Refresh fetches again with the current filter.
func (s *SearchService) Refresh() {
	s.mutate(func(*Filter) {}, true)
}

// mutate applies fn to the filter. immediate fetches now and drops any
// pending debounced fetch. It reports false once the service is closed.
func (s *SearchService) mutate(fn func(*Filter), immediate bool) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	fn(&s.filter)
	s.results.Filter = s.filter
	if immediate {
		s.debounce.Stop()
		s.startFetchLocked()
	}
	snap, subs := s.snapshotLocked(), s.subsLocked()
	s.mu.Unlock()

	s.emit(snap, subs)
	return true
}

func (s *SearchService) fire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.startFetchLocked()
	snap, subs := s.snapshotLocked(), s.subsLocked()
	s.mu.Unlock()

	s.emit(snap, subs)
}

// startFetchLocked supersedes the in-flight fetch, if any, with one for the
// current filter.
func (s *SearchService) startFetchLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	filter := s.filter
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.results.Loading = true
	s.results.Seq = seq
	var version uint64
	if s.saves != nil {
		version = s.saves.Version()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		defer cancel()
		page, err := s.api.ListListings(ctx, filter.Params())
		s.apply(ctx, seq, version, filter, page, err)
	}()
}

func (s *SearchService) apply(ctx context.Context, seq, version uint64, filter Filter, page models.Page[models.Listing], err error) {
	s.mu.Lock()
	if s.closed || seq != s.seq {
		s.mu.Unlock()
		s.logger.Debug(ctx, "discarding stale listing results", "seq", seq)
		return
	}
	if err != nil {
		s.results.Loading = false
		s.results.Err = err
		snap, subs := s.snapshotLocked(), s.subsLocked()
		s.mu.Unlock()

		s.logger.Warn(ctx, "listing fetch failed", "seq", seq, "error", err)
		s.notifier.Error(msgLoadFailed)
		s.emit(snap, subs)
		return
	}
	s.results = Results{
		Filter:   filter,
		Listings: page.Results,
		Count:    page.Count,
		Empty:    len(page.Results) == 0,
		Seq:      seq,
	}
	snap, subs := s.snapshotLocked(), s.subsLocked()
	s.mu.Unlock()

	if s.saves != nil {
		s.saves.TrackAt(version, page.Results...)
	}
	s.emit(snap, subs)
}

// Wait runs any pending debounced fetch now and blocks until the latest
// fetch has settled.
func (s *SearchService) Wait(ctx context.Context) (Results, error) {
	if s.debounce.Pending() {
		s.debounce.Flush()
	}
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return Results{}, ErrClosed
		}
		done, seq := s.done, s.seq
		s.mu.Unlock()

		if done == nil {
			return s.Results(), nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return s.Results(), ctx.Err()
		}

		s.mu.Lock()
		latest := seq == s.seq
		s.mu.Unlock()
		if latest {
			return s.Results(), nil
		}
	}
}

// Close stops pending timers, cancels the in-flight fetch and waits for it to
// return. Results arriving afterwards are discarded.
func (s *SearchService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.debounce.Stop()
	s.stop()
	s.wg.Wait()
}
