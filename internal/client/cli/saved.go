package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/campusmarket/internal/optimistic"
)

// reportedError marks an error the user has already been told about by a
// notification.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

func (a *App) Save(ctx context.Context, value string) error {
	return a.setSaved(ctx, value, true)
}

func (a *App) Unsave(ctx context.Context, value string) error {
	return a.setSaved(ctx, value, false)
}

func (a *App) setSaved(ctx context.Context, value string, saved bool) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := parseID(value)
	if err != nil {
		return err
	}
	return reported(a.saves.Set(ctx, id, saved))
}

// Toggle flips the saved flag. A repeat while the previous toggle is still
// in flight is ignored.
func (a *App) Toggle(ctx context.Context, value string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := parseID(value)
	if err != nil {
		return err
	}
	_, err = a.saves.Toggle(ctx, id)
	if errors.Is(err, optimistic.ErrInFlight) {
		return nil
	}
	return reported(err)
}

// Saved prints the user's saved listings.
func (a *App) Saved(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	listings, err := a.saves.SavedListings(ctx)
	if err != nil {
		return reported(err)
	}
	if len(listings) == 0 {
		fmt.Fprintln(a.out, "No saved listings")
		return nil
	}
	a.printListings(listings)
	return nil
}
