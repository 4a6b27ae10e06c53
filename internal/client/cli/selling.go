package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/campusmarket/internal/client/models"
)

var errUnverified = errors.New("verify your email before selling (use 'verify')")

func (a *App) requireSeller() error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if u := a.session.Snapshot().User; u != nil && !u.EmailVerified {
		return errUnverified
	}
	return nil
}

// Create prompts for a new listing and publishes it.
func (a *App) Create(ctx context.Context) error {
	if err := a.requireSeller(); err != nil {
		return err
	}
	var in models.ListingInput
	prompts := []struct {
		text string
		dst  *string
	}{
		{"Title", &in.Title},
		{"Description", &in.Description},
		{"Price in pounds", &in.Price},
		{"Category slug", &in.Category},
	}
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p.text, a.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}
	cond, err := getSimpleText(a.reader, "Condition (new, good, used; empty for good)", a.out)
	if err != nil {
		return err
	}
	in.Condition = models.ConditionGood
	if cond != "" {
		in.Condition = models.Condition(strings.ToLower(cond))
	}
	if err := in.Validate(); err != nil {
		return err
	}

	l, err := a.api.CreateListing(ctx, in)
	if err != nil {
		a.printFieldErrors(err)
		return err
	}
	fmt.Fprintf(a.out, "Listing #%d created\n", l.ID)
	return nil
}

// Edit changes the title, description, price or condition of one of the
// user's listings. Empty answers keep the current value.
func (a *App) Edit(ctx context.Context, value string) error {
	if err := a.requireSeller(); err != nil {
		return err
	}
	id, err := parseID(value)
	if err != nil {
		return err
	}
	var in models.ListingInput
	prompts := []struct {
		text string
		dst  *string
	}{
		{"New title (empty to keep)", &in.Title},
		{"New description (empty to keep)", &in.Description},
		{"New price (empty to keep)", &in.Price},
	}
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p.text, a.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}
	cond, err := getSimpleText(a.reader, "New condition (empty to keep)", a.out)
	if err != nil {
		return err
	}
	in.Condition = models.Condition(strings.ToLower(cond))

	if in == (models.ListingInput{}) {
		fmt.Fprintln(a.out, "Nothing to change")
		return nil
	}
	if in.Price != "" {
		if err := models.ValidatePrice(in.Price); err != nil {
			return err
		}
	}
	if in.Condition != "" && !in.Condition.Valid() {
		return models.ErrInvalidCondition
	}

	l, err := a.api.UpdateListing(ctx, id, in)
	if err != nil {
		a.printFieldErrors(err)
		return err
	}
	fmt.Fprintf(a.out, "Listing #%d updated: %s %s\n", l.ID, l.Title, price(l))
	return nil
}

// Delete removes one of the user's listings after a confirmation.
func (a *App) Delete(ctx context.Context, value string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := parseID(value)
	if err != nil {
		return err
	}
	answer, err := getSimpleText(a.reader, fmt.Sprintf("Delete listing #%d? This cannot be undone (y/N)", id), a.out)
	if err != nil {
		return err
	}
	if ans := strings.ToLower(answer); ans != "y" && ans != "yes" {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}
	if err := a.api.DeleteListing(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Listing #%d deleted\n", id)
	return nil
}
