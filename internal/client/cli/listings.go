package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/campusmarket/internal/client/models"
	"github.com/dmitrijs2005/campusmarket/internal/client/services"
)

// anyValue clears a filter when given as its argument.
const anyValue = "-"

func orAny(s string) string {
	if s == anyValue {
		return ""
	}
	return s
}

// Search sets the free-text query. The fetch is debounced by the service;
// the REPL then waits for it so results print once.
func (a *App) Search(ctx context.Context, text string) error {
	a.search.SetText(text)
	return a.ShowResults(ctx)
}

func (a *App) Category(ctx context.Context, slug string) error {
	a.search.SetCategory(orAny(slug))
	return a.ShowResults(ctx)
}

func (a *App) Condition(ctx context.Context, value string) error {
	if err := a.search.SetCondition(models.Condition(strings.ToLower(orAny(value)))); err != nil {
		return err
	}
	return a.ShowResults(ctx)
}

func (a *App) Price(ctx context.Context, minPrice, maxPrice string) error {
	if err := a.search.SetPriceRange(orAny(minPrice), orAny(maxPrice)); err != nil {
		return err
	}
	return a.ShowResults(ctx)
}

func (a *App) Sort(ctx context.Context, value string) error {
	if err := a.search.SetSort(value); err != nil {
		return err
	}
	return a.ShowResults(ctx)
}

func (a *App) Page(ctx context.Context, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("page must be a number: %q", value)
	}
	if err := a.search.SetPage(n); err != nil {
		return err
	}
	return a.ShowResults(ctx)
}

func (a *App) Clear(ctx context.Context) error {
	a.search.Clear()
	return a.ShowResults(ctx)
}

// ShowResults waits for the latest fetch and prints it. The first call
// fetches the unfiltered list.
func (a *App) ShowResults(ctx context.Context) error {
	if a.search.Results().Seq == 0 {
		a.search.Refresh()
	}
	r, err := a.search.Wait(ctx)
	if err != nil {
		return err
	}
	if r.Err != nil {
		return reported(r.Err)
	}

	fmt.Fprintln(a.out, describeFilter(r.Filter))
	if r.Empty {
		if r.Filter.Active() {
			fmt.Fprintln(a.out, "No listings match your filters")
		} else {
			fmt.Fprintln(a.out, "No listings yet")
		}
		return nil
	}
	a.printListings(r.Listings)
	fmt.Fprintf(a.out, "%d of %d listings\n", len(r.Listings), r.Count)
	return nil
}

// Show prints one listing in full.
func (a *App) Show(ctx context.Context, value string) error {
	id, err := parseID(value)
	if err != nil {
		return err
	}
	l, err := a.api.GetListing(ctx, id)
	if err != nil {
		return err
	}
	a.saves.Track(l)

	fmt.Fprintf(a.out, "#%d %s\n", l.ID, l.Title)
	fmt.Fprintf(a.out, "Price: %s\n", price(l))
	fmt.Fprintf(a.out, "Condition: %s\n", l.Condition.Label())
	fmt.Fprintf(a.out, "Status: %s\n", l.Status)
	if l.CategoryName != "" {
		fmt.Fprintf(a.out, "Category: %s\n", l.CategoryName)
	}
	fmt.Fprintf(a.out, "Seller: %s\n", l.Seller.DisplayName())
	if l.Description != "" {
		fmt.Fprintln(a.out, l.Description)
	}
	return nil
}

func (a *App) Categories(ctx context.Context) error {
	page, err := a.api.ListCategories(ctx)
	if err != nil {
		return err
	}
	for _, c := range page.Results {
		fmt.Fprintf(a.out, "%-20s %s\n", c.Slug, c.Name)
	}
	return nil
}

// Mine lists the signed-in user's own listings.
func (a *App) Mine(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	page, err := a.api.MyListings(ctx)
	if err != nil {
		return err
	}
	if len(page.Results) == 0 {
		fmt.Fprintln(a.out, "You have no listings")
		return nil
	}
	a.printListings(page.Results)
	return nil
}

// Mark moves one of the user's listings to available, reserved or sold.
func (a *App) Mark(ctx context.Context, value, status string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := parseID(value)
	if err != nil {
		return err
	}
	st := models.ListingStatus(strings.ToLower(status))
	if !st.Valid() {
		return fmt.Errorf("status must be available, reserved or sold: %q", status)
	}
	if err := a.api.MarkListing(ctx, id, st); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Listing %d marked %s\n", id, st)
	return nil
}

func (a *App) printListings(listings []models.Listing) {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, l := range listings {
		mark := " "
		if a.saves.Saved(l.ID) {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t#%d\t%s\t%s\t%s\t%s\n", mark, l.ID, l.Title, price(l), l.Condition.Label(), l.Status)
	}
	tw.Flush()
}

func describeFilter(f services.Filter) string {
	parts := []string{"Sort: " + services.SortLabel(f.Sort)}
	if t := strings.TrimSpace(f.Text); t != "" {
		parts = append(parts, fmt.Sprintf("search %q", t))
	}
	if f.Category != "" {
		parts = append(parts, "category "+f.Category)
	}
	if f.Condition != "" {
		parts = append(parts, "condition "+f.Condition.Label())
	}
	if f.MinPrice != "" || f.MaxPrice != "" {
		parts = append(parts, fmt.Sprintf("price %s..%s", f.MinPrice, f.MaxPrice))
	}
	if f.Page > 0 {
		parts = append(parts, fmt.Sprintf("page %d", f.Page))
	}
	return strings.Join(parts, ", ")
}

func price(l models.Listing) string {
	v, err := l.PriceValue()
	if err != nil {
		return l.Price
	}
	return models.FormatPrice(v)
}

func parseID(value string) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("listing id must be a positive number: %q", value)
	}
	return id, nil
}
