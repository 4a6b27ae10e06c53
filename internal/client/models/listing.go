package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type ListingStatus string

const (
	StatusAvailable ListingStatus = "available"
	StatusReserved  ListingStatus = "reserved"
	StatusSold      ListingStatus = "sold"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusSold:
		return true
	}
	return false
}

type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionGood Condition = "good"
	ConditionUsed Condition = "used"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionUsed:
		return true
	}
	return false
}

// Label is the capitalised form shown to users ("good" -> "Good").
func (c Condition) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

type Category struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Icon         string `json:"icon,omitempty"`
	ListingCount int    `json:"listing_count"`
}

// Listing is the read-mostly projection of an item for sale. IsSaved is the
// only field the client changes ahead of server confirmation.
type Listing struct {
	ID           int           `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Price        string        `json:"price"`
	Condition    Condition     `json:"condition"`
	Status       ListingStatus `json:"status"`
	ImageURL     string        `json:"image_url,omitempty"`
	IsSaved      bool          `json:"is_saved"`
	CategoryName string        `json:"category_name,omitempty"`
	CreatedAt    string        `json:"created_at,omitempty"`
	Seller       User          `json:"seller"`
}

// PriceValue parses the decimal price string sent by the backend.
func (l Listing) PriceValue() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(l.Price), 64)
	if err != nil {
		return 0, fmt.Errorf("listing %d: bad price %q: %w", l.ID, l.Price, err)
	}
	return v, nil
}

// FormatPrice renders a price in pounds with two decimals.
func FormatPrice(v float64) string {
	return fmt.Sprintf("£%.2f", v)
}

// ListingInput is the body of a listing create or partial update. Empty
// fields are left out.
type ListingInput struct {
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Price       string    `json:"price,omitempty"`
	Condition   Condition `json:"condition,omitempty"`
	Category    string    `json:"category,omitempty"`
}

var (
	ErrTitleRequired    = errors.New("please enter a title")
	ErrInvalidPrice     = errors.New("please enter a valid price")
	ErrCategoryRequired = errors.New("please select a category")
	ErrInvalidCondition = errors.New("condition must be new, good or used")
)

// Validate checks in as a new listing: a title, a positive price and a
// category are required.
func (in ListingInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrTitleRequired
	}
	if err := ValidatePrice(in.Price); err != nil {
		return err
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrCategoryRequired
	}
	if in.Condition != "" && !in.Condition.Valid() {
		return ErrInvalidCondition
	}
	return nil
}

// ValidatePrice accepts a finite positive decimal amount.
func ValidatePrice(s string) error {
	p, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return ErrInvalidPrice
	}
	return nil
}

type SavedListing struct {
	ID        int     `json:"id"`
	Listing   Listing `json:"listing"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// Page is the paginated envelope used by list endpoints.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// UnmarshalJSON accepts the envelope or a bare array, which some endpoints
// return when pagination is off.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*p = Page[T]{Count: len(items), Results: items}
		return nil
	}
	type envelope Page[T]
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	*p = Page[T](e)
	return nil
}
