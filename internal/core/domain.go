package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	Dining        Category = "Dining"
	Chicken       Category = "Chicken"
	Lovely        Category = "Lovely"
	House         Category = "House"
	Fuel          Category = "Fuel"
	EMI           Category = "EMI"
	NonEssentials Category = "Non-Essentials"
)

const (
	GroupEssentials    Group = "Essentials"
	GroupDogExpenses   Group = "DogExpenses"
	GroupEMI           Group = "EMI"
	GroupNonEssentials Group = "NonEssentials"
)

type (
	// Category is one of the fixed expense labels.
	Category string

	// Group is a fixed bucket of categories used for the summary views.
	Group string

	// GroupDef binds a group to its display label and member categories.
	GroupDef struct {
		Group   Group
		Label   string
		Members []Category
	}

	Money struct {
		Cents int64
	}

	// Entry is the user input for a new record, before the store assigns
	// an id and creation time.
	Entry struct {
		Month    Month    `json:"month"`
		Category Category `json:"category"`
		Amount   Money    `json:"amount"`
		Comment  string   `json:"comment"`
	}

	// Record is a persisted expense. Records are never updated.
	Record struct {
		ID        int64
		Month     Month
		Category  Category
		Amount    Money
		Comment   string
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrUnknownCategory = errors.New("unknown category")
	ErrCommentRequired = errors.New("comment is required for Non-Essentials")
	ErrMalformedLabel  = errors.New("malformed month label")
	ErrNotFound        = errors.New("no records")
)

var categories = []Category{Dining, Chicken, Lovely, House, Fuel, EMI, NonEssentials}

var groups = []GroupDef{
	{Group: GroupEssentials, Label: "Basic (Essentials)", Members: []Category{Dining, House, Fuel}},
	{Group: GroupDogExpenses, Label: "Dog Expenses", Members: []Category{Chicken, Lovely}},
	{Group: GroupEMI, Label: "EMI", Members: []Category{EMI}},
	{Group: GroupNonEssentials, Label: "Non-Essentials", Members: []Category{NonEssentials}},
}

// Categories returns the category enumeration in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// Groups returns the fixed group table. Groups partition Categories().
func Groups() []GroupDef {
	out := make([]GroupDef, len(groups))
	for i, g := range groups {
		out[i] = GroupDef{Group: g.Group, Label: g.Label, Members: append([]Category(nil), g.Members...)}
	}
	return out
}

// ParseCategory maps a label onto the enumeration.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

func (c Category) Validate() error {
	if _, err := ParseCategory(string(c)); err != nil {
		return ErrUnknownCategory
	}
	return nil
}

// RequiresComment reports whether entries in c must carry a comment.
func (c Category) RequiresComment() bool {
	return c == NonEssentials
}

// Group returns the group c belongs to, or "" for an unknown category.
func (c Category) Group() Group {
	for _, g := range groups {
		if g.Contains(c) {
			return g.Group
		}
	}
	return ""
}

func (g GroupDef) Contains(c Category) bool {
	for _, m := range g.Members {
		if m == c {
			return true
		}
	}
	return false
}

// Validate rejects negative amounts and amounts above MaxAmountUnits.
func (m Money) Validate() error {
	if m.Cents < 0 || m.Cents > MaxAmountUnits*100 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Validate checks the entry before it reaches a store. Field failures are
// reported together as a *ValidationError.
func (e Entry) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(&e.Month),
		validation.Field(&e.Category),
		validation.Field(&e.Amount),
		validation.Field(&e.Comment, validation.When(e.Category.RequiresComment(), validation.By(nonBlank))),
	)
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	return err
}

func nonBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return ErrCommentRequired
	}
	return nil
}

// ValidationError collects the per-field problems of an Entry.
type ValidationError struct {
	Fields map[string]error
}

func (e *ValidationError) Error() string {
	return "invalid entry: " + validation.Errors(e.Fields).Error()
}

// Unwrap exposes the field errors to errors.Is, in field name order.
func (e *ValidationError) Unwrap() []error {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]error, 0, len(keys))
	for _, k := range keys {
		out = append(out, e.Fields[k])
	}
	return out
}

// NewRecord stamps an entry with its store identity.
func NewRecord(id int64, e Entry, createdAt time.Time) Record {
	return Record{
		ID:        id,
		Month:     e.Month,
		Category:  e.Category,
		Amount:    e.Amount,
		Comment:   strings.TrimSpace(e.Comment),
		CreatedAt: createdAt,
	}
}
