package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"

	// DefaultCategory is used for transactions without a category.
	DefaultCategory = "Other"

	// UntitledGoal is shown for goals whose title was never set.
	UntitledGoal = "Untitled goal"
)

// Categories offered by the entry form. The API accepts free text too.
var Categories = []string{
	"Housing",
	"Groceries",
	"Dining",
	"Transportation",
	"Utilities",
	"Shopping",
	"Income",
	"Health",
	"Entertainment",
	"Education",
	"Other",
}

// Methods offered by the entry form.
var Methods = []string{"Credit card", "Bank account", "Cash", "Wallet"}

type (
	// Date is a calendar date stored at UTC midnight.
	Date struct {
		time.Time
	}

	// Transaction is a single movement of money. Amount keeps the signed
	// display string (e.g. "+$750.00"); Positive must agree with its sign.
	Transaction struct {
		ID          int64  `json:"id,string"`
		Description string `json:"description"`
		Method      string `json:"method"`
		Date        Date   `json:"date"`
		Amount      string `json:"amount"`
		Positive    bool   `json:"positive"`
		Category    string `json:"category"`
	}

	Goal struct {
		ID            int64     `json:"id,string"`
		Title         string    `json:"title"`
		TargetAmount  float64   `json:"targetAmount"`
		CurrentAmount float64   `json:"currentAmount"`
		DueDate       *Date     `json:"dueDate"`
		CreatedAt     time.Time `json:"createdAt"`
	}

	// GoalPatch carries the fields of a partial goal update; nil means unchanged.
	GoalPatch struct {
		Title         *string
		TargetAmount  *float64
		CurrentAmount *float64
		DueDate       *Date
		ClearDueDate  bool
	}

	Notification struct {
		ID        int64     `json:"id,string"`
		Title     string    `json:"title"`
		Body      string    `json:"body"`
		Href      string    `json:"href,omitempty"`
		Read      bool      `json:"read"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

var (
	ErrInvalidDate         = errors.New("invalid date")
	ErrEmptyDescription    = errors.New("empty description")
	ErrEmptyMethod         = errors.New("empty method")
	ErrUnparseableAmount   = errors.New("unparseable amount")
	ErrSignMismatch        = errors.New("amount sign does not match positive flag")
	ErrEmptyTitle          = errors.New("empty title")
	ErrInvalidTargetAmount = errors.New("target amount must be a non-negative number")
	ErrInvalidGoalAmount   = errors.New("current amount must be a non-negative number")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and keeps only the
// calendar date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ValidationError maps field names to the problems found on them.
type ValidationError struct {
	Fields map[string][]string
}

func (v *ValidationError) Add(field string, err error) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], err.Error())
}

// Merge folds the fields of another ValidationError into v. Any other
// error is recorded under field.
func (v *ValidationError) Merge(field string, err error) {
	if err == nil {
		return
	}
	var other *ValidationError
	if errors.As(err, &other) {
		for k, msgs := range other.Fields {
			if v.Fields == nil {
				v.Fields = make(map[string][]string)
			}
			v.Fields[k] = append(v.Fields[k], msgs...)
		}
		return
	}
	v.Add(field, err)
}

// Err returns nil when no field failed.
func (v *ValidationError) Err() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Normalize trims free-text fields and applies the category default.
func (t *Transaction) Normalize() {
	t.Description = strings.TrimSpace(t.Description)
	t.Method = strings.TrimSpace(t.Method)
	t.Amount = strings.TrimSpace(t.Amount)
	t.Category = strings.TrimSpace(t.Category)
	if t.Category == "" {
		t.Category = DefaultCategory
	}
}

func (t Transaction) Validate() error {
	var verr ValidationError
	if strings.TrimSpace(t.Description) == "" {
		verr.Add("description", ErrEmptyDescription)
	}
	if strings.TrimSpace(t.Method) == "" {
		verr.Add("method", ErrEmptyMethod)
	}
	if err := t.Date.Validate(); err != nil {
		verr.Add("date", err)
	}
	if _, err := ParseAmountStrict(t.Amount); err != nil {
		verr.Add("amount", err)
	} else if IsNegativeAmount(t.Amount) == t.Positive {
		verr.Add("positive", ErrSignMismatch)
	}
	return verr.Err()
}

// Value is the signed numeric amount, zero when the display string is malformed.
func (t Transaction) Value() float64 {
	return ParseAmount(t.Amount)
}

// DisplayTitle returns the title or the untitled placeholder.
func (g Goal) DisplayTitle() string {
	if strings.TrimSpace(g.Title) == "" {
		return UntitledGoal
	}
	return g.Title
}

func (g Goal) Validate() error {
	var verr ValidationError
	if strings.TrimSpace(g.Title) == "" {
		verr.Add("title", ErrEmptyTitle)
	}
	if !validGoalAmount(g.TargetAmount) {
		verr.Add("targetAmount", ErrInvalidTargetAmount)
	}
	if !validGoalAmount(g.CurrentAmount) {
		verr.Add("currentAmount", ErrInvalidGoalAmount)
	}
	return verr.Err()
}

// Apply copies the set fields of p onto g.
func (p GoalPatch) Apply(g Goal) (Goal, error) {
	var verr ValidationError
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			verr.Add("title", ErrEmptyTitle)
		}
		g.Title = strings.TrimSpace(*p.Title)
	}
	if p.TargetAmount != nil {
		if !validGoalAmount(*p.TargetAmount) {
			verr.Add("targetAmount", ErrInvalidTargetAmount)
		}
		g.TargetAmount = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		if !validGoalAmount(*p.CurrentAmount) {
			verr.Add("currentAmount", ErrInvalidGoalAmount)
		}
		g.CurrentAmount = *p.CurrentAmount
	}
	if p.ClearDueDate {
		g.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		g.DueDate = &d
	}
	if err := verr.Err(); err != nil {
		return Goal{}, err
	}
	return g, nil
}

// CompletionNotification is the notice recorded when a goal is completed.
func (g Goal) CompletionNotification() Notification {
	return Notification{
		Title: "Goal completed ✅",
		Body:  "You completed your \"" + g.DisplayTitle() + "\" goal!",
		Href:  "/goals",
	}
}

// UnreadBadge renders an unread counter, capped at "99+".
func UnreadBadge(count int) string {
	if count <= 0 {
		return ""
	}
	if count > 99 {
		return "99+"
	}
	return fmt.Sprintf("%d", count)
}
