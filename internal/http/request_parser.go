package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"financy/internal/core"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidNumber = errors.New("expected a number")
	errRequired      = errors.New("required")
	errInvalidID     = errors.New("invalid id")
)

// decodeJSON reads a JSON object body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("empty body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// flexNumber accepts a JSON number or a numeric string. Set is false when
// the field was absent from the body.
type flexNumber struct {
	Set   bool
	Null  bool
	Valid bool
	Value float64
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	n.Set = true
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		n.Null = true
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	n.Valid = true
	n.Value = v
	return nil
}

// optionalDate distinguishes an absent field from an explicit null or "".
type optionalDate struct {
	Set   bool
	Clear bool
	Raw   string
}

func (d *optionalDate) UnmarshalJSON(b []byte) error {
	d.Set = true
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		d.Raw = string(b)
		return nil
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		d.Clear = true
		return nil
	}
	d.Raw = *s
	return nil
}

func (d optionalDate) date() (*core.Date, error) {
	if !d.Set || d.Clear {
		return nil, nil
	}
	parsed, err := core.ParseDate(d.Raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// sanitizeInput trims and removes control characters except tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

type transactionRequest struct {
	Description string     `json:"description"`
	Method      string     `json:"method"`
	Date        string     `json:"date"`
	Amount      string     `json:"amount"`
	Positive    *bool      `json:"positive"`
	Category    string     `json:"category"`
	Value       flexNumber `json:"value"`
}

// transaction converts the request, building the display amount from value
// when amount is empty. Problems that Transaction.Validate cannot see are
// returned in verr.
func (req transactionRequest) transaction() (core.Transaction, core.ValidationError) {
	var verr core.ValidationError
	t := core.Transaction{
		Description: sanitizeInput(req.Description),
		Method:      sanitizeInput(req.Method),
		Amount:      strings.TrimSpace(req.Amount),
		Category:    sanitizeInput(req.Category),
	}
	if d, err := core.ParseDate(req.Date); err == nil {
		t.Date = d
	}

	if t.Amount == "" && req.Value.Set {
		if !req.Value.Valid {
			verr.Add("value", errInvalidNumber)
		} else {
			t.Amount, t.Positive = core.FormatAmount(req.Value.Value)
			return t, verr
		}
	}

	switch {
	case req.Positive != nil:
		t.Positive = *req.Positive
	case t.Amount != "":
		t.Positive = !core.IsNegativeAmount(t.Amount)
	}
	return t, verr
}

type goalRequest struct {
	Title         *string      `json:"title"`
	TargetAmount  flexNumber   `json:"targetAmount"`
	CurrentAmount flexNumber   `json:"currentAmount"`
	DueDate       optionalDate `json:"dueDate"`
}

// goal builds a new goal. Missing currentAmount reads as 0.
func (req goalRequest) goal() (core.Goal, error) {
	var verr core.ValidationError
	var g core.Goal
	if req.Title != nil {
		g.Title = sanitizeInput(*req.Title)
	}

	switch {
	case !req.TargetAmount.Set || req.TargetAmount.Null:
		verr.Add("targetAmount", errRequired)
	case !req.TargetAmount.Valid:
		verr.Add("targetAmount", errInvalidNumber)
	default:
		g.TargetAmount = req.TargetAmount.Value
	}

	if req.CurrentAmount.Set && !req.CurrentAmount.Null {
		if req.CurrentAmount.Valid {
			g.CurrentAmount = req.CurrentAmount.Value
		} else {
			verr.Add("currentAmount", errInvalidNumber)
		}
	}

	due, err := req.DueDate.date()
	if err != nil {
		verr.Add("dueDate", err)
	}
	g.DueDate = due

	verr.Merge("", g.Validate())
	if err := verr.Err(); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

// patch builds a partial update. Validation of values happens in GoalPatch.Apply.
func (req goalRequest) patch() (core.GoalPatch, error) {
	var verr core.ValidationError
	p := core.GoalPatch{}
	if req.Title != nil {
		title := sanitizeInput(*req.Title)
		p.Title = &title
	}

	numberField := func(name string, n flexNumber) *float64 {
		if !n.Set {
			return nil
		}
		if n.Null || !n.Valid {
			verr.Add(name, errInvalidNumber)
			return nil
		}
		v := n.Value
		return &v
	}
	p.TargetAmount = numberField("targetAmount", req.TargetAmount)
	p.CurrentAmount = numberField("currentAmount", req.CurrentAmount)

	if req.DueDate.Set {
		due, err := req.DueDate.date()
		switch {
		case err != nil:
			verr.Add("dueDate", err)
		case due == nil:
			p.ClearDueDate = true
		default:
			p.DueDate = due
		}
	}

	if err := verr.Err(); err != nil {
		return core.GoalPatch{}, err
	}
	return p, nil
}

type notificationPatchRequest struct {
	Read *bool `json:"read"`
}
