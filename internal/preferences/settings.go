// Package preferences holds the process-wide user settings: the shopping mode
// flag and the budget margin.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/spf13/cast"
)

const (
	ShoppingModeKey = "shopping_mode"
	MarginPctKey    = "margin_pct"
)

// ErrInvalidMargin is returned for a negative margin.
var ErrInvalidMargin = errors.New("margin must not be negative")

// Values is a snapshot of the settings.
type Values struct {
	ShoppingMode bool    `json:"shopping_mode"`
	MarginPct    float64 `json:"margin_pct"`
}

// Patch changes the non-nil values.
type Patch struct {
	ShoppingMode *bool    `json:"shopping_mode"`
	MarginPct    *float64 `json:"margin_pct"`
}

// Settings is read once with Load and written back on every change.
type Settings struct {
	store    Store
	defaults Values

	mu     sync.RWMutex
	values Values
}

func New(store Store, defaultMargin float64) *Settings {
	defaults := Values{MarginPct: defaultMargin}
	return &Settings{
		store:    store,
		defaults: defaults,
		values:   defaults,
	}
}

// Load reads the stored values. Missing or malformed values fall back to defaults.
func (s *Settings) Load(ctx context.Context) error {
	values := s.defaults

	raw, ok, err := s.store.Get(ctx, ShoppingModeKey)
	if err != nil {
		return err
	}
	if ok {
		if mode, err := cast.ToBoolE(raw); err == nil {
			values.ShoppingMode = mode
		} else {
			slog.Warn("ignoring stored preference", slog.String("key", ShoppingModeKey), slog.String("value", raw))
		}
	}

	raw, ok, err = s.store.Get(ctx, MarginPctKey)
	if err != nil {
		return err
	}
	if ok {
		if margin, err := cast.ToFloat64E(raw); err == nil && margin >= 0 {
			values.MarginPct = margin
		} else {
			slog.Warn("ignoring stored preference", slog.String("key", MarginPctKey), slog.String("value", raw))
		}
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// Save writes the current values.
func (s *Settings) Save(ctx context.Context) error {
	v := s.Snapshot()
	if err := s.store.Set(ctx, ShoppingModeKey, strconv.FormatBool(v.ShoppingMode)); err != nil {
		return err
	}
	return s.store.Set(ctx, MarginPctKey, strconv.FormatFloat(v.MarginPct, 'f', -1, 64))
}

func (s *Settings) Snapshot() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values
}

func (s *Settings) SetShoppingMode(ctx context.Context, on bool) error {
	_, err := s.Apply(ctx, Patch{ShoppingMode: &on})
	return err
}

func (s *Settings) SetMarginPct(ctx context.Context, pct float64) error {
	_, err := s.Apply(ctx, Patch{MarginPct: &pct})
	return err
}

// Apply changes the given values and saves them when anything changed.
// The new values stay in effect even if saving fails.
func (s *Settings) Apply(ctx context.Context, p Patch) (Values, error) {
	if p.MarginPct != nil && *p.MarginPct < 0 {
		return s.Snapshot(), ErrInvalidMargin
	}

	s.mu.Lock()
	before := s.values
	if p.ShoppingMode != nil {
		s.values.ShoppingMode = *p.ShoppingMode
	}
	if p.MarginPct != nil {
		s.values.MarginPct = *p.MarginPct
	}
	after := s.values
	s.mu.Unlock()

	if after == before {
		return after, nil
	}
	if err := s.Save(ctx); err != nil {
		return after, fmt.Errorf("failed to save preferences: %w", err)
	}
	return after, nil
}
