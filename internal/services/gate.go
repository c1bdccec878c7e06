package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"daylog-backend/internal/models"
)

// EntryStore is the slice of the entry repository the journal services use.
type EntryStore interface {
	CreateSince(ctx context.Context, entry *models.Entry, dayStart time.Time) error
	ExistsSince(ctx context.Context, userID string, since time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Entry, error)
}

// DailyPostGate answers "may this user post now?". A user may publish at most
// one entry per local calendar day; the gate checks whether one already
// exists since the start of the current day in the caller's timezone.
type DailyPostGate struct {
	entries EntryStore
	now     func() time.Time
}

// NewDailyPostGate creates the posting-eligibility gate
func NewDailyPostGate(entries EntryStore) *DailyPostGate {
	return &DailyPostGate{entries: entries, now: time.Now}
}

// CheckEligibility reports whether the user may post right now. A store
// failure is reported as an error, never as eligibility.
func (g *DailyPostGate) CheckEligibility(ctx context.Context, userID string, loc *time.Location) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrInvalidUser
	}

	exists, err := g.entries.ExistsSince(ctx, userID, g.DayStart(loc))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return !exists, nil
}

// DayStart returns the start instant of the current calendar day in loc.
func (g *DailyPostGate) DayStart(loc *time.Location) time.Time {
	now := g.now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}
