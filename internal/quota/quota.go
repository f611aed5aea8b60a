// Package quota enforces the per-account daily download allowance and ban
// state. The persisted record lives in an external store (SQLite or REST);
// the Gate layers a session-scoped optimistic counter on top of a cached
// server snapshot so bursts of downloads cannot overrun the limit while
// store writes are still in flight.
package quota

import (
	"context"
	"time"
)

// DailyLimit is the fixed number of downloads allowed per account per day.
const DailyLimit = 50

// Daily counters reset when the business day rolls over in this fixed zone,
// regardless of the device's local timezone.
var resetZone = time.FixedZone("UTC+7", 7*60*60)

// UsageKind distinguishes the two counted operations.
type UsageKind string

const (
	KindPlay     UsageKind = "play"
	KindDownload UsageKind = "download"
)

// Record is the persisted per-account usage and ban state.
type Record struct {
	AccountID      string    `json:"account_id"`
	TotalPlays     int64     `json:"total_plays"`
	TotalDownloads int64     `json:"total_downloads"`
	DailyPlays     int64     `json:"daily_plays"`
	DailyDownloads int64     `json:"daily_downloads"`
	LastReset      time.Time `json:"last_reset"`
	Banned         bool      `json:"banned"`
}

// NormalizedAt returns a copy of r with the daily counters zeroed when the
// last reset falls on an earlier business day than now.
func (r Record) NormalizedAt(now time.Time) Record {
	if DayKey(r.LastReset) != DayKey(now) {
		r.DailyPlays = 0
		r.DailyDownloads = 0
	}
	return r
}

// DayKey maps a timestamp onto its business day in the fixed reset zone.
func DayKey(t time.Time) string {
	return t.In(resetZone).Format("2006-01-02")
}

// Mutation is a partial update of a Record. Nil fields are left untouched by
// the store, giving partial-field merge semantics on every backend.
type Mutation struct {
	TotalPlays     *int64     `json:"total_plays,omitempty"`
	TotalDownloads *int64     `json:"total_downloads,omitempty"`
	DailyPlays     *int64     `json:"daily_plays,omitempty"`
	DailyDownloads *int64     `json:"daily_downloads,omitempty"`
	LastReset      *time.Time `json:"last_reset,omitempty"`
	Banned         *bool      `json:"banned,omitempty"`
}

// Store is the persistence boundary for quota records. Read returns
// (nil, nil) when no record exists for the account. Implementations must not
// leak backend details to callers; the Gate never branches on backend.
type Store interface {
	Read(ctx context.Context, accountID string) (*Record, error)
	Apply(ctx context.Context, accountID string, m Mutation) error
}

func i64(v int64) *int64          { return &v }
func tptr(t time.Time) *time.Time { return &t }
