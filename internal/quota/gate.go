package quota

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Gate owns the ban/quota decision for one account. It keeps a session
// shadow: the server's daily download count cached at seed time plus an
// in-memory counter of downloads completed this session. The shadow is
// re-seeded from the store on the first call of a process lifetime and again
// whenever the local calendar day changes.
//
// Every store operation is best-effort. A failed read or write is logged and
// the gate fails open; availability wins over strict enforcement.
type Gate struct {
	store     Store
	accountID string
	log       *log.Logger
	now       func() time.Time

	mu        sync.Mutex
	seededDay string
	baseDaily int64 // server daily download count at session start
	session   int64 // downloads completed this session, counted optimistically
	banned    bool  // last observed ban flag
}

// NewGate creates a Gate for the given account backed by store.
func NewGate(store Store, accountID string, logger *log.Logger) *Gate {
	return &Gate{
		store:     store,
		accountID: accountID,
		log:       logger,
		now:       time.Now,
	}
}

// IsBanned reads the current ban flag from the store. Store errors fail open.
func (g *Gate) IsBanned(ctx context.Context) bool {
	rec, err := g.store.Read(ctx, g.accountID)
	if err != nil {
		g.log.Warn("quota store read failed, assuming not banned", "account", g.accountID, "err", err)
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.banned = rec != nil && rec.Banned
	return g.banned
}

// Remaining computes the effective remaining download quota:
// limit − (serverDailyCountAtSessionStart + downloadsCompletedThisSession),
// clamped to [0, DailyLimit]. A ban forces it to zero.
func (g *Gate) Remaining(ctx context.Context) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.ensureSeeded(ctx)

	if g.banned {
		return 0
	}

	remaining := DailyLimit - g.baseDaily - g.session
	if remaining < 0 {
		return 0
	}
	if remaining > DailyLimit {
		return DailyLimit
	}
	return int(remaining)
}

// CanProceed reports whether another download may start.
func (g *Gate) CanProceed(ctx context.Context) bool {
	return !g.IsBanned(ctx) && g.Remaining(ctx) > 0
}

// RecordUsage charges one unit of the given kind. The session counter is
// bumped before the store write so Remaining reflects the charge without
// waiting on network latency; the write itself is best-effort.
func (g *Gate) RecordUsage(ctx context.Context, kind UsageKind) {
	now := g.now()

	g.mu.Lock()
	g.ensureSeeded(ctx)
	if kind == KindDownload {
		g.session++
	}
	g.mu.Unlock()

	rec, err := g.store.Read(ctx, g.accountID)
	if err != nil {
		g.log.Warn("quota store read failed, usage not persisted", "account", g.accountID, "kind", kind, "err", err)
		return
	}
	if rec == nil {
		rec = &Record{AccountID: g.accountID}
	}

	// Reset the daily counter first when the business day rolled over since
	// the last recorded usage.
	norm := rec.NormalizedAt(now)

	var m Mutation
	switch kind {
	case KindPlay:
		m.TotalPlays = i64(norm.TotalPlays + 1)
		m.DailyPlays = i64(norm.DailyPlays + 1)
	case KindDownload:
		m.TotalDownloads = i64(norm.TotalDownloads + 1)
		m.DailyDownloads = i64(norm.DailyDownloads + 1)
	}
	if DayKey(rec.LastReset) != DayKey(now) {
		if kind == KindPlay {
			m.DailyDownloads = i64(0)
		} else {
			m.DailyPlays = i64(0)
		}
		m.LastReset = tptr(now)
	}

	if err := g.store.Apply(ctx, g.accountID, m); err != nil {
		g.log.Warn("quota store write failed", "account", g.accountID, "kind", kind, "err", err)
	}
}

// ensureSeeded refreshes the session shadow on the first use of the process
// or when the local calendar day has changed. Callers hold g.mu.
func (g *Gate) ensureSeeded(ctx context.Context) {
	day := g.now().Format("2006-01-02")
	if day == g.seededDay {
		return
	}

	g.seededDay = day
	g.session = 0
	g.baseDaily = 0
	g.banned = false

	rec, err := g.store.Read(ctx, g.accountID)
	if err != nil {
		g.log.Warn("quota store read failed, seeding empty shadow", "account", g.accountID, "err", err)
		return
	}
	if rec == nil {
		return
	}

	norm := rec.NormalizedAt(g.now())
	g.baseDaily = norm.DailyDownloads
	g.banned = rec.Banned
	g.log.Debug("seeded quota shadow", "account", g.accountID, "base_daily", g.baseDaily, "banned", g.banned)
}
