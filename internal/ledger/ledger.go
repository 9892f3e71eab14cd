// Package ledger keeps the per-date punch records and the banked-hours
// balance derived from them.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Tiliavir/punch/internal/model"
	"github.com/Tiliavir/punch/internal/observability"
	"github.com/Tiliavir/punch/internal/timecalc"
)

const (
	// ExpectedMinutesPerDay is the workday every computable total is
	// measured against.
	ExpectedMinutesPerDay = 480
	// DefaultBreak is the break assigned to newly created records.
	DefaultBreak = "01:00"

	// fallbackBreakMinutes applies when a stored break cannot be parsed.
	fallbackBreakMinutes = 60
)

// Store persists ledger snapshots.
type Store interface {
	Load() (model.Snapshot, error)
	Save(model.Snapshot) error
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLocation sets the zone punches are keyed and stamped in.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics publishes punch counts and balance to m.
func WithMetrics(m *observability.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// Ledger owns the punch records of one user. Records are ordered
// most-recent-first and unique by date key.
type Ledger struct {
	mu      sync.Mutex
	store   Store
	now     func() time.Time
	loc     *time.Location
	logger  *zap.Logger
	metrics *observability.Metrics

	records []model.PunchRecord
	bank    string
	status  string
}

// Open loads the last snapshot from store and returns a ready Ledger.
func Open(store Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:  store,
		now:    time.Now,
		loc:    time.Local,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	snap, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	l.records = l.normalize(snap.Records)
	l.bank = ComputeBank(l.records)
	if snap.Bank != "" && snap.Bank != l.bank {
		l.logger.Warn("stored bank balance disagrees with ledger, using recomputed value",
			zap.String("stored", snap.Bank),
			zap.String("recomputed", l.bank),
		)
	}
	l.publish()

	l.logger.Debug("ledger loaded",
		zap.Int("records", len(l.records)),
		zap.String("bank", l.bank),
	)
	return l, nil
}

// RecordPunch stamps the current time into today's record, recomputes the
// day's total and the bank balance, and persists the ledger.
//
// The in-memory ledger is updated even when persisting fails; the save is
// not retried and its error is returned for display.
func (l *Ledger) RecordPunch(kind model.PunchKind, loc *model.Location) (model.PunchRecord, error) {
	if kind != model.ClockIn && kind != model.ClockOut {
		return model.PunchRecord{}, fmt.Errorf("%w: %q", model.ErrInvalidKind, kind)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().In(l.loc)
	key := timecalc.DateKey(now)
	at := timecalc.ClockTime(now)

	var rec *model.PunchRecord
	if i := l.indexOf(key); i >= 0 {
		rec = &l.records[i]
		stamp(rec, kind, at, loc)
	} else {
		created := model.PunchRecord{
			Date:     key,
			ClockIn:  timecalc.Placeholder,
			ClockOut: timecalc.Placeholder,
			Break:    DefaultBreak,
			Total:    timecalc.Placeholder,
			Bank:     timecalc.Placeholder,
		}
		stamp(&created, kind, at, loc)
		l.records = append([]model.PunchRecord{created}, l.records...)
		rec = &l.records[0]
	}
	applyTotal(rec)

	l.bank = ComputeBank(l.records)
	l.status = statusMessage(kind, at)
	out := cloneRecord(*rec)

	if l.metrics != nil {
		l.metrics.IncrPunch(string(kind))
	}
	l.publish()

	l.logger.Info("punch recorded",
		zap.String("kind", string(kind)),
		zap.String("date", key),
		zap.String("time", at),
		zap.String("total", out.Total),
		zap.String("bank", l.bank),
	)

	if err := l.store.Save(l.snapshotLocked()); err != nil {
		l.logger.Error("persisting ledger failed", zap.Error(err))
		if l.metrics != nil {
			l.metrics.IncrPersistError()
		}
		return out, fmt.Errorf("persisting ledger: %w", err)
	}
	return out, nil
}

// Records returns a copy of the ledger, most recent first.
func (l *Ledger) Records() []model.PunchRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneRecords(l.records)
}

// Bank returns the current banked-hours balance.
func (l *Ledger) Bank() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bank
}

// Status returns the message describing the last punch of this session.
func (l *Ledger) Status() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// State returns records, bank and status in one consistent read.
func (l *Ledger) State() model.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return model.State{
		Records: cloneRecords(l.records),
		Bank:    l.bank,
		Status:  l.status,
	}
}

// Today returns the record for the current date, if any.
func (l *Ledger) Today() (model.PunchRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(timecalc.DateKey(l.now().In(l.loc))); i >= 0 {
		return cloneRecord(l.records[i]), true
	}
	return model.PunchRecord{}, false
}

// Location returns the zone the ledger keys records in.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

func cloneRecords(records []model.PunchRecord) []model.PunchRecord {
	out := make([]model.PunchRecord, len(records))
	for i, r := range records {
		out[i] = cloneRecord(r)
	}
	return out
}

func cloneRecord(r model.PunchRecord) model.PunchRecord {
	r.ClockInLocation = r.ClockInLocation.Clone()
	r.ClockOutLocation = r.ClockOutLocation.Clone()
	return r
}

// normalize enforces the ledger invariants on loaded records: one record per
// date key (the first, most recent, occurrence wins) and totals derived from
// clock-in, clock-out and break.
func (l *Ledger) normalize(records []model.PunchRecord) []model.PunchRecord {
	out := make([]model.PunchRecord, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if seen[r.Date] {
			l.logger.Warn("dropping duplicate record for date", zap.String("date", r.Date))
			continue
		}
		seen[r.Date] = true

		stored := r.Total
		if timecalc.DiffMinutes(r.ClockIn, r.ClockOut).IsKnown() {
			applyTotal(&r)
		} else {
			r.Total = timecalc.Placeholder
			r.Bank = timecalc.Placeholder
		}
		if r.Total != stored {
			l.logger.Warn("stored total disagrees with punch times, using recomputed value",
				zap.String("date", r.Date),
				zap.String("stored", stored),
				zap.String("recomputed", r.Total),
			)
		}
		out = append(out, cloneRecord(r))
	}
	return out
}

func (l *Ledger) indexOf(key string) int {
	for i := range l.records {
		if l.records[i].Date == key {
			return i
		}
	}
	return -1
}

func (l *Ledger) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		Records: cloneRecords(l.records),
		Bank:    l.bank,
	}
}

func (l *Ledger) publish() {
	if l.metrics == nil {
		return
	}
	l.metrics.SetLedger(Summarize(l.records).BalanceMinutes, len(l.records))
}

// stamp writes the punch time (and location, when given) into the field
// matching kind. Last write wins.
func stamp(rec *model.PunchRecord, kind model.PunchKind, at string, loc *model.Location) {
	if kind == model.ClockIn {
		rec.ClockIn = at
		if loc != nil {
			rec.ClockInLocation = loc.Clone()
		}
		return
	}
	rec.ClockOut = at
	if loc != nil {
		rec.ClockOutLocation = loc.Clone()
	}
}

// applyTotal derives total and the per-day delta from clock-in, clock-out
// and break. An out-of-order pair floors to a zero-length day. When either
// time is missing the record is left as is.
func applyTotal(rec *model.PunchRecord) {
	diff, ok := timecalc.DiffMinutes(rec.ClockIn, rec.ClockOut).Value()
	if !ok {
		return
	}
	worked := max(0, diff-timecalc.ParseTimeToMinutes(rec.Break).Or(fallbackBreakMinutes))
	rec.Total = timecalc.MinutesToHHMM(worked)
	rec.Bank = timecalc.FormatBankMinutes(worked - ExpectedMinutesPerDay)
}

func statusMessage(kind model.PunchKind, at string) string {
	if kind == model.ClockIn {
		return "Entrada registrada às " + at
	}
	return "Saída registrada às " + at
}
