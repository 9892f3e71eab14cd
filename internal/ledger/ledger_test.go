package ledger_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tiliavir/punch/internal/ledger"
	"github.com/Tiliavir/punch/internal/model"
	"github.com/Tiliavir/punch/internal/observability"
	"github.com/Tiliavir/punch/internal/storage"
)

type memStore struct {
	mu      sync.Mutex
	initial model.Snapshot
	saved   []model.Snapshot
	saveErr error
}

func (s *memStore) Load() (model.Snapshot, error) {
	return s.initial, nil
}

func (s *memStore) Save(snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, snap)
	return s.saveErr
}

func (s *memStore) last() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved[len(s.saved)-1]
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(year int, month time.Month, day, hour, min int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func open(t *testing.T, store ledger.Store, clock *fakeClock, opts ...ledger.Option) *ledger.Ledger {
	t.Helper()
	opts = append([]ledger.Option{
		ledger.WithClock(clock.Now),
		ledger.WithLocation(time.UTC),
		ledger.WithLogger(zap.NewNop()),
	}, opts...)
	l, err := ledger.Open(store, opts...)
	require.NoError(t, err)
	return l
}

func TestRecordPunch_ClockInCreatesRecord(t *testing.T) {
	clock := &fakeClock{}
	clock.Set(2026, 10, 19, 9, 0)
	store := &memStore{}
	l := open(t, store, clock)

	assert.Equal(t, "+0:00", l.Bank())

	rec, err := l.RecordPunch(model.ClockIn, nil)
	require.NoError(t, err)

	assert.Equal(t, model.PunchRecord{
		Date:     "19/10/2026",
		ClockIn:  "09:00",
		ClockOut: "--:--",
		Break:    "01:00",
		Total:    "--:--",
		Bank:     "--:--",
	}, rec)

	records := l.Records()
	require.Len(t, records, 1)
	assert.Equal(t, rec, records[0])
	assert.Contains(t, l.Status(), "09:00")
	assert.Equal(t, "Entrada registrada às 09:00", l.Status())
	assert.Equal(t, "+0:00", l.Bank())

	require.Len(t, store.saved, 1)
	assert.Equal(t, "+0:00", store.last().Bank)
	assert.Len(t, store.last().Records, 1)
}

func TestRecordPunch_ClockInThenOut(t *testing.T) {
	clock := &fakeClock{}
	store := &memStore{}
	l := open(t, store, clock)

	clock.Set(2026, 10, 19, 9, 0)
	_, err := l.RecordPunch(model.ClockIn, nil)
	require.NoError(t, err)

	clock.Set(2026, 10, 19, 18, 15)
	rec, err := l.RecordPunch(model.ClockOut, nil)
	require.NoError(t, err)

	assert.Equal(t, "09:00", rec.ClockIn)
	assert.Equal(t, "18:15", rec.ClockOut)
	assert.Equal(t, "08:15", rec.Total)
	assert.Equal(t, "+0:15", rec.Bank)
	assert.Equal(t, "+0:15", l.Bank())
	assert.Equal(t, "Saída registrada às 18:15", l.Status())
	assert.Len(t, l.Records(), 1)
	assert.Equal(t, "+0:15", store.last().Bank)
}

func TestRecordPunch_OutOfOrderFloorsToZero(t *testing.T) {
	clock := &fakeClock{}
	l := open(t, &memStore{}, clock)

	clock.Set(2026, 10, 19, 18, 0)
	_, err := l.RecordPunch(model.ClockIn, nil)
	require.NoError(t, err)

	clock.Set(2026, 10, 19, 18, 30)
	_, err = l.RecordPunch(model.ClockOut, nil)
	require.NoError(t, err)

	// 30 minutes minus the one-hour break would be negative.
	rec, ok := l.Today()
	require.True(t, ok)
	assert.Equal(t, "00:00", rec.Total)
	assert.Equal(t, "-8:00", rec.Bank)
	assert.Equal(t, "-8:00", l.Bank())
}

func TestRecordPunch_ClockOutFirst(t *testing.T) {
	clock := &fakeClock{}
	l := open(t, &memStore{}, clock)

	clock.Set(2026, 10, 19, 7, 0)
	rec, err := l.RecordPunch(model.ClockOut, nil)
	require.NoError(t, err)
	assert.Equal(t, "--:--", rec.ClockIn)
	assert.Equal(t, "07:00", rec.ClockOut)
	assert.Equal(t, "--:--", rec.Total)

	clock.Set(2026, 10, 19, 8, 0)
	rec, err = l.RecordPunch(model.ClockIn, nil)
	require.NoError(t, err)
	assert.Equal(t, "00:00", rec.Total)
}

func TestRecordPunch_LastWriteWins(t *testing.T) {
	clock := &fakeClock{}
	l := open(t, &memStore{}, clock)

	clock.Set(2026, 10, 19, 9, 0)
	_, _ = l.RecordPunch(model.ClockIn, nil)
	clock.Set(2026, 10, 19, 17, 0)
	_, _ = l.RecordPunch(model.ClockOut, nil)
	clock.Set(2026, 10, 19, 18, 0)
	rec, err := l.RecordPunch(model.ClockOut, nil)
	require.NoError(t, err)

	assert.Equal(t, "18:00", rec.ClockOut)
	assert.Equal(t, "08:00", rec.Total)
	assert.Equal(t, "+0:00", l.Bank())
	assert.Len(t, l.Records(), 1)
}

func TestRecordPunch_MultipleDays(t *testing.T) {
	clock := &fakeClock{}
	l := open(t, &memStore{}, clock)

	clock.Set(2026, 10, 19, 9, 0)
	_, _ = l.RecordPunch(model.ClockIn, nil)
	clock.Set(2026, 10, 19, 18, 15)
	_, _ = l.RecordPunch(model.ClockOut, nil)

	clock.Set(2026, 10, 20, 9, 0)
	_, err := l.RecordPunch(model.ClockIn, nil)
	require.NoError(t, err)

	// The open day has no total and does not count yet.
	assert.Equal(t, "+0:15", l.Bank())

	records := l.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "20/10/2026", records[0].Date, "newest record first")
	assert.Equal(t, "19/10/2026", records[1].Date)

	clock.Set(2026, 10, 20, 16, 0)
	_, err = l.RecordPunch(model.ClockOut, nil)
	require.NoError(t, err)

	// 495 + 360 - 2*480 = -105
	assert.Equal(t, "-1:45", l.Bank())
}

func TestRecordPunch_UnparseableBreakFallsBack(t *testing.T) {
	clock := &fakeClock{}
	clock.Set(2026, 10, 19, 17, 0)
	store := &memStore{initial: model.Snapshot{
		Records: []model.PunchRecord{
			{Date: "19/10/2026", ClockIn: "09:00", ClockOut: "--:--", Break: "abc", Total: "--:--", Bank: "--:--"},
			{Date: "18/10/2026", ClockIn: "09:00", ClockOut: "--:--", Break: "00:30", Total: "--:--", Bank: "--:--"},
		},
	}}
	l := open(t, store, clock)

	rec, err := l.RecordPunch(model.ClockOut, nil)
	require.NoError(t, err)
	assert.Equal(t, "07:00", rec.Total, "falls back to a 60 minute break")
	assert.Equal(t, "abc", rec.Break, "break is never rewritten")

	clock.Set(2026, 10, 18, 17, 0)
	rec, err = l.RecordPunch(model.ClockOut, nil)
	require.NoError(t, err)
	assert.Equal(t, "07:30", rec.Total, "stored break is honored")
}

func TestRecordPunch_StoresLocation(t *testing.T) {
	clock := &fakeClock{}
	clock.Set(2026, 10, 19, 9, 0)
	l := open(t, &memStore{}, clock)

	lat, lng := -23.55, -46.63
	office := &model.Location{Label: "Office", Latitude: &lat, Longitude: &lng}
	_, err := l.RecordPunch(model.ClockIn, office)
	require.NoError(t, err)

	clock.Set(2026, 10, 19, 18, 0)
	rec, err := l.RecordPunch(model.ClockOut, nil)
	require.NoError(t, err)

	assert.Equal(t, office, rec.ClockInLocation)
	assert.Nil(t, rec.ClockOutLocation)
}

func TestRecordPunch_InvalidKind(t *testing.T) {
	clock := &fakeClock{}
	clock.Set(2026, 10, 19, 9, 0)
	store := &memStore{}
	l := open(t, store, clock)

	_, err := l.RecordPunch(model.PunchKind("lunch"), nil)
	assert.ErrorIs(t, err, model.ErrInvalidKind)
	assert.Empty(t, l.Records())
	assert.Empty(t, store.saved)
}

func TestRecordPunch_PersistFailureKeepsState(t *testing.T) {
	clock := &fakeClock{}
	clock.Set(2026, 10, 19, 9, 0)
	store := &memStore{saveErr: errors.New("disk full")}
	metrics := observability.NewMetrics()
	l := open(t, store, clock, ledger.WithMetrics(metrics))

	rec, err := l.RecordPunch(model.ClockIn, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, "09:00", rec.ClockIn)
	assert.Len(t, l.Records(), 1)
	assert.Len(t, store.saved, 1, "no retry")
}

func TestRecordPunch_TimeZone(t *testing.T) {
	clock := &fakeClock{}
	// 01:30 UTC is still the previous evening in UTC-3.
	clock.Set(2026, 10, 20, 1, 30)
	l := open(t, &memStore{}, clock, ledger.WithLocation(time.FixedZone("BRT", -3*3600)))

	rec, err := l.RecordPunch(model.ClockOut, nil)
	require.NoError(t, err)
	assert.Equal(t, "19/10/2026", rec.Date)
	assert.Equal(t, "22:30", rec.ClockOut)
}

func TestRecordPunch_Concurrent(t *testing.T) {
	clock := &fakeClock{}
	clock.Set(2026, 10, 19, 9, 0)
	l := open(t, &memStore{}, clock)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := model.ClockIn
			if i%2 == 1 {
				kind = model.ClockOut
			}
			_, _ = l.RecordPunch(kind, nil)
		}(i)
	}
	wg.Wait()

	assert.Len(t, l.Records(), 1)
}

func TestOpen_RecomputesStoredBank(t *testing.T) {
	store := &memStore{initial: model.Snapshot{
		Records: []model.PunchRecord{
			{Date: "19/10/2026", ClockIn: "09:00", ClockOut: "18:15", Break: "01:00", Total: "08:15", Bank: "+0:15"},
		},
		Bank: "+9:99",
	}}
	l := open(t, store, &fakeClock{})
	assert.Equal(t, "+0:15", l.Bank())
	assert.Empty(t, l.Status())
}

func TestLedger_RoundTripThroughStorage(t *testing.T) {
	dir := t.TempDir()
	clock := &fakeClock{}

	first := open(t, storage.NewSnapshotStore(storage.NewFileKV(dir), ""), clock)
	clock.Set(2026, 10, 19, 9, 0)
	_, _ = first.RecordPunch(model.ClockIn, &model.Location{Label: "Home"})
	clock.Set(2026, 10, 19, 18, 15)
	_, _ = first.RecordPunch(model.ClockOut, nil)
	clock.Set(2026, 10, 20, 8, 45)
	_, err := first.RecordPunch(model.ClockIn, nil)
	require.NoError(t, err)

	second := open(t, storage.NewSnapshotStore(storage.NewFileKV(dir), ""), clock)

	if diff := cmp.Diff(first.Records(), second.Records()); diff != "" {
		t.Errorf("records mismatch after reload (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.Bank(), second.Bank())
	assert.Equal(t, "+0:15", second.Bank())

	today, ok := second.Today()
	require.True(t, ok)
	assert.Equal(t, "08:45", today.ClockIn)
}

func TestState(t *testing.T) {
	clock := &fakeClock{}
	clock.Set(2026, 10, 19, 9, 0)
	l := open(t, &memStore{}, clock)
	_, _ = l.RecordPunch(model.ClockIn, nil)

	st := l.State()
	assert.Len(t, st.Records, 1)
	assert.Equal(t, "+0:00", st.Bank)
	assert.Equal(t, "Entrada registrada às 09:00", st.Status)

	// The returned slice is a copy.
	st.Records[0].ClockIn = "00:00"
	assert.Equal(t, "09:00", l.Records()[0].ClockIn)
}

func TestRecordPunch_LocationIsCopied(t *testing.T) {
	clock := &fakeClock{}
	clock.Set(2026, 10, 19, 9, 0)
	store := &memStore{}
	l := open(t, store, clock)

	lat := -23.5
	loc := &model.Location{Label: "Office", Latitude: &lat}
	got, err := l.RecordPunch(model.ClockIn, loc)
	require.NoError(t, err)

	// Neither the caller's value nor anything handed out aliases ledger state.
	loc.Label = "changed by caller"
	*loc.Latitude = 0
	got.ClockInLocation.Label = "changed via result"
	l.State().Records[0].ClockInLocation.Label = "changed via state"
	l.Records()[0].ClockInLocation.Label = "changed via records"
	today, ok := l.Today()
	require.True(t, ok)
	today.ClockInLocation.Label = "changed via today"

	stored := l.Records()[0].ClockInLocation
	require.NotNil(t, stored)
	assert.Equal(t, "Office", stored.Label)
	require.NotNil(t, stored.Latitude)
	assert.Equal(t, -23.5, *stored.Latitude)

	saved := store.last().Records[0].ClockInLocation
	assert.Equal(t, "Office", saved.Label)
	assert.Equal(t, -23.5, *saved.Latitude)
}

func TestOpen_RecomputesStoredTotals(t *testing.T) {
	store := &memStore{initial: model.Snapshot{
		Records: []model.PunchRecord{
			{Date: "19/10/2026", ClockIn: "09:00", ClockOut: "--:--", Break: "01:00", Total: "07:00", Bank: "-1:00"},
			{Date: "18/10/2026", ClockIn: "09:00", ClockOut: "18:00", Break: "01:00", Total: "12:00", Bank: "+4:00"},
			{Date: "18/10/2026", ClockIn: "09:00", ClockOut: "17:00", Break: "01:00", Total: "07:00", Bank: "-1:00"},
		},
		Bank: "+3:00",
	}}
	clock := &fakeClock{}
	clock.Set(2026, 10, 18, 19, 0)
	l := open(t, store, clock)

	records := l.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "--:--", records[0].Total)
	assert.Equal(t, "--:--", records[0].Bank)
	assert.Equal(t, "18/10/2026", records[1].Date)
	assert.Equal(t, "08:00", records[1].Total)
	assert.Equal(t, "+0:00", records[1].Bank)
	assert.Equal(t, "+0:00", l.Bank())

	// Later punches hit the single surviving record for the date.
	_, err := l.RecordPunch(model.ClockOut, nil)
	require.NoError(t, err)
	records = l.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "09:00", records[1].Total)
	assert.Equal(t, "+1:00", l.Bank())
}
