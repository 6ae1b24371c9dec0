package period

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddha-avenue/salesops/internal/shared"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newResolver(t *testing.T, now time.Time) (*Resolver, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := NewResolver(logger, time.UTC)
	r.WithNow(func() time.Time { return now })
	return r, &buf
}

func TestResolveMTDDefaults(t *testing.T) {
	r, logs := newResolver(t, time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC))

	w := r.Resolve(Request{Format: MTD})
	assert.Equal(t, date(2024, 3, 1), w.CurrentStart)
	assert.Equal(t, date(2024, 3, 15), w.CurrentEnd)
	assert.Equal(t, date(2024, 2, 1), w.ComparatorStart)
	assert.Equal(t, date(2024, 2, 15), w.ComparatorEnd)
	assert.Equal(t, 15, w.DaysElapsed)
	assert.Equal(t, 16, w.DaysRemaining)
	assert.Equal(t, date(2024, 3, 15), w.FirstDay().From)
	assert.Equal(t, date(2024, 3, 15), w.FirstDay().To)
	assert.Empty(t, logs.String())

	again := r.Resolve(Request{Format: MTD})
	assert.Equal(t, w, again, "defaults are reproducible within the same day")
}

func TestResolveUsesReportingTimezone(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	r := NewResolver(nil, loc)
	r.WithNow(func() time.Time { return time.Date(2024, 3, 31, 20, 0, 0, 0, time.UTC) })

	w := r.Resolve(Request{})
	assert.Equal(t, date(2024, 4, 1), w.CurrentEnd)
	assert.Equal(t, date(2024, 4, 1), w.CurrentStart)
	assert.Equal(t, MTD, w.Format)
}

func TestResolveMTDClampsShorterPriorMonth(t *testing.T) {
	r, _ := newResolver(t, date(2024, 3, 31))

	w := r.Resolve(Request{Format: MTD})
	assert.Equal(t, date(2024, 2, 1), w.ComparatorStart)
	assert.Equal(t, date(2024, 2, 29), w.ComparatorEnd)
	assert.Equal(t, 0, w.DaysRemaining)

	w = r.Resolve(Request{Format: MTD, Start: "05/01/2023", End: "05/31/2023"})
	assert.Equal(t, date(2023, 4, 30), w.ComparatorEnd)
}

func TestResolveYTD(t *testing.T) {
	r, _ := newResolver(t, date(2024, 2, 29))

	w := r.Resolve(Request{Format: YTD})
	assert.Equal(t, date(2024, 1, 1), w.CurrentStart)
	assert.Equal(t, date(2024, 2, 29), w.CurrentEnd)
	assert.Equal(t, date(2023, 1, 1), w.ComparatorStart)
	assert.Equal(t, date(2023, 2, 28), w.ComparatorEnd, "leap day clamps to Feb 28")
	assert.Equal(t, 60, w.DaysElapsed)
	assert.Equal(t, 306, w.DaysRemaining)
}

func TestResolveExplicitDates(t *testing.T) {
	r, logs := newResolver(t, date(2024, 6, 20))

	w := r.Resolve(Request{Format: MTD, Start: "05/10/2024", End: "2024-05-20"})
	assert.Equal(t, date(2024, 5, 10), w.CurrentStart)
	assert.Equal(t, date(2024, 5, 20), w.CurrentEnd)
	assert.Equal(t, date(2024, 4, 10), w.ComparatorStart)
	assert.Equal(t, date(2024, 4, 20), w.ComparatorEnd)
	assert.Equal(t, 20, w.DaysElapsed, "counted from the first of the month")
	assert.Equal(t, 11, w.DaysRemaining)
	assert.Empty(t, logs.String())
}

func TestResolveDaysElapsedIgnoresExplicitStart(t *testing.T) {
	r, _ := newResolver(t, date(2024, 6, 20))

	w := r.Resolve(Request{Format: MTD, Start: "03/10/2024", End: "03/15/2024"})
	assert.Equal(t, 15, w.DaysElapsed)
	assert.Equal(t, 16, w.DaysRemaining)

	w = r.Resolve(Request{Format: YTD, Start: "03/01/2024", End: "03/15/2024"})
	assert.Equal(t, 75, w.DaysElapsed)
}

func TestResolveYTDComparatorOpensOnJanuaryFirst(t *testing.T) {
	r, _ := newResolver(t, date(2024, 6, 20))

	w := r.Resolve(Request{Format: YTD, Start: "03/01/2024", End: "03/15/2024"})
	assert.Equal(t, date(2024, 3, 1), w.CurrentStart)
	assert.Equal(t, date(2023, 1, 1), w.ComparatorStart)
	assert.Equal(t, date(2023, 3, 15), w.ComparatorEnd)
}

func TestResolveMalformedDatesFallBackWithWarning(t *testing.T) {
	r, logs := newResolver(t, date(2024, 3, 15))

	w := r.Resolve(Request{Format: MTD, Start: "yesterday", End: "31/31/2024"})
	assert.Equal(t, date(2024, 3, 1), w.CurrentStart)
	assert.Equal(t, date(2024, 3, 15), w.CurrentEnd)
	assert.Contains(t, logs.String(), "unreadable end date")
	assert.Contains(t, logs.String(), "unreadable start date")
	assert.Contains(t, logs.String(), "level=WARN")
}

func TestResolveStartAfterEndFallsBack(t *testing.T) {
	r, logs := newResolver(t, date(2024, 3, 15))

	w := r.Resolve(Request{Format: MTD, Start: "03/20/2024", End: "03/10/2024"})
	assert.Equal(t, date(2024, 3, 1), w.CurrentStart)
	assert.Equal(t, date(2024, 3, 10), w.CurrentEnd)
	assert.Contains(t, logs.String(), "start date after end date")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, MTD, f)

	f, err = ParseFormat(" ytd ")
	require.NoError(t, err)
	assert.Equal(t, YTD, f)
	assert.Equal(t, "LYTD", f.ComparatorLabel())
	assert.Equal(t, "LMTD", MTD.ComparatorLabel())

	_, err = ParseFormat("QTD")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestShiftMonths(t *testing.T) {
	assert.Equal(t, date(2023, 12, 31), ShiftMonths(date(2024, 1, 31), -1))
	assert.Equal(t, date(2023, 2, 28), ShiftMonths(date(2023, 3, 30), -1))
	assert.Equal(t, date(2024, 2, 29), ShiftMonths(date(2024, 3, 31), -1))
	assert.Equal(t, date(2023, 2, 28), ShiftYears(date(2024, 2, 29), -1))
	assert.Equal(t, date(2023, 6, 15), ShiftYears(date(2024, 6, 15), -1))
}
