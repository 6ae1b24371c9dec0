package targets

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddha-avenue/salesops/internal/hierarchy"
	"github.com/siddha-avenue/salesops/internal/shared"
)

func TestNormalizeDealer(t *testing.T) {
	assert.Equal(t, "DLR-0042", NormalizeDealer("  dlr-0042 "))
	assert.Equal(t, "STRASSE-1", NormalizeDealer("straße-1"))
	assert.Equal(t, Dealer("dlr-7"), Dealer("DLR-7"))
}

func TestEntryInputConversion(t *testing.T) {
	entry, err := EntryInput{
		Name: "Kumar", Role: "zsm", Dimension: "Segment", DimensionValue: " 100K ",
		Value: 2000000, Volume: 40, EffectiveDate: "2024-03-01",
	}.Entry()
	require.NoError(t, err)
	assert.Equal(t, RoleHolder("Kumar", hierarchy.ZSM), entry.Key)
	assert.Equal(t, Segment, entry.Dimension)
	assert.Equal(t, "100K", entry.DimensionValue)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), entry.EffectiveDate)

	_, err = EntryInput{Dealer: "d1", Dimension: "channel", DimensionValue: "PC", EffectiveDate: "13/45/2024"}.Entry()
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = EntryInput{Name: "Kumar", Role: "boss", Dimension: "channel", DimensionValue: "PC", EffectiveDate: "03/01/2024"}.Entry()
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestMapInsertErr(t *testing.T) {
	err := mapInsertErr(&pgconn.PgError{Code: "23505", Detail: "Key exists"})
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, shared.ErrConflict)

	err = mapInsertErr(errors.New("broken pipe"))
	require.NotErrorIs(t, err, shared.ErrConflict)
	assert.Contains(t, err.Error(), "broken pipe")
}
