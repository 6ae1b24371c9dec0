package hierarchy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/shared"
)

func territory() *sales.MemoryStore {
	return sales.NewMemoryStore(
		sales.Record{Date: "03/01/2024", ZSM: "Kumar", ABM: "Meera", RSO: "Vikram", ASE: "0", ASM: "Irfan", TSE: "Ravi"},
		sales.Record{Date: "03/02/2024", ZSM: "Kumar", ABM: "Meera", RSO: "Vikram", ASE: "Neha", ASM: "Irfan", TSE: "Asha"},
		sales.Record{Date: "03/02/2024", ZSM: "Kumar", ABM: "Arjun", RSO: "", ASE: "Neha", ASM: "Dev", TSE: "Ravi"},
		sales.Record{Date: "03/03/2024", ZSM: "Patel", ABM: "Sonal", RSO: "Kiran", ASE: "Om", ASM: "Raj", TSE: "Zoya"},
	)
}

func TestSubordinatesOfZSM(t *testing.T) {
	resolver := NewResolver(territory())

	got, err := resolver.SubordinatesOf(context.Background(), "Kumar", ZSM)
	require.NoError(t, err)
	assert.Equal(t, []Subordinates{
		{Role: ABM, Names: []string{AllSentinel, "Arjun", "Meera"}},
		{Role: RSO, Names: []string{AllSentinel, "Vikram"}},
		{Role: ASE, Names: []string{AllSentinel, "Neha"}},
		{Role: ASM, Names: []string{AllSentinel, "Dev", "Irfan"}},
		{Role: TSE, Names: []string{AllSentinel, "Asha", "Ravi"}},
	}, got)
}

func TestSubordinatesOfUnknownHolderKeepsSentinel(t *testing.T) {
	resolver := NewResolver(territory())

	got, err := resolver.SubordinatesOf(context.Background(), "Nobody", ZSM)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, sub := range got {
		assert.Equal(t, []string{AllSentinel}, sub.Names, sub.Role)
	}
}

func TestSubordinatesOfLowestRole(t *testing.T) {
	got, err := NewResolver(territory()).SubordinatesOf(context.Background(), "Ravi", TSE)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSubordinatesOfRejectsUnknownRole(t *testing.T) {
	_, err := NewResolver(territory()).SubordinatesOf(context.Background(), "Kumar", Role("CEO"))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSubordinatesOfRequiresHolder(t *testing.T) {
	for _, holder := range []string{"", "   "} {
		_, err := NewResolver(failingStore{}).SubordinatesOf(context.Background(), holder, ZSM)
		require.ErrorIs(t, err, shared.ErrValidation, "holder %q", holder)
	}
}

type failingStore struct{ sales.Store }

func (failingStore) Distinct(context.Context, []sales.Constraint, sales.Field) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestSubordinatesOfPropagatesStoreErrors(t *testing.T) {
	_, err := NewResolver(failingStore{}).SubordinatesOf(context.Background(), "Kumar", ABM)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
