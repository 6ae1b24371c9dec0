package ingest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/shared"
	"github.com/siddha-avenue/salesops/internal/targets"
)

const extractCSV = `Sales Date,Sales_Type,CHANNEL,Price Segment,TSE,ASM,ASE,RSO,ABM,ZSM,Dealer Code,Dealer Name,MTD Value,MTD Volume,LMTD Value,LMTD Volume,Notes
03/01/2024,Sell Out,PC,100K,Ravi,Irfan,Neha,Vikram,Meera,Kumar,d1,Alpha Traders,1000,2,800,1,first
2024-03-02,Sell In,SES,70-100K,Asha,Irfan,Neha,Vikram,Meera,Kumar, d2 ,Beta,abc,1,,,bad value

13/45/2024,Sell Out,PC,100K,Ravi,Irfan,Neha,Vikram,Meera,Kumar,D1,Alpha Traders,10,1,0,0
`

func TestReadCSVMapsHeaders(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(extractCSV))
	require.NoError(t, err)

	records, err := table.Records()
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "03/01/2024", first.Date)
	assert.Equal(t, "Sell Out", first.SalesType)
	assert.Equal(t, "PC", first.Channel)
	assert.Equal(t, "100K", first.Segment)
	assert.Equal(t, "Kumar", first.ZSM)
	assert.Equal(t, "D1", first.DealerCode)
	assert.Equal(t, "1000", first.CurrentValue)
	assert.Equal(t, "800", first.ComparatorValue)

	second := records[1]
	assert.Equal(t, "03/02/2024", second.Date)
	assert.Equal(t, "D2", second.DealerCode)
	assert.Equal(t, "abc", second.CurrentValue)
	assert.Equal(t, int64(0), sales.CoerceInt(second.CurrentValue))

	// unreadable dates stay for the aggregation to skip
	assert.Equal(t, "13/45/2024", records[2].Date)
}

func TestNormalizeDateZeroPads(t *testing.T) {
	assert.Equal(t, "03/05/2024", normalizeDate("3/5/2024"))
	assert.Equal(t, "03/15/2024", normalizeDate("2024-03-15"))
	assert.Equal(t, "03/15/2024", normalizeDate("03/15/2024"))
	assert.Equal(t, "13/45/2024", normalizeDate("13/45/2024"))
}

func TestReadCSVRequiresDateAndQuantity(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("channel,value\nPC,10\n"))
	require.NoError(t, err)
	_, err = table.Records()
	require.ErrorIs(t, err, shared.ErrValidation)

	table, err = ReadCSV(strings.NewReader("date,channel\n03/01/2024,PC\n"))
	require.NoError(t, err)
	_, err = table.Records()
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = ReadCSV(strings.NewReader("\n\n"))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "dealercode", normalizeHeader(" Dealer-Code "))
	assert.Equal(t, "dealercode", normalizeHeader("DEALER_CODE"))
	assert.Equal(t, "lmtdvalue", normalizeHeader("LMTD Value"))
}

func buildWorkbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadXLSXConvertsDateSerials(t *testing.T) {
	data := buildWorkbook(t, "March", [][]any{
		{"Date", "Sales Type", "Channel", "Segment", "ZSM", "Dealer", "Value", "Volume"},
		{45352, "Sell Out", "PC", "100K", "Kumar", "d9", 1500, 3},
		{"03/05/2024", "Sell Out", "SES", "40-70K", "Kumar", "D9", "250", "1"},
	})

	table, err := ReadXLSX(bytes.NewReader(data), "")
	require.NoError(t, err)
	records, err := table.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "03/01/2024", records[0].Date)
	assert.Equal(t, "1500", records[0].CurrentValue)
	assert.Equal(t, "D9", records[0].DealerCode)
	assert.Equal(t, "03/05/2024", records[1].Date)
	assert.Equal(t, "40-70K", records[1].Segment)
}

func TestReadXLSXMissingSheet(t *testing.T) {
	data := buildWorkbook(t, "Sheet1", [][]any{{"Date", "Value"}})
	_, err := ReadXLSX(bytes.NewReader(data), "Nope")
	require.Error(t, err)
}

func TestReadFileRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extract.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	_, err := ReadFile(path, "")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTargetInputs(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(`name,role,dealer,dimension,dimension_value,value,volume,effective_date
Kumar,ZSM,,segment,100K,2000000,40,03/01/2024
,,d1,channel,PC,50000,5,2024-03-01

`))
	require.NoError(t, err)

	inputs, err := table.TargetInputs()
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, targets.EntryInput{
		Name: "Kumar", Role: "ZSM", Dimension: "segment", DimensionValue: "100K",
		Value: 2000000, Volume: 40, EffectiveDate: "03/01/2024",
	}, inputs[0])
	assert.Equal(t, "d1", inputs[1].Dealer)
	assert.Equal(t, "channel", inputs[1].Dimension)
	assert.Equal(t, "03/01/2024", inputs[1].EffectiveDate)
}

func TestTargetInputsImpliedDimension(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("Name,Role,Segment,Target Value,From\nMeera,ABM,70-100K,1000,03/01/2024\n"))
	require.NoError(t, err)

	inputs, err := table.TargetInputs()
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "segment", inputs[0].Dimension)
	assert.Equal(t, "70-100K", inputs[0].DimensionValue)
	assert.Equal(t, int64(1000), inputs[0].Value)
}

func TestTargetInputsRejectsBadSheets(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("name,role,value\nKumar,ZSM,10\n"))
	require.NoError(t, err)
	_, err = table.TargetInputs()
	require.ErrorIs(t, err, shared.ErrValidation)

	table, err = ReadCSV(strings.NewReader("name,role,dimension,dimension_value,effective_date\n"))
	require.NoError(t, err)
	_, err = table.TargetInputs()
	require.ErrorIs(t, err, shared.ErrValidation)
}

type bumpRecorder struct {
	reasons []string
	err     error
}

func (b *bumpRecorder) EnqueueCacheBump(_ context.Context, reason string) error {
	b.reasons = append(b.reasons, reason)
	return b.err
}

func TestLoaderChunksAndBumps(t *testing.T) {
	store := sales.NewMemoryStore()
	bumps := &bumpRecorder{}
	loader := NewLoader(store, bumps, nil).WithChunkSize(2)

	records := make([]sales.Record, 5)
	for i := range records {
		records[i] = sales.Record{Date: "03/01/2024", Channel: "PC", CurrentValue: "10"}
	}
	res, err := loader.Load(context.Background(), "march.csv", records)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Rows)
	assert.Equal(t, int64(5), res.Inserted)
	assert.Len(t, res.Batches, 3)
	assert.Equal(t, 5, store.Len())
	assert.Equal(t, []string{"ingest:march.csv"}, bumps.reasons)
}

type failingWriter struct{ calls int }

func (f *failingWriter) Insert(_ context.Context, batch sales.Batch) (int64, error) {
	f.calls++
	if f.calls > 1 {
		return 0, errors.New("disk full")
	}
	return int64(len(batch.Records)), nil
}

func TestLoaderStopsOnFailedChunk(t *testing.T) {
	bumps := &bumpRecorder{}
	writer := &failingWriter{}
	loader := NewLoader(writer, bumps, nil).WithChunkSize(1)

	res, err := loader.Load(context.Background(), "x.csv", []sales.Record{{Date: "03/01/2024"}, {Date: "03/02/2024"}, {Date: "03/03/2024"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rows 2-2")
	assert.Len(t, res.Batches, 1)
	assert.Equal(t, 2, writer.calls)
	assert.Empty(t, bumps.reasons)
}

func TestLoaderBumpFailureIsNotFatal(t *testing.T) {
	loader := NewLoader(sales.NewMemoryStore(), &bumpRecorder{err: errors.New("redis down")}, nil)
	_, err := loader.Load(context.Background(), "x.csv", []sales.Record{{Date: "03/01/2024"}})
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), "empty.csv", nil)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestLoadFileFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extract.csv")
	require.NoError(t, os.WriteFile(path, []byte(extractCSV), 0o600))

	store := sales.NewMemoryStore()
	res, err := NewLoader(store, nil, nil).LoadFile(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, "extract.csv", res.Source)
	assert.Equal(t, 3, store.Len())
}

type uploaderFunc func(ctx context.Context, inputs []targets.EntryInput) (targets.Receipt, error)

func (f uploaderFunc) Upload(ctx context.Context, inputs []targets.EntryInput) (targets.Receipt, error) {
	return f(ctx, inputs)
}

func TestLoadTargetsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,role,dimension,dimension_value,value,effective_date\nKumar,ZSM,channel,PC,100,03/01/2024\n"), 0o600))

	svc := targets.NewService(targets.NewMemoryRepository(), nil, nil)
	receipt, err := LoadTargetsFile(context.Background(), svc, path, "")
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.Stored)
	assert.NotEqual(t, uuid.Nil, receipt.BatchID)

	var got []targets.EntryInput
	_, err = LoadTargetsFile(context.Background(), uploaderFunc(func(_ context.Context, in []targets.EntryInput) (targets.Receipt, error) {
		got = in
		return targets.Receipt{Stored: len(in)}, nil
	}), path, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "PC", got[0].DimensionValue)
}
