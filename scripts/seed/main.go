package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"time"

	"github.com/siddha-avenue/salesops/internal/app"
	"github.com/siddha-avenue/salesops/internal/ingest"
	"github.com/siddha-avenue/salesops/internal/kpi"
	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/targets"
)

type zone struct {
	zsm  string
	abms []string
}

var zones = []zone{
	{zsm: "Kumar", abms: []string{"Anand", "Bose"}},
	{zsm: "Mehta", abms: []string{"Chopra", "Desai"}},
	{zsm: "Rao", abms: []string{"Iyer", "Joshi"}},
}

func main() {
	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg)

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("open stores: %v", err)
	}
	defer stores.Close()

	today := time.Now().In(cfg.Location())
	rng := rand.New(rand.NewSource(42))

	fmt.Println("→ Seeding sales records...")
	records := salesRecords(rng, today)
	res, err := ingest.NewLoader(stores.Sales, nil, logger).Load(ctx, "seed", records)
	if err != nil {
		log.Fatalf("seed sales: %v", err)
	}
	fmt.Printf("  %d rows in %d batches\n", res.Inserted, len(res.Batches))

	fmt.Println("→ Seeding targets...")
	receipt, err := targets.NewService(stores.Targets, nil, logger).Upload(ctx, targetInputs(today))
	if err != nil {
		log.Fatalf("seed targets: %v", err)
	}
	fmt.Printf("  %d targets in batch %s\n", receipt.Stored, receipt.BatchID)

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

// salesRecords produces one year of daily Sell Out and Sell In rows up to
// today, with last-year comparator figures precomputed alongside.
func salesRecords(rng *rand.Rand, today time.Time) []sales.Record {
	start := time.Date(today.Year()-1, today.Month(), 1, 0, 0, 0, 0, today.Location())
	var out []sales.Record
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		for _, z := range zones {
			for i, abm := range z.abms {
				channel := kpi.Channels[rng.Intn(len(kpi.Channels))]
				segment := kpi.Segments[rng.Intn(len(kpi.Segments))]
				dealer := fmt.Sprintf("D%03d", rng.Intn(40)+1)
				value := 5000 + rng.Intn(20000)
				volume := 1 + rng.Intn(6)
				salesType := string(sales.SellOut)
				if i%2 == 1 && rng.Intn(3) == 0 {
					salesType = string(sales.SellIn)
				}
				out = append(out, sales.Record{
					Date:             sales.FormatDate(day),
					SalesType:        salesType,
					Channel:          channel,
					Segment:          segment,
					ZSM:              z.zsm,
					ABM:              abm,
					TSE:              fmt.Sprintf("%s-TSE-%d", abm, rng.Intn(3)+1),
					DealerCode:       dealer,
					DealerName:       "Dealer " + dealer,
					CurrentValue:     strconv.Itoa(value),
					CurrentVolume:    strconv.Itoa(volume),
					ComparatorValue:  strconv.Itoa(value * (80 + rng.Intn(40)) / 100),
					ComparatorVolume: strconv.Itoa(volume),
				})
			}
		}
	}
	return out
}

func targetInputs(today time.Time) []targets.EntryInput {
	effective := sales.FormatDate(time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()))
	var inputs []targets.EntryInput
	for _, z := range zones {
		for _, channel := range kpi.Channels {
			inputs = append(inputs, targets.EntryInput{
				Name:           z.zsm,
				Role:           "ZSM",
				Dimension:      "channel",
				DimensionValue: channel,
				Value:          1500000,
				Volume:         300,
				EffectiveDate:  effective,
			})
		}
		for _, segment := range kpi.Segments {
			inputs = append(inputs, targets.EntryInput{
				Name:           z.zsm,
				Role:           "ZSM",
				Dimension:      "segment",
				DimensionValue: segment,
				Value:          1400000,
				Volume:         280,
				EffectiveDate:  effective,
			})
		}
	}
	return inputs
}
