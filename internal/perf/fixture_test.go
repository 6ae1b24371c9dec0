package perf

import (
	"fmt"
	"sort"
	"time"

	"github.com/siddha-avenue/salesops/internal/kpi"
	"github.com/siddha-avenue/salesops/internal/period"
	"github.com/siddha-avenue/salesops/internal/platform/cache"
	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/targets"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

var zsms = []string{"Kumar", "Mehta", "Rao", "Iyer"}

// syntheticRecords spreads n rows over every channel and segment, four zones
// and the first fifteen days of March 2024.
func syntheticRecords(n int) []sales.Record {
	records := make([]sales.Record, 0, n)
	for i := 0; i < n; i++ {
		zsm := zsms[i%len(zsms)]
		records = append(records, sales.Record{
			Date:            fmt.Sprintf("03/%02d/2024", i%15+1),
			SalesType:       string(sales.SellOut),
			Channel:         kpi.Channels[i%len(kpi.Channels)],
			Segment:         kpi.Segments[i%len(kpi.Segments)],
			ZSM:             zsm,
			ABM:             fmt.Sprintf("%s-ABM-%d", zsm, i%3),
			TSE:             fmt.Sprintf("%s-TSE-%d", zsm, i%7),
			DealerCode:      fmt.Sprintf("D%04d", i%200),
			DealerName:      fmt.Sprintf("Dealer %d", i%200),
			CurrentValue:    fmt.Sprintf("%d", 1000+i%500),
			CurrentVolume:   fmt.Sprintf("%d", 1+i%5),
			ComparatorValue: fmt.Sprintf("%d", 900+i%400),
		})
	}
	return records
}

func newService(store sales.Store, reportCache *cache.Versioned) *kpi.Service {
	periods := period.NewResolver(nil, time.UTC)
	periods.WithNow(func() time.Time { return fixedNow })
	return kpi.NewService(store, targets.NewProvider(targets.NewMemoryRepository()), periods, reportCache, kpi.Config{}, nil)
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
