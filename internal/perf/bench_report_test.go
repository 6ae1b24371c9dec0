package perf

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/siddha-avenue/salesops/internal/hierarchy"
	"github.com/siddha-avenue/salesops/internal/kpi"
	"github.com/siddha-avenue/salesops/internal/period"
	"github.com/siddha-avenue/salesops/internal/platform/cache"
	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/targets"
)

func reportRequests() []kpi.Request {
	var reqs []kpi.Request
	for _, dim := range []kpi.Dimension{kpi.DimensionChannel, kpi.DimensionSegment} {
		for _, format := range []period.Format{period.MTD, period.YTD} {
			reqs = append(reqs, kpi.Request{Dimension: dim, Period: period.Request{Format: format}, ValueKind: kpi.ValueKindValue})
			for _, zsm := range zsms {
				reqs = append(reqs, kpi.Request{
					Dimension: dim,
					Period:    period.Request{Format: format},
					Entity:    targets.RoleHolder(zsm, hierarchy.ZSM),
					ValueKind: kpi.ValueKindValue,
				})
			}
		}
	}
	return reqs
}

func TestReportLatencyTargets(t *testing.T) {
	store := sales.NewMemoryStore(syntheticRecords(10000)...)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	scenarios := []struct {
		name      string
		cache     *cache.Versioned
		passes    int
		threshold time.Duration
	}{
		{name: "cold", passes: 1, threshold: 2 * time.Second},
		{name: "cached", cache: cache.NewVersioned(client, "kpi-perf", time.Minute), passes: 2, threshold: 500 * time.Millisecond},
	}

	for _, scenario := range scenarios {
		svc := newService(store, scenario.cache)
		var samples []time.Duration
		for pass := 0; pass < scenario.passes; pass++ {
			samples = samples[:0]
			for _, req := range reportRequests() {
				started := time.Now()
				if _, err := svc.Build(context.Background(), req); err != nil {
					t.Fatalf("%s build %s: %v", scenario.name, req.Dimension, err)
				}
				samples = append(samples, time.Since(started))
			}
		}
		p95 := percentile95(samples)
		if p95 > scenario.threshold {
			t.Fatalf("%s latency regression: p95=%s threshold=%s", scenario.name, p95, scenario.threshold)
		}
	}
}

func BenchmarkChannelReportMTD(b *testing.B) {
	svc := newService(sales.NewMemoryStore(syntheticRecords(10000)...), nil)
	req := kpi.Request{Dimension: kpi.DimensionChannel, Period: period.Request{Format: period.MTD}, ValueKind: kpi.ValueKindValue}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Build(context.Background(), req); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSegmentReportYTDForZSM(b *testing.B) {
	svc := newService(sales.NewMemoryStore(syntheticRecords(10000)...), nil)
	req := kpi.Request{
		Dimension: kpi.DimensionSegment,
		Period:    period.Request{Format: period.YTD},
		Entity:    targets.RoleHolder("Kumar", hierarchy.ZSM),
		ValueKind: kpi.ValueKindValue,
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Build(context.Background(), req); err != nil {
			b.Fatal(err)
		}
	}
}
