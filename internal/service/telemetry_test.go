package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mamoski/relaydeck/internal/models"
)

func TestLoadDegradesToEmptyOnFetchError(t *testing.T) {
	store := &fakeStore{listErr: ErrFetch}
	svc := NewTelemetryService(store, zap.NewNop())

	records := svc.Load(context.Background(), Identity{UserID: "u1"})
	if records == nil {
		t.Fatalf("expected non-nil empty slice")
	}
	if len(records) != 0 {
		t.Fatalf("expected empty window on fetch error, got %d records", len(records))
	}
}

func TestLoadReturnsWindow(t *testing.T) {
	now := time.Now()
	store := &fakeStore{records: []models.UploadRecord{
		{ID: "r1", OwnerUserID: "u1", Filename: "a.png", UploadedAt: now},
		{ID: "r2", OwnerUserID: "u1", Filename: "b.png", UploadedAt: now.Add(-time.Hour)},
	}}
	svc := NewTelemetryService(store, zap.NewNop())

	records := svc.Load(context.Background(), Identity{UserID: "u1"})
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestAggregateEmpty(t *testing.T) {
	summary := Aggregate(nil, time.Now())

	if summary.MonthCount != 0 {
		t.Fatalf("expected month count 0, got %d", summary.MonthCount)
	}
	if summary.WindowCount != 0 {
		t.Fatalf("expected window count 0, got %d", summary.WindowCount)
	}
	if len(summary.PlatformCounts) != 0 {
		t.Fatalf("expected empty platform counts, got %v", summary.PlatformCounts)
	}
	if len(summary.Chart) != 0 {
		t.Fatalf("expected empty chart, got %v", summary.Chart)
	}
}

func TestAggregatePlatformMultiset(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.Local)
	inMonth := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.Local)

	records := []models.UploadRecord{
		{Platforms: models.StringArray{"facebook"}, UploadedAt: inMonth},
		{Platforms: models.StringArray{"facebook", "instagram"}, UploadedAt: inMonth.AddDate(0, 0, 5)},
		{Platforms: models.StringArray{"instagram"}, UploadedAt: inMonth.AddDate(0, 0, 10)},
	}

	summary := Aggregate(records, now)

	if summary.MonthCount != 3 {
		t.Fatalf("expected month count 3, got %d", summary.MonthCount)
	}
	if summary.PlatformCounts["facebook"] != 2 || summary.PlatformCounts["instagram"] != 2 {
		t.Fatalf("unexpected platform counts: %v", summary.PlatformCounts)
	}
	if len(summary.PlatformCounts) != 2 {
		t.Fatalf("expected two platform buckets, got %v", summary.PlatformCounts)
	}
}

func TestAggregateMonthBoundaries(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.Local)

	records := []models.UploadRecord{
		// First instant of the month counts.
		{Platforms: models.StringArray{"facebook"}, UploadedAt: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.Local)},
		// Last month does not.
		{Platforms: models.StringArray{"facebook"}, UploadedAt: time.Date(2026, time.February, 28, 23, 59, 59, 0, time.Local)},
		// Next month does not.
		{Platforms: models.StringArray{"facebook"}, UploadedAt: time.Date(2026, time.April, 1, 0, 0, 0, 0, time.Local)},
	}

	summary := Aggregate(records, now)

	if summary.MonthCount != 1 {
		t.Fatalf("expected month count 1, got %d", summary.MonthCount)
	}
	// Platform buckets cover the whole window regardless of month.
	if summary.PlatformCounts["facebook"] != 3 {
		t.Fatalf("expected facebook count 3, got %d", summary.PlatformCounts["facebook"])
	}
}

func TestAggregateChartOmitsZeroBars(t *testing.T) {
	now := time.Now()
	records := []models.UploadRecord{
		{Platforms: models.StringArray{"youtube"}, UploadedAt: now},
	}

	summary := Aggregate(records, now)

	if len(summary.Chart) != 1 {
		t.Fatalf("expected a single chart row, got %v", summary.Chart)
	}
	row := summary.Chart[0]
	if row.Name != "YouTube" || row.Count != 1 || row.Color == "" {
		t.Fatalf("unexpected chart row %+v", row)
	}
}

func TestAggregateChartSkipsUnknownPlatforms(t *testing.T) {
	now := time.Now()
	records := []models.UploadRecord{
		{Platforms: models.StringArray{"myspace", "instagram"}, UploadedAt: now},
	}

	summary := Aggregate(records, now)

	// The raw multiset still counts the unknown id, the chart does not.
	if summary.PlatformCounts["myspace"] != 1 {
		t.Fatalf("expected raw bucket for unknown platform, got %v", summary.PlatformCounts)
	}
	for _, row := range summary.Chart {
		if row.Name == "myspace" {
			t.Fatalf("unknown platform leaked into chart: %+v", row)
		}
	}
	if len(summary.Chart) != 1 {
		t.Fatalf("expected one chart row, got %v", summary.Chart)
	}
}
