package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamoski/relaydeck/internal/catalog"
	"github.com/mamoski/relaydeck/internal/models"
)

// historyLimit caps the telemetry window at the most recent records.
const historyLimit = 20

// ChartRow is one non-zero platform bucket, carrying the catalog label and
// brand color for rendering. Platforms with zero count are omitted.
type ChartRow struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// Summary is the aggregated view over the telemetry window.
type Summary struct {
	MonthCount     int            `json:"month_count"`
	WindowCount    int            `json:"window_count"`
	PlatformCounts map[string]int `json:"platform_counts"`
	Chart          []ChartRow     `json:"chart"`
}

// TelemetryService reads recent submissions and aggregates them for the
// analytics view.
type TelemetryService struct {
	store  RecordStore
	logger *zap.Logger
}

func NewTelemetryService(store RecordStore, logger *zap.Logger) *TelemetryService {
	return &TelemetryService{
		store:  store,
		logger: logger,
	}
}

// Load fetches the newest records for the operator, uploadedAt descending.
// A backend failure degrades to an empty window; the error is logged, not
// surfaced.
func (t *TelemetryService) Load(ctx context.Context, identity Identity) []models.UploadRecord {
	records, err := t.store.ListRecent(ctx, identity.UserID, historyLimit)
	if err != nil {
		t.logger.Error("Failed to load upload history",
			zap.String("user_id", identity.UserID),
			zap.Error(err))
		return []models.UploadRecord{}
	}
	return records
}

// Aggregate computes the month count and per-platform multiset over the
// given records. Month boundaries use the local calendar month of now,
// inclusive. A record listing N platforms increments N distinct buckets.
func Aggregate(records []models.UploadRecord, now time.Time) Summary {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	summary := Summary{
		WindowCount:    len(records),
		PlatformCounts: make(map[string]int),
		Chart:          []ChartRow{},
	}

	for _, record := range records {
		if !record.UploadedAt.Before(monthStart) && record.UploadedAt.Before(monthEnd) {
			summary.MonthCount++
		}
		for _, platformID := range record.Platforms {
			summary.PlatformCounts[platformID]++
		}
	}

	// Chart rows follow catalog display order and skip zero buckets.
	for _, desc := range catalog.All() {
		count := summary.PlatformCounts[desc.ID]
		if count == 0 {
			continue
		}
		summary.Chart = append(summary.Chart, ChartRow{
			Name:  desc.Label,
			Count: count,
			Color: desc.Color,
		})
	}

	return summary
}
