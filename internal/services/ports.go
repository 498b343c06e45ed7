package services

import (
	"context"
	"time"

	"consumo/internal/core"
)

// ReadingSource is the outbound port for the remote metering API.
// Both bounds are inclusive, UTC.
type ReadingSource interface {
	GetDailyConsumption(ctx context.Context, start, end time.Time) ([]core.Measurement, error)
}
