package metrics_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aprilwade/teslafanctl/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	assert.Error(t, metrics.Config{}.Validate())
	assert.NoError(t, metrics.Config{DBPath: "/tmp/metrics.db"}.Validate())
}

func TestServiceRecordsSnapshots(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "metrics.db")

	collector, err := metrics.NewService(metrics.Config{DBPath: dbPath})
	require.NoError(t, err)
	defer collector.Close()

	snapshot := &metrics.Snapshot{
		Timestamp:      time.Now(),
		AvgPowerRatio:  0.5,
		MaxTemperature: 50,
		ComputedSpeed:  95,
		AdjustedSpeed:  95,
		PreviousSpeed:  -1,
		Commanded:      true,
		TelemetryOK:    true,
	}

	require.NoError(t, collector.Record(context.Background(), snapshot))

	// same timestamp again exercises the upsert path
	snapshot.AdjustedSpeed = 145
	require.NoError(t, collector.Record(context.Background(), snapshot))
}

func TestServiceRejectsNilSnapshot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "metrics.db")

	collector, err := metrics.NewService(metrics.Config{DBPath: dbPath})
	require.NoError(t, err)
	defer collector.Close()

	assert.Error(t, collector.Record(context.Background(), nil))
}

func TestNewServiceRejectsEmptyPath(t *testing.T) {
	_, err := metrics.NewService(metrics.Config{})
	require.Error(t, err)
}
