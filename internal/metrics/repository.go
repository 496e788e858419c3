package metrics

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"github.com/aprilwade/teslafanctl/internal/errors"
	"github.com/aprilwade/teslafanctl/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

type Repository interface {
	Store(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRepository(cfg Config) (Repository, error) {
	errFactory := errors.New()

	logger.Debug().Msgf("Initializing metrics repository at: %s", cfg.DBPath)

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	return &sqliteRepository{
		db: db,
	}, nil
}

func (r *sqliteRepository) Store(ctx context.Context, snapshot *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO ticks (
            timestamp, avg_power_ratio, max_temperature,
            computed_speed, adjusted_speed, previous_speed,
            commanded, telemetry_ok
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(timestamp) DO UPDATE SET
            avg_power_ratio = excluded.avg_power_ratio,
            max_temperature = excluded.max_temperature,
            computed_speed = excluded.computed_speed,
            adjusted_speed = excluded.adjusted_speed,
            previous_speed = excluded.previous_speed,
            commanded = excluded.commanded,
            telemetry_ok = excluded.telemetry_ok
    `,
		snapshot.Timestamp.Unix(),
		snapshot.AvgPowerRatio,
		snapshot.MaxTemperature,
		snapshot.ComputedSpeed,
		snapshot.AdjustedSpeed,
		snapshot.PreviousSpeed,
		boolToInt(snapshot.Commanded),
		boolToInt(snapshot.TelemetryOK),
	)
	if err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	return nil
}
