// Package metrics optionally persists one snapshot per control tick to a
// local SQLite database, for offline curve tuning.
package metrics

import (
	"context"
	"time"

	"github.com/aprilwade/teslafanctl/internal/errors"
)

const (
	defaultDirPerm = 0o755
	defaultDBPath  = "/var/lib/teslafanctl/metrics.db"
)

const (
	ErrInvalidConfig    = errors.ErrorCode("metrics_invalid_config")
	ErrInvalidDBPath    = errors.ErrorCode("metrics_invalid_db_path")
	ErrInvalidSnapshot  = errors.ErrorCode("metrics_invalid_snapshot")
	ErrStorageInit      = errors.ErrorCode("metrics_storage_init_failed")
	ErrStorageAccess    = errors.ErrorCode("metrics_storage_access_failed")
	ErrStorageClose     = errors.ErrorCode("metrics_storage_close_failed")
	ErrOperationTimeout = errors.ErrorCode("metrics_operation_timeout")
)

// Snapshot is the observable outcome of one control tick.
type Snapshot struct {
	Timestamp      time.Time
	AvgPowerRatio  float64
	MaxTemperature int
	ComputedSpeed  int
	AdjustedSpeed  int
	PreviousSpeed  int // -1 before the first successful command
	Commanded      bool
	TelemetryOK    bool
}

// Collector records tick snapshots.
type Collector interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

type Config struct {
	DBPath string
}

func DefaultConfig() Config {
	return Config{
		DBPath: defaultDBPath,
	}
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New().New(ErrInvalidDBPath)
	}

	return nil
}

type service struct {
	repo Repository
	cfg  Config
}

// NewService validates the config and opens the backing repository.
func NewService(cfg Config) (Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	repo, err := NewRepository(cfg)
	if err != nil {
		return nil, err
	}

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, snapshot *Snapshot) error {
	errFactory := errors.New()

	if snapshot == nil {
		return errFactory.New(ErrInvalidSnapshot)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		return s.repo.Store(ctx, snapshot)
	}
}

func (s *service) Close() error {
	return s.repo.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
