package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type sessionSweeper interface {
	Sweep() int
}

type exportCleaner interface {
	Cleanup(ttl time.Duration) (int, error)
}

// MaintenanceConfig schedules housekeeping.
type MaintenanceConfig struct {
	Schedule  string
	ExportTTL time.Duration
}

// MaintenanceService periodically closes idle browser sessions and removes
// expired export files.
type MaintenanceService struct {
	sessions sessionSweeper
	exports  exportCleaner
	logger   *zap.Logger
	cfg      MaintenanceConfig
	cron     *cron.Cron
}

// NewMaintenanceService constructs the service. exports may be nil when exports are disabled.
func NewMaintenanceService(sessions sessionSweeper, exports exportCleaner, logger *zap.Logger, cfg MaintenanceConfig) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1m"
	}
	return &MaintenanceService{
		sessions: sessions,
		exports:  exports,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithLogger(cronLogger{logger: logger})),
	}
}

// Start registers the housekeeping job and starts the scheduler.
func (s *MaintenanceService) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.RunOnce); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("maintenance scheduler started", zap.String("schedule", s.cfg.Schedule))
	return nil
}

// Stop halts the scheduler and waits for a running pass to finish or ctx to end.
func (s *MaintenanceService) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce performs one housekeeping pass.
func (s *MaintenanceService) RunOnce() {
	if s.sessions != nil {
		if closed := s.sessions.Sweep(); closed > 0 {
			s.logger.Debug("swept browser sessions", zap.Int("closed", closed))
		}
	}
	if s.exports != nil {
		removed, err := s.exports.Cleanup(s.cfg.ExportTTL)
		if err != nil {
			s.logger.Warn("export cleanup failed", zap.Error(err))
			return
		}
		if removed > 0 {
			s.logger.Info("expired exports removed", zap.Int("files", removed))
		}
	}
}

// cronLogger routes scheduler logs through zap.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
