package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"MarketPulse/internal/collector"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/recorder"
)

// Notifier delivers alert messages.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the refresh job on a cron schedule and keeps the latest board.
type Scheduler struct {
	Cron        *cron.Cron
	Collector   *collector.Collector
	Instruments []model.Instrument
	Notifier    Notifier         // nil disables alerts
	Recorder    recorder.Recorder
	Metrics     *metrics.Metrics // nil disables metrics
	Ctx         context.Context

	logger   *zap.Logger
	newRunID func() string
	now      func() time.Time

	running   sync.Mutex
	mu        sync.RWMutex
	latest    *model.Board
	latestRun string
	latestAt  time.Time
}

// NewScheduler creates a new Scheduler. Overlapping runs are skipped.
func NewScheduler(ctx context.Context, col *collector.Collector, instruments []model.Instrument, rec recorder.Recorder, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Collector:   col,
		Instruments: instruments,
		Recorder:    rec,
		Ctx:         ctx,
		logger:      logger,
		newRunID:    uuid.NewString,
		now:         time.Now,
	}
}

// Register schedules the refresh job.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Latest returns the most recent board, the run that produced it, and when it started.
func (s *Scheduler) Latest() (*model.Board, string, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latestRun, s.latestAt
}

// Seed installs a board produced before this process started.
func (s *Scheduler) Seed(board *model.Board, at time.Time) {
	s.setLatest(board, "", at)
}

func (s *Scheduler) setLatest(board *model.Board, runID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest, s.latestRun, s.latestAt = board, runID, at
}

// RunNow executes one refresh immediately: collect, record, update metrics, then alert.
// When a refresh is already in progress it returns the latest board without starting another.
func (s *Scheduler) RunNow() *model.Board {
	if !s.running.TryLock() {
		s.logger.Info("refresh already running, skipped")
		board, _, _ := s.Latest()
		return board
	}
	defer s.running.Unlock()

	runID := s.newRunID()
	start := s.now()
	log := s.logger.With(zap.String("run_id", runID))
	log.Info("refresh started", zap.Int("instruments", len(s.Instruments)))

	board, results := s.Collector.CollectAll(s.Ctx, s.Instruments)
	elapsed := s.now().Sub(start)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	if err := s.Recorder.RecordBoard(board); err != nil {
		log.Error("record board failed", zap.Error(err))
	}
	if s.Metrics != nil {
		s.Metrics.ObserveRun(board, results, elapsed, s.now())
	}
	s.setLatest(board, runID, start)

	log.Info("refresh finished",
		zap.Int("ok", len(results)-failed),
		zap.Int("failed", failed),
		zap.Duration("elapsed", elapsed),
	)

	if len(results) > 0 && failed == len(results) {
		s.trySend(notifier.FormatRunFailure(runID, errors.New("no instrument could be fetched")))
		return board
	}
	if msg := notifier.FormatSignalAlert(board, s.Instruments, runID); msg != "" {
		s.trySend(msg)
	}
	return board
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	board, _, _ := s.Latest()
	switch command {
	case "/snapshot", "查看快照":
		return notifier.FormatSnapshot(board, s.Instruments)
	case "/signals", "查看信号":
		return notifier.FormatSignals(board, s.Instruments)
	case "/refresh", "立即刷新":
		return notifier.FormatSnapshot(s.RunNow(), s.Instruments)
	default:
		return "可用命令:\n• /snapshot 查看快照\n• /signals 查看信号\n• /refresh 立即刷新"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.logger.Error("send notification failed", zap.Error(err))
	}
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
