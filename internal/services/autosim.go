package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/dkowalski/gridiron-gm/pkg/config"
)

// AutoSimService runs full seasons on a cron schedule, so a league keeps
// advancing without a commissioner kicking off every run by hand.
type AutoSimService struct {
	cron      *cron.Cron
	franchise *FranchiseService
	cfg       *config.Config
	logger    *logrus.Logger

	mu      sync.Mutex
	running bool
}

func NewAutoSimService(franchise *FranchiseService, cfg *config.Config, logger *logrus.Logger) *AutoSimService {
	return &AutoSimService{
		cron:      cron.New(),
		franchise: franchise,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start registers the schedule and starts the cron loop.
func (s *AutoSimService) Start() error {
	if !s.cfg.AutoSimEnabled {
		s.logger.Info("Auto-sim disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.cfg.AutoSimSchedule, s.runOnce); err != nil {
		return fmt.Errorf("invalid auto-sim schedule %q: %w", s.cfg.AutoSimSchedule, err)
	}
	s.cron.Start()
	s.logger.WithField("schedule", s.cfg.AutoSimSchedule).Info("Auto-sim scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *AutoSimService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// runOnce simulates a single season. Overlapping triggers are skipped; a
// season run is not reentrant.
func (s *AutoSimService) runOnce() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("Auto-sim trigger skipped, previous run still in progress")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	seed := time.Now().UnixNano()
	run, err := s.franchise.RunSeason(context.Background(), s.cfg.SeasonYear, seed)
	if err != nil {
		s.logger.Errorf("Auto-sim season failed: %v", err)
		return
	}
	s.logger.WithFields(logrus.Fields{
		"run_id": run.ID,
		"year":   run.Year,
	}).Info("Auto-sim season complete")
}
