// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/inventoryapp/inventoryauth/pkg/errutil"
)

// JanitorConfig controls expired-token cleanup.
type JanitorConfig struct {
	Interval           time.Duration // How often to run a sweep
	SweepRefreshTokens bool          // Also delete expired refresh tokens
	Logger             *slog.Logger  // nil means slog.Default()
}

// DefaultJanitorConfig returns the default janitor configuration.
func DefaultJanitorConfig() JanitorConfig {
	return JanitorConfig{
		Interval:           24 * time.Hour,
		SweepRefreshTokens: true,
	}
}

// SweepResult reports what one sweep removed.
type SweepResult struct {
	AccessTokens  int64
	RefreshTokens int64
}

// Janitor periodically deletes expired tokens.
type Janitor struct {
	cfg      JanitorConfig
	sweeper  TokenSweeper
	tx       Transactor
	recorder Recorder
	logger   *slog.Logger
	clock    func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJanitor creates a janitor. A nil recorder discards sweep counts.
func NewJanitor(cfg JanitorConfig, sweeper TokenSweeper, tx Transactor, recorder Recorder) *Janitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultJanitorConfig().Interval
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		cfg:      cfg,
		sweeper:  sweeper,
		tx:       tx,
		recorder: recorder,
		logger:   logger,
		clock:    time.Now,
	}
}

// RunOnce deletes every token expired at the current time. Both deletes run
// in one transaction, so a failure removes nothing.
func (j *Janitor) RunOnce(ctx context.Context) (SweepResult, error) {
	now := j.clock()
	var res SweepResult

	err := j.tx.InTransaction(ctx, func(ctx context.Context) error {
		n, err := j.sweeper.DeleteExpiredAccessTokens(ctx, now)
		if err != nil {
			return oops.Code("JANITOR_SWEEP_FAILED").With("kind", KindAccessToken).Wrap(err)
		}
		res.AccessTokens = n

		if !j.cfg.SweepRefreshTokens {
			return nil
		}
		n, err = j.sweeper.DeleteExpiredRefreshTokens(ctx, now)
		if err != nil {
			return oops.Code("JANITOR_SWEEP_FAILED").With("kind", KindRefreshToken).Wrap(err)
		}
		res.RefreshTokens = n
		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}

	j.recorder.RecordSweep(KindAccessToken, res.AccessTokens)
	if j.cfg.SweepRefreshTokens {
		j.recorder.RecordSweep(KindRefreshToken, res.RefreshTokens)
	}
	if res.AccessTokens > 0 || res.RefreshTokens > 0 {
		j.logger.Info("swept expired tokens",
			"access_tokens", res.AccessTokens,
			"refresh_tokens", res.RefreshTokens)
	}
	return res, nil
}

// Start begins periodic sweeping.
func (j *Janitor) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)
	j.wg.Add(1)
	go j.run(ctx)
}

// Stop stops the janitor and waits for an in-flight sweep to finish.
func (j *Janitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
}

func (j *Janitor) run(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	j.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	if _, err := j.RunOnce(ctx); err != nil && ctx.Err() == nil {
		errutil.LogErrorContext(ctx, j.logger, "token sweep failed", err)
	}
}
