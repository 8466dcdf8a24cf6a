// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/tomtom215/cartographus/internal/config"
	"github.com/tomtom215/cartographus/internal/logging"
)

// memoryExitThreshold is the fraction of SupervisorConfig.MaxMemoryBytes
// at which the watchdog trips, per SPEC_FULL.md §4.10: shutdown at 85% of
// the configured cap rather than waiting for the hard limit itself.
const memoryExitThreshold = 0.85

// exitWatchdog implements SupervisorConfig's process-level exit triggers:
// a maximum uptime, a resident memory ceiling, and an operator-dropped
// shutdown flag file. Any one tripping calls the process's own cancel
// function, which the supervision tree treats exactly like SIGTERM.
type exitWatchdog struct {
	cfg    config.SupervisorConfig
	cancel context.CancelFunc
	start  time.Time
	proc   *process.Process
}

func newExitWatchdog(cfg config.SupervisorConfig, cancel context.CancelFunc) *exitWatchdog {
	if cfg.HealthCheckInterval <= 0 {
		cfg.HealthCheckInterval = 15 * time.Second
	}
	w := &exitWatchdog{cfg: cfg, cancel: cancel, start: time.Now()}
	if cfg.MaxMemoryBytes > 0 {
		p, err := process.NewProcess(int32(os.Getpid()))
		if err != nil {
			logging.Warn().Err(err).Msg("exit watchdog: could not open self process handle, memory ceiling disabled")
		} else {
			w.proc = p
		}
	}
	return w
}

// run polls the configured exit conditions until ctx is canceled.
func (w *exitWatchdog) run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if reason := w.check(); reason != "" {
				logging.Warn().Str("reason", reason).Msg("exit watchdog triggering shutdown")
				w.cancel()
				return
			}
		}
	}
}

func (w *exitWatchdog) check() string {
	if w.cfg.MaxUptime > 0 && time.Since(w.start) >= w.cfg.MaxUptime {
		return "max_uptime_exceeded"
	}

	if w.cfg.ShutdownFlagFile != "" {
		if _, err := os.Stat(w.cfg.ShutdownFlagFile); err == nil {
			if rmErr := os.Remove(w.cfg.ShutdownFlagFile); rmErr != nil {
				logging.Warn().Err(rmErr).Str("path", w.cfg.ShutdownFlagFile).Msg("exit watchdog: failed to consume shutdown flag file")
			}
			return "shutdown_flag_file_present"
		}
	}

	if w.cfg.MaxMemoryBytes > 0 && w.proc != nil {
		memInfo, err := w.proc.MemoryInfo()
		if err == nil {
			threshold := uint64(float64(w.cfg.MaxMemoryBytes) * memoryExitThreshold)
			if memInfo.RSS >= threshold {
				return "max_memory_exceeded"
			}
		}
	}

	return ""
}
