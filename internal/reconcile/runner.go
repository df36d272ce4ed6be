package reconcile

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/wyehealth/clinicbridge-backend/pkg/logger"
	"github.com/wyehealth/clinicbridge-backend/pkg/metrics"
)

// RunnerParams configure the pass runner.
type RunnerParams struct {
	Logger  *logger.Logger
	Lock    Lock
	Metrics *metrics.PassMetrics
	Out     io.Writer
}

// Runner executes a single pass under the maintenance lock, records metrics,
// and renders the report.
type Runner struct {
	logg    *logger.Logger
	lock    Lock
	metrics *metrics.PassMetrics
	out     io.Writer
}

// NewRunner builds a pass runner.
func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	lock := params.Lock
	if lock == nil {
		lock = NopLock{}
	}
	out := params.Out
	if out == nil {
		out = os.Stdout
	}
	return &Runner{
		logg:    params.Logger,
		lock:    lock,
		metrics: params.Metrics,
		out:     out,
	}, nil
}

// RunPass executes the pass, holding the maintenance lock for its duration.
func (r *Runner) RunPass(ctx context.Context, pass Pass) (*Report, error) {
	locked, err := r.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another maintenance run holds the lock; try again later")
	}
	defer func() {
		if relErr := r.lock.Release(ctx); relErr != nil {
			r.logg.Error(ctx, "failed to release maintenance lock", relErr)
		}
	}()

	runCtx := r.logg.WithPass(ctx, pass.Name())
	runCtx = r.logg.WithRunID(runCtx, uuid.NewString())
	r.logg.Info(runCtx, "pass start")

	start := time.Now()
	report, err := pass.Run(runCtx)
	duration := time.Since(start)
	r.metrics.ObserveDuration(pass.Name(), duration)

	runCtx = r.logg.WithField(runCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		r.metrics.IncFailure(pass.Name())
		r.logg.Error(runCtx, "pass failed", err)
		if report != nil {
			report.Render(r.out)
		}
		return report, err
	}

	r.metrics.IncSuccess(pass.Name())
	if report != nil {
		r.metrics.AddMutated(pass.Name(), report.Mutations())
		report.Render(r.out)
	}
	r.logg.Info(runCtx, "pass complete")
	return report, nil
}
