package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"funplay-claim-service/config"
	"funplay-claim-service/logger"
	"funplay-claim-service/models"
	"funplay-claim-service/services"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// ClaimReconciler settles claims left pending by a crash, a timeout or a restart.
type ClaimReconciler struct {
	Claims    *services.ClaimService
	Policy    services.ReconcilePolicy
	Interval  time.Duration
	BatchSize int

	mu        sync.Mutex
	scheduler gocron.Scheduler
}

// ReconcileReport counts what one pass did.
type ReconcileReport struct {
	Checked   int
	Succeeded int
	Failed    int
	Left      int
	Errors    int
}

func NewClaimReconciler(claims *services.ClaimService, cfg config.ReconcilerConfig) *ClaimReconciler {
	return &ClaimReconciler{
		Claims: claims,
		Policy: services.ReconcilePolicy{
			StaleAfter:   cfg.StaleAfter,
			AbandonAfter: cfg.AbandonAfter,
		},
		Interval:  cfg.Interval,
		BatchSize: cfg.BatchSize,
	}
}

// Start runs one pass immediately, then schedules a pass every Interval until ctx is done.
func (r *ClaimReconciler) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create reconciler scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(r.Interval),
		gocron.NewTask(func() {
			r.pass(ctx)
		}),
		gocron.WithName("claim-reconciler"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule reconciler: %w", err)
	}

	r.mu.Lock()
	r.scheduler = sched
	r.mu.Unlock()
	sched.Start()
	logger.Info("claim reconciler started",
		zap.Duration("interval", r.Interval),
		zap.Duration("stale_after", r.Policy.StaleAfter),
		zap.Duration("abandon_after", r.Policy.AbandonAfter))

	go func() {
		<-ctx.Done()
		if err := r.Shutdown(); err != nil {
			logger.Warn("claim reconciler shutdown", zap.Error(err))
		}
	}()
	return nil
}

func (r *ClaimReconciler) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduler == nil {
		return nil
	}
	err := r.scheduler.Shutdown()
	r.scheduler = nil
	return err
}

func (r *ClaimReconciler) pass(ctx context.Context) {
	report, err := r.RunOnce(ctx)
	if err != nil {
		logger.Error("claim reconciliation pass failed", zap.Error(err))
		return
	}
	if report.Checked == 0 {
		logger.Debug("no stale pending claims")
		return
	}
	logger.Info("claim reconciliation pass finished",
		zap.Int("checked", report.Checked),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("left_pending", report.Left),
		zap.Int("errors", report.Errors))
}

// RunOnce resolves up to BatchSize stale pending claims, oldest first.
func (r *ClaimReconciler) RunOnce(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	cutoff := time.Now().UTC().Add(-r.Policy.StaleAfter)
	stale, err := r.Claims.Tracker.StalePending(ctx, cutoff, r.BatchSize)
	if err != nil {
		return report, err
	}

	for i := range stale {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		claim := &stale[i]
		report.Checked++

		status, err := r.Claims.ResolvePending(ctx, claim, r.Policy)
		if err != nil {
			report.Errors++
			logger.Warn("could not resolve pending claim",
				zap.String("claim_id", claim.ID), zap.Error(err))
			continue
		}
		switch status {
		case models.ClaimStatusSuccess:
			report.Succeeded++
		case models.ClaimStatusFailed:
			report.Failed++
		default:
			report.Left++
		}
	}
	return report, nil
}

// ReconcileClaim runs the same resolution for a single claim. Claims that are not
// stale yet are left alone, so this is safe to call while a claim is in flight.
func (r *ClaimReconciler) ReconcileClaim(ctx context.Context, claimID string) (*models.ClaimRequest, error) {
	claim, err := r.Claims.Tracker.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if _, err := r.Claims.ResolvePending(ctx, claim, r.Policy); err != nil {
		return nil, err
	}

	updated, err := r.Claims.Tracker.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status == models.ClaimStatusPending && updated.Status != models.ClaimStatusPending {
		logger.Info("claim reconciled manually",
			zap.String("claim_id", claimID), zap.String("status", string(updated.Status)))
	}
	return updated, nil
}
