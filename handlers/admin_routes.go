package handlers

import (
	"context"

	"funplay-claim-service/locale"
	"funplay-claim-service/logger"
	"funplay-claim-service/middleware"
	"funplay-claim-service/models"
	"funplay-claim-service/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ClaimReconciler is the manual override for stuck claims.
type ClaimReconciler interface {
	ReconcileClaim(ctx context.Context, claimID string) (*models.ClaimRequest, error)
}

type adminHandler struct {
	claims     *services.ClaimService
	rewards    *services.RewardService
	reconciler ClaimReconciler
}

func SetupAdminRoutes(app *fiber.App, claims *services.ClaimService, rewards *services.RewardService, reconciler ClaimReconciler, auth fiber.Handler) {
	h := &adminHandler{claims: claims, rewards: rewards, reconciler: reconciler}

	admin := app.Group("/s/admin")
	admin.Get("/claims", auth, middleware.AdminOnly(), h.listClaims)
	admin.Get("/pool", auth, middleware.AdminOnly(), h.pool)
	admin.Post("/claims/:id/reconcile", auth, middleware.AdminOnly(), h.reconcile)
}

func (h *adminHandler) listClaims(c *fiber.Ctx) error {
	var status *models.ClaimStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ClaimStatus(raw)
		switch s {
		case models.ClaimStatusPending, models.ClaimStatusSuccess, models.ClaimStatusFailed:
			status = &s
		default:
			return fail(c, fiber.StatusBadRequest, locale.BadRequest)
		}
	}

	claims, err := h.rewards.ListClaims(c.UserContext(), "", status, c.QueryInt("limit"))
	if err != nil {
		logger.Error("admin list claims failed", zap.Error(err))
		code, key := classify(err)
		return fail(c, code, key)
	}
	return c.JSON(fiber.Map{"success": true, "claims": claims})
}

func (h *adminHandler) pool(c *fiber.Ctx) error {
	if h.claims.Executor == nil {
		return fail(c, fiber.StatusInternalServerError, locale.Configuration)
	}
	balance, err := h.claims.Executor.PoolBalance(c.UserContext())
	if err != nil {
		logger.Error("pool balance lookup failed", zap.Error(err))
		return fail(c, fiber.StatusBadGateway, locale.Internal)
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"tokenSymbol": h.claims.TokenSymbol,
		"balance":     balance.String(),
	})
}

func (h *adminHandler) reconcile(c *fiber.Ctx) error {
	if h.reconciler == nil {
		return fail(c, fiber.StatusInternalServerError, locale.Configuration)
	}
	claim, err := h.reconciler.ReconcileClaim(c.UserContext(), c.Params("id"))
	if err != nil {
		code, key := classify(err)
		if code >= fiber.StatusInternalServerError {
			logger.Error("manual reconcile failed", zap.String("claim_id", c.Params("id")), zap.Error(err))
		}
		return fail(c, code, key)
	}

	logger.Info("admin reconcile",
		zap.String("admin_id", middleware.UserID(c)),
		zap.String("claim_id", claim.ID),
		zap.String("status", string(claim.Status)))
	return c.JSON(fiber.Map{"success": true, "claim": claim})
}
