package handlers

import (
	"errors"
	"strconv"
	"strings"

	"funplay-claim-service/chain"
	"funplay-claim-service/locale"
	"funplay-claim-service/logger"
	"funplay-claim-service/middleware"
	"funplay-claim-service/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type claimHandler struct {
	claims  *services.ClaimService
	rewards *services.RewardService
}

// SetupClaimRoutes mounts the player-facing routes. auth must put the user id in Locals.
func SetupClaimRoutes(app *fiber.App, claims *services.ClaimService, rewards *services.RewardService, auth fiber.Handler) {
	h := &claimHandler{claims: claims, rewards: rewards}

	secured := app.Group("/s")
	secured.Post("/rewards/claim", auth, h.claim)
	secured.Get("/rewards/summary", auth, h.summary)
	secured.Get("/rewards", auth, h.listRewards)
	secured.Get("/claims", auth, h.listClaims)
}

type claimRequestBody struct {
	WalletAddress string `json:"walletAddress"`
}

func (h *claimHandler) claim(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return fail(c, fiber.StatusUnauthorized, locale.Unauthenticated)
	}

	var body claimRequestBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, locale.BadRequest)
	}

	result, err := h.claims.RequestClaim(c.UserContext(), userID, strings.TrimSpace(body.WalletAddress))
	p := printer(c)

	if errors.Is(err, services.ErrTransferPending) {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"success": false,
			"claimId": result.ClaimID,
			"txHash":  result.TransactionHash,
			"message": locale.Message(p, locale.ClaimPending),
		})
	}
	if err != nil {
		status, code := classify(err)
		if status >= fiber.StatusInternalServerError {
			logger.Error("claim request failed", zap.String("user_id", userID), zap.Error(err))
		}
		resp := fiber.Map{
			"success":   false,
			"error":     code,
			"message":   locale.Message(p, code),
			"retryable": chain.Retryable(err),
		}
		// Tokens already moved; the reconciler will finish bookkeeping.
		if result != nil && result.TransactionHash != "" {
			resp["txHash"] = result.TransactionHash
		}
		return c.Status(status).JSON(resp)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"claimId": result.ClaimID,
		"amount":  result.Amount.InexactFloat64(),
		"txHash":  result.TransactionHash,
		"message": locale.ClaimedMessage(p, result.Amount, h.claims.TokenSymbol),
	})
}

func (h *claimHandler) summary(c *fiber.Ctx) error {
	summary, err := h.rewards.Summary(c.UserContext(), middleware.UserID(c))
	if err != nil {
		logger.Error("reward summary failed", zap.Error(err))
		status, code := classify(err)
		return fail(c, status, code)
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"tokenSymbol": h.claims.TokenSymbol,
		"summary":     summary,
	})
}

func (h *claimHandler) listRewards(c *fiber.Ctx) error {
	var claimed *bool
	if raw := c.Query("claimed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, locale.BadRequest)
		}
		claimed = &v
	}

	rewards, err := h.rewards.ListRewards(c.UserContext(), middleware.UserID(c), claimed, c.QueryInt("limit"))
	if err != nil {
		logger.Error("list rewards failed", zap.Error(err))
		status, code := classify(err)
		return fail(c, status, code)
	}
	return c.JSON(fiber.Map{"success": true, "rewards": rewards})
}

func (h *claimHandler) listClaims(c *fiber.Ctx) error {
	claims, err := h.rewards.ListClaims(c.UserContext(), middleware.UserID(c), nil, c.QueryInt("limit"))
	if err != nil {
		logger.Error("list claims failed", zap.Error(err))
		status, code := classify(err)
		return fail(c, status, code)
	}
	return c.JSON(fiber.Map{"success": true, "claims": claims})
}
