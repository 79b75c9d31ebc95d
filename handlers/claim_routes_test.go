package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"funplay-claim-service/chain"
	"funplay-claim-service/middleware"
	"funplay-claim-service/models"
	"funplay-claim-service/services"
	"funplay-claim-service/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	player = "player-1"
	wallet = "0x2222222222222222222222222222222222222222"
)

type stubExecutor struct {
	balance decimal.Decimal
	err     error
	pending bool
	calls   int
}

func (s *stubExecutor) Transfer(ctx context.Context, req chain.TransferRequest) (string, error) {
	s.calls++
	if req.Amount.GreaterThan(s.balance) {
		return "", fmt.Errorf("%w: short", chain.ErrInsufficientPoolBalance)
	}
	if s.err != nil {
		return "", s.err
	}
	hash := fmt.Sprintf("0x%064d", s.calls)
	if err := req.OnSigned(hash); err != nil {
		return "", err
	}
	if s.pending {
		return hash, chain.ErrTransferPending
	}
	return hash, nil
}

func (s *stubExecutor) TransferStatus(ctx context.Context, txHash string) (chain.TxStatus, error) {
	return chain.TxSucceeded, nil
}

func (s *stubExecutor) PoolBalance(ctx context.Context) (decimal.Decimal, error) {
	return s.balance, nil
}

// fakeAuth trusts X-Test-User and X-Test-Roles instead of a real session.
func fakeAuth(c *fiber.Ctx) error {
	id := c.Get("X-Test-User")
	if id == "" {
		return fail(c, fiber.StatusUnauthorized, "unauthenticated")
	}
	user := &services.AuthUser{ID: id}
	if roles := c.Get("X-Test-Roles"); roles != "" {
		user.AppMetadata.Roles = strings.Split(roles, ",")
	}
	c.Locals(middleware.UserIDKey, id)
	c.Locals(middleware.UserKey, user)
	return c.Next()
}

type testEnv struct {
	db       *gorm.DB
	executor *stubExecutor
	claims   *services.ClaimService
	app      *fiber.App
}

func newTestEnv(t *testing.T, balance int64, reconciler ClaimReconciler) *testEnv {
	db := testutil.NewDB(t)
	executor := &stubExecutor{balance: decimal.NewFromInt(balance)}
	claims := services.NewClaimService(services.NewClaimTracker(db), executor, nil, "CAMLY")
	rewards := services.NewRewardService(db)

	app := fiber.New()
	SetupClaimRoutes(app, claims, rewards, fakeAuth)
	SetupAdminRoutes(app, claims, rewards, reconciler, fakeAuth)
	return &testEnv{db: db, executor: executor, claims: claims, app: app}
}

type response struct {
	status int
	body   map[string]any
}

func (e *testEnv) call(t *testing.T, method, path, body string, headers map[string]string) response {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.app.Test(req, int((5 * time.Second).Milliseconds()))
	require.NoError(t, err)
	defer resp.Body.Close()

	out := response{status: resp.StatusCode}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out.body))
	return out
}

func (e *testEnv) claim(t *testing.T, address string, headers map[string]string) response {
	if headers == nil {
		headers = map[string]string{}
	}
	headers["X-Test-User"] = player
	return e.call(t, fiber.MethodPost, "/s/rewards/claim", fmt.Sprintf(`{"walletAddress":%q}`, address), headers)
}

func seed(t *testing.T, db *gorm.DB, amounts ...string) {
	for _, a := range amounts {
		testutil.SeedReward(t, db, player, a, models.RewardTypeView, models.RewardStatusSuccess)
	}
}

func TestClaimSuccess(t *testing.T) {
	env := newTestEnv(t, 200000, nil)
	seed(t, env.db, "40000", "50000", "30000")

	resp := env.claim(t, wallet, map[string]string{fiber.HeaderAcceptLanguage: "en"})
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, true, resp.body["success"])
	assert.Equal(t, float64(120000), resp.body["amount"])
	assert.NotEmpty(t, resp.body["txHash"])
	assert.Equal(t, "Successfully claimed 120,000 CAMLY!", resp.body["message"])
}

func TestClaimErrorStatuses(t *testing.T) {
	tests := []struct {
		name      string
		balance   int64
		seed      []string
		address   string
		setup     func(e *testEnv)
		status    int
		code      string
		retryable bool
	}{
		{"invalid address", 200000, []string{"10"}, "0xZZZZ", nil, fiber.StatusBadRequest, "invalid_address", false},
		{"nothing to claim", 200000, nil, wallet, nil, fiber.StatusBadRequest, "nothing_to_claim", false},
		{"pool too small", 5, []string{"10"}, wallet, nil, fiber.StatusServiceUnavailable, "insufficient_pool_balance", false},
		{"rpc unreachable", 200000, []string{"10"}, wallet, func(e *testEnv) {
			e.executor.err = fmt.Errorf("%w: dial tcp: connection refused", chain.ErrTransferFailed)
		}, fiber.StatusInternalServerError, "transfer_failed", true},
		{"transfer reverted", 200000, []string{"10"}, wallet, func(e *testEnv) {
			e.executor.err = fmt.Errorf("%w: %w", chain.ErrTransferFailed, chain.ErrTransferReverted)
		}, fiber.StatusInternalServerError, "transfer_failed", false},
		{"no admin wallet", 200000, []string{"10"}, wallet, func(e *testEnv) {
			e.claims.Executor = nil
		}, fiber.StatusInternalServerError, "configuration_error", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.balance, nil)
			seed(t, env.db, tt.seed...)
			if tt.setup != nil {
				tt.setup(env)
			}

			resp := env.claim(t, tt.address, nil)
			assert.Equal(t, tt.status, resp.status)
			assert.Equal(t, false, resp.body["success"])
			assert.Equal(t, tt.code, resp.body["error"])
			assert.Equal(t, tt.retryable, resp.body["retryable"])
			assert.NotEmpty(t, resp.body["message"])
		})
	}
}

func TestClaimInProgressAndPending(t *testing.T) {
	env := newTestEnv(t, 200000, nil)
	seed(t, env.db, "10")
	env.executor.pending = true

	resp := env.claim(t, wallet, nil)
	assert.Equal(t, fiber.StatusAccepted, resp.status)
	assert.Equal(t, false, resp.body["success"])
	assert.NotEmpty(t, resp.body["txHash"])

	resp = env.claim(t, wallet, map[string]string{fiber.HeaderAcceptLanguage: "vi-VN"})
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
	assert.Equal(t, "claim_in_progress", resp.body["error"])
	assert.Equal(t, "Đang có một yêu cầu nhận thưởng được xử lý. Vui lòng đợi.", resp.body["message"])
	assert.Equal(t, 1, env.executor.calls)
}

func TestClaimRequiresSession(t *testing.T) {
	env := newTestEnv(t, 200000, nil)
	resp := env.call(t, fiber.MethodPost, "/s/rewards/claim", `{"walletAddress":"`+wallet+`"}`, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)
}

func TestClaimMalformedBody(t *testing.T) {
	env := newTestEnv(t, 200000, nil)
	resp := env.call(t, fiber.MethodPost, "/s/rewards/claim", `{"walletAddress":`, map[string]string{"X-Test-User": player})
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
	assert.Equal(t, "bad_request", resp.body["error"])
}

func TestSummaryAndLists(t *testing.T) {
	env := newTestEnv(t, 200000, nil)
	seed(t, env.db, "40000", "2.5")
	user := map[string]string{"X-Test-User": player}

	resp := env.call(t, fiber.MethodGet, "/s/rewards/summary", "", user)
	require.Equal(t, fiber.StatusOK, resp.status)
	summary := resp.body["summary"].(map[string]any)
	assert.Equal(t, "40002.5", summary["unclaimed_amount"])
	assert.Equal(t, float64(2), summary["unclaimed_count"])

	resp = env.call(t, fiber.MethodGet, "/s/rewards?claimed=false&limit=1", "", user)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Len(t, resp.body["rewards"], 1)

	resp = env.call(t, fiber.MethodGet, "/s/rewards?claimed=maybe", "", user)
	assert.Equal(t, fiber.StatusBadRequest, resp.status)

	env.claim(t, wallet, nil)
	resp = env.call(t, fiber.MethodGet, "/s/claims", "", user)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Len(t, resp.body["claims"], 1)
}
