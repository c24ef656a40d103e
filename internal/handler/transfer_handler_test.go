package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eaglebank/transfer-service/internal/account"
	"github.com/eaglebank/transfer-service/internal/transfer"
	"github.com/eaglebank/transfer-service/shared/cqrs"
	"github.com/eaglebank/transfer-service/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- mock implementations ----

type mockTransferCommander struct {
	executeFn func(cqrs.ExecuteTransferCommand) (*transfer.Transfer, error)
	deleteFn  func(cqrs.DeleteTransfersCommand) error
}

func (m *mockTransferCommander) ExecuteTransfer(_ context.Context, cmd cqrs.ExecuteTransferCommand) (*transfer.Transfer, error) {
	if m.executeFn != nil {
		return m.executeFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransferCommander) DeleteTransfers(_ context.Context, cmd cqrs.DeleteTransfersCommand) error {
	if m.deleteFn != nil {
		return m.deleteFn(cmd)
	}
	return fmt.Errorf("not configured")
}

type mockTransferQuerier struct {
	listFn     func(cqrs.ListTransfersQuery) ([]transfer.Transfer, error)
	accountFn  func(cqrs.GetAccountQuery) (*models.AccountView, error)
	balancesFn func(cqrs.GetBalancesQuery) (*models.BalancesView, error)
}

func (m *mockTransferQuerier) ListTransfers(_ context.Context, q cqrs.ListTransfersQuery) ([]transfer.Transfer, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransferQuerier) GetAccount(_ context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	if m.accountFn != nil {
		return m.accountFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransferQuerier) GetBalances(_ context.Context, q cqrs.GetBalancesQuery) (*models.BalancesView, error) {
	if m.balancesFn != nil {
		return m.balancesFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

const testUserID = "usr-abc123"

func fakeAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

func newTestRouter(cmds TransferCommander, qrys TransferQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuth(testUserID))
	h := NewTransferHandler(cmds, qrys)
	v1 := r.Group("/v1")
	v1.POST("/transfers", h.CreateTransfer)
	v1.GET("/transfers", h.ListTransfers)
	v1.DELETE("/transfers", h.DeleteTransfers)
	v1.GET("/accounts/:accountId", h.GetAccount)
	v1.GET("/balances", h.GetBalances)
	return r
}

func doRequest(router *gin.Engine, method, url string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleTransfer() *transfer.Transfer {
	return &transfer.Transfer{
		ID:        "trf-0b6c6d7e-8a4f-4a39-9b4e-0d6b2f1f5e11",
		From:      "A",
		To:        "B",
		Amount:    decimal.NewFromInt(40),
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// ---- CreateTransfer ----

func TestCreateTransfer(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		executeFn      func(cqrs.ExecuteTransferCommand) (*transfer.Transfer, error)
		expectedStatus int
	}{
		{
			name: "success - numeric amount",
			body: `{"from":"A","to":"B","amount":40}`,
			executeFn: func(cmd cqrs.ExecuteTransferCommand) (*transfer.Transfer, error) {
				if cmd.From != "A" || cmd.To != "B" || !cmd.Amount.Equal(decimal.NewFromInt(40)) || cmd.UserID != testUserID {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return sampleTransfer(), nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "success - string amount",
			body:           `{"from":"A","to":"B","amount":"40.00"}`,
			executeFn:      func(cqrs.ExecuteTransferCommand) (*transfer.Transfer, error) { return sampleTransfer(), nil },
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - malformed json",
			body:           `{"from":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - missing amount",
			body:           `{"from":"A","to":"B"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - same account",
			body:           `{"from":"A","to":"A","amount":1}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - invalid argument",
			body: `{"from":"A","to":"B","amount":-1}`,
			executeFn: func(cqrs.ExecuteTransferCommand) (*transfer.Transfer, error) {
				return nil, &transfer.InvalidArgumentError{Field: "amount"}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "not found - unknown account",
			body: `{"from":"A","to":"Z","amount":1}`,
			executeFn: func(cqrs.ExecuteTransferCommand) (*transfer.Transfer, error) {
				return nil, &transfer.InvalidArgumentError{Field: "to", Err: fmt.Errorf("%w: Z", account.ErrNotFound)}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "unprocessable - insufficient balance",
			body: `{"from":"A","to":"B","amount":1000}`,
			executeFn: func(cqrs.ExecuteTransferCommand) (*transfer.Transfer, error) {
				return nil, &transfer.InsufficientBalanceError{AccountID: "A", Balance: decimal.NewFromInt(60), Amount: decimal.NewFromInt(1000)}
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "conflict - retries exhausted",
			body: `{"from":"A","to":"B","amount":1}`,
			executeFn: func(cqrs.ExecuteTransferCommand) (*transfer.Transfer, error) {
				return nil, &transfer.RetryExhaustedError{Attempts: 51, Err: transfer.ErrLockContention}
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "internal error",
			body: `{"from":"A","to":"B","amount":1}`,
			executeFn: func(cqrs.ExecuteTransferCommand) (*transfer.Transfer, error) {
				return nil, errors.New("disk full")
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&mockTransferCommander{executeFn: tt.executeFn}, &mockTransferQuerier{})
			w := doRequest(router, http.MethodPost, "/v1/transfers", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestCreateTransferResponseBody(t *testing.T) {
	router := newTestRouter(&mockTransferCommander{
		executeFn: func(cqrs.ExecuteTransferCommand) (*transfer.Transfer, error) { return sampleTransfer(), nil },
	}, &mockTransferQuerier{})

	w := doRequest(router, http.MethodPost, "/v1/transfers", `{"from":"A","to":"B","amount":40}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, sampleTransfer().ID, body["id"])
	assert.Equal(t, "40", body["amount"])
	assert.Equal(t, "2026-01-01T00:00:00Z", body["createdTimestamp"])
}

// ---- ListTransfers / DeleteTransfers ----

func TestListTransfers(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router := newTestRouter(&mockTransferCommander{}, &mockTransferQuerier{
			listFn: func(cqrs.ListTransfersQuery) ([]transfer.Transfer, error) {
				return []transfer.Transfer{*sampleTransfer()}, nil
			},
		})
		w := doRequest(router, http.MethodGet, "/v1/transfers", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp ListTransfersResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Transfers, 1)
		assert.Equal(t, "A", resp.Transfers[0].From)
	})

	t.Run("empty list is an empty array", func(t *testing.T) {
		router := newTestRouter(&mockTransferCommander{}, &mockTransferQuerier{
			listFn: func(cqrs.ListTransfersQuery) ([]transfer.Transfer, error) { return nil, nil },
		})
		w := doRequest(router, http.MethodGet, "/v1/transfers", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"transfers":[]}`, w.Body.String())
	})

	t.Run("internal error", func(t *testing.T) {
		router := newTestRouter(&mockTransferCommander{}, &mockTransferQuerier{})
		w := doRequest(router, http.MethodGet, "/v1/transfers", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestDeleteTransfers(t *testing.T) {
	var got cqrs.DeleteTransfersCommand
	router := newTestRouter(&mockTransferCommander{
		deleteFn: func(cmd cqrs.DeleteTransfersCommand) error {
			got = cmd
			return nil
		},
	}, &mockTransferQuerier{})

	w := doRequest(router, http.MethodDelete, "/v1/transfers", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, testUserID, got.UserID)

	router = newTestRouter(&mockTransferCommander{}, &mockTransferQuerier{})
	w = doRequest(router, http.MethodDelete, "/v1/transfers", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ---- GetAccount / GetBalances ----

func TestGetAccount(t *testing.T) {
	querier := &mockTransferQuerier{
		accountFn: func(q cqrs.GetAccountQuery) (*models.AccountView, error) {
			if q.AccountID != "A" {
				return nil, fmt.Errorf("%w: %s", account.ErrNotFound, q.AccountID)
			}
			return &models.AccountView{ID: "A", Balance: decimal.NewFromInt(60), Version: 1}, nil
		},
	}
	router := newTestRouter(&mockTransferCommander{}, querier)

	w := doRequest(router, http.MethodGet, "/v1/accounts/A", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view models.AccountView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, view.Balance.Equal(decimal.NewFromInt(60)))

	w = doRequest(router, http.MethodGet, "/v1/accounts/Z", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBalances(t *testing.T) {
	var got cqrs.GetBalancesQuery
	querier := &mockTransferQuerier{
		balancesFn: func(q cqrs.GetBalancesQuery) (*models.BalancesView, error) {
			got = q
			if len(q.AccountIDs) > 2 {
				return nil, &transfer.InvalidArgumentError{Field: "accounts"}
			}
			return &models.BalancesView{Balances: map[string]decimal.Decimal{
				"A": decimal.NewFromInt(60),
				"B": decimal.NewFromInt(40),
			}}, nil
		},
	}
	router := newTestRouter(&mockTransferCommander{}, querier)

	w := doRequest(router, http.MethodGet, "/v1/balances?accounts=A,B", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"A", "B"}, got.AccountIDs)

	w = doRequest(router, http.MethodGet, "/v1/balances", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/v1/balances?accounts=A,B,C", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
