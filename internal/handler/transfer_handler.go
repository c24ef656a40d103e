package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/eaglebank/transfer-service/internal/account"
	"github.com/eaglebank/transfer-service/internal/transfer"
	"github.com/eaglebank/transfer-service/shared/cqrs"
	"github.com/eaglebank/transfer-service/shared/middleware"
	"github.com/eaglebank/transfer-service/shared/models"
	"github.com/eaglebank/transfer-service/shared/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransferCommander defines the write-side operations used by TransferHandler.
type TransferCommander interface {
	ExecuteTransfer(context.Context, cqrs.ExecuteTransferCommand) (*transfer.Transfer, error)
	DeleteTransfers(context.Context, cqrs.DeleteTransfersCommand) error
}

// TransferQuerier defines the read-side operations used by TransferHandler.
type TransferQuerier interface {
	ListTransfers(context.Context, cqrs.ListTransfersQuery) ([]transfer.Transfer, error)
	GetAccount(context.Context, cqrs.GetAccountQuery) (*models.AccountView, error)
	GetBalances(context.Context, cqrs.GetBalancesQuery) (*models.BalancesView, error)
}

type TransferHandler struct {
	commands TransferCommander
	queries  TransferQuerier
}

type CreateTransferRequest struct {
	From   string           `json:"from" validate:"required,max=64,nefield=To"`
	To     string           `json:"to" validate:"required,max=64"`
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

type ListTransfersResponse struct {
	Transfers []transfer.Transfer `json:"transfers"`
}

func NewTransferHandler(commands TransferCommander, queries TransferQuerier) *TransferHandler {
	return &TransferHandler{commands: commands, queries: queries}
}

func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	t, err := h.commands.ExecuteTransfer(c.Request.Context(), cqrs.ExecuteTransferCommand{
		From:   req.From,
		To:     req.To,
		Amount: *req.Amount,
		UserID: userID,
	})
	if err != nil {
		_ = c.Error(err)
		respondWithTransferError(c, err, "Failed to execute transfer")
		return
	}

	c.JSON(http.StatusCreated, t)
}

func (h *TransferHandler) ListTransfers(c *gin.Context) {
	transfers, err := h.queries.ListTransfers(c.Request.Context(), cqrs.ListTransfersQuery{})
	if err != nil {
		_ = c.Error(err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to list transfers")
		return
	}
	if transfers == nil {
		transfers = []transfer.Transfer{}
	}
	c.JSON(http.StatusOK, ListTransfersResponse{Transfers: transfers})
}

func (h *TransferHandler) DeleteTransfers(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.commands.DeleteTransfers(c.Request.Context(), cqrs.DeleteTransfersCommand{UserID: userID}); err != nil {
		_ = c.Error(err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to delete transfers")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TransferHandler) GetAccount(c *gin.Context) {
	view, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{AccountID: c.Param("accountId")})
	if err != nil {
		_ = c.Error(err)
		respondWithTransferError(c, err, "Failed to get account")
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetBalances serves ?accounts=A,B as one consistent read.
func (h *TransferHandler) GetBalances(c *gin.Context) {
	ids := utils.SplitIDs(c.Query("accounts"))
	if len(ids) == 0 {
		middleware.RespondWithError(c, http.StatusBadRequest, "Query parameter accounts is required")
		return
	}

	view, err := h.queries.GetBalances(c.Request.Context(), cqrs.GetBalancesQuery{AccountIDs: ids})
	if err != nil {
		_ = c.Error(err)
		respondWithTransferError(c, err, "Failed to get balances")
		return
	}
	c.JSON(http.StatusOK, view)
}

// respondWithTransferError maps domain errors to status codes. Unknown
// accounts are checked before invalid arguments because the executor reports
// them as both.
func respondWithTransferError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, account.ErrNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
	case errors.Is(err, transfer.ErrInvalidArgument):
		middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, transfer.ErrInsufficientBalance):
		middleware.RespondWithError(c, http.StatusUnprocessableEntity, "Insufficient funds")
	case errors.Is(err, transfer.ErrRetryExhausted):
		middleware.RespondWithError(c, http.StatusConflict, "Accounts are busy, try again")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		middleware.RespondWithError(c, http.StatusServiceUnavailable, "Request cancelled")
	default:
		middleware.RespondWithError(c, http.StatusInternalServerError, fallback)
	}
}
