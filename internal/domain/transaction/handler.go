package transaction

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/consulthub/consulthub/internal/domain/ledger"
	"github.com/consulthub/consulthub/internal/platform/auth"
	"github.com/consulthub/consulthub/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/transactions", auth.RequireRole(auth.RoleAdmin))
	g.POST("", h.RecordTransaction)
	g.GET("", h.ListTransactions)
	g.GET("/:id", h.GetTransaction)
}

type recordResponse struct {
	Transaction *Transaction              `json:"transaction"`
	Earning     *ledger.ConsultantEarning `json:"earning,omitempty"`
}

func (h *Handler) RecordTransaction(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing caller identity")
	}
	var in RecordInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	txn, entry, err := h.svc.Record(c.Request().Context(), actor, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrDuplicateEntry):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusCreated, recordResponse{Transaction: txn, Earning: entry})
}

func (h *Handler) ListTransactions(c echo.Context) error {
	params := pagination.FromContext(c)
	var f ListFilter
	f.Type = Type(c.QueryParam("type"))
	if raw := c.QueryParam("consultant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid consultant_id")
		}
		f.ConsultantID = &id
	}
	items, total, err := h.svc.List(c.Request().Context(), f, params.Limit, params.Offset)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Limit, params.Offset))
}

func (h *Handler) GetTransaction(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid transaction id")
	}
	txn, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, txn)
}
