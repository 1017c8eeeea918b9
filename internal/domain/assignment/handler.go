package assignment

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/consulthub/consulthub/internal/platform/auth"
	"github.com/consulthub/consulthub/internal/platform/blobstore"
	"github.com/consulthub/consulthub/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/assignments", auth.RequireActor())
	g.POST("", h.CreateRequest)
	g.GET("", h.ListRequests)
	g.GET("/:id", h.GetRequest)
	g.POST("/:id/actions", h.ApplyAction)
	g.GET("/:id/messages", h.ListMessages)
	g.GET("/:id/brief", h.DownloadBrief)
	g.GET("/:id/receipt", h.DownloadReceipt)
}

// httpError maps the transition error taxonomy onto HTTP statuses.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidAction), errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func actorOr401(c echo.Context) (auth.Actor, error) {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return auth.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing caller identity")
	}
	return actor, nil
}

func requestID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid assignment id")
	}
	return id, nil
}

func (h *Handler) CreateRequest(c echo.Context) error {
	actor, err := actorOr401(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req, err := h.svc.Create(c.Request().Context(), actor, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, req)
}

func (h *Handler) ListRequests(c echo.Context) error {
	actor, err := actorOr401(c)
	if err != nil {
		return err
	}
	params := pagination.FromContext(c)
	items, total, err := h.svc.ListForActor(c.Request().Context(), actor, params.Limit, params.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Limit, params.Offset))
}

func (h *Handler) GetRequest(c echo.Context) error {
	actor, err := actorOr401(c)
	if err != nil {
		return err
	}
	id, err := requestID(c)
	if err != nil {
		return err
	}
	detail, err := h.svc.GetDetail(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

// ApplyAction is the single write entry point for the negotiation lifecycle.
// The body is { "action": ..., ...payload }.
func (h *Handler) ApplyAction(c echo.Context) error {
	actor, err := actorOr401(c)
	if err != nil {
		return err
	}
	id, err := requestID(c)
	if err != nil {
		return err
	}
	var in ActionRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req, err := h.svc.Apply(c.Request().Context(), actor, id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) ListMessages(c echo.Context) error {
	actor, err := actorOr401(c)
	if err != nil {
		return err
	}
	id, err := requestID(c)
	if err != nil {
		return err
	}
	msgs, err := h.svc.ListMessages(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, msgs)
}

func (h *Handler) DownloadBrief(c echo.Context) error {
	return h.stream(c, h.svc.DownloadBrief)
}

func (h *Handler) DownloadReceipt(c echo.Context) error {
	return h.stream(c, h.svc.DownloadReceipt)
}

func (h *Handler) stream(c echo.Context, fetch func(ctx context.Context, actor auth.Actor, id uuid.UUID) (io.ReadCloser, *blobstore.BlobMetadata, error)) error {
	actor, err := actorOr401(c)
	if err != nil {
		return err
	}
	id, err := requestID(c)
	if err != nil {
		return err
	}
	rc, meta, err := fetch(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	defer rc.Close()
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+meta.FileName+`"`)
	return c.Stream(http.StatusOK, echo.MIMEOctetStream, rc)
}
