package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/bakery-bookings/internal/model"
	"github.com/iliyamo/bakery-bookings/internal/service"
)

// ReviewHandler serves testimonials and their moderation.
type ReviewHandler struct {
	Reviews *service.ReviewService
	Logger  *zap.Logger
}

func NewReviewHandler(r *service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{Reviews: r, Logger: logger}
}

// ListPublic handles GET /v1/reviews.
func (h *ReviewHandler) ListPublic(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Reviews.ListApproved(ctx)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": emptyIfNil(list), "count": len(list)})
}

// Create handles POST /v1/reviews.
func (h *ReviewHandler) Create(c echo.Context) error {
	sess, err := sessionFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req service.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	rv, err := h.Reviews.Submit(ctx, sess, req)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, rv)
}

// ListAdmin handles GET /v1/admin/reviews?status=pending|approved.
func (h *ReviewHandler) ListAdmin(c echo.Context) error {
	sess, err := sessionFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	var list []model.Review
	switch c.QueryParam("status") {
	case "", string(model.ReviewPending):
		list, err = h.Reviews.ListPending(ctx, sess)
	case string(model.ReviewApproved):
		list, err = h.Reviews.ListApproved(ctx)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be pending or approved"})
	}
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": emptyIfNil(list), "count": len(list)})
}

// Approve handles POST /v1/admin/reviews/:id/approve.
func (h *ReviewHandler) Approve(c echo.Context) error { return h.moderate(c, true) }

// Reject handles POST /v1/admin/reviews/:id/reject.
func (h *ReviewHandler) Reject(c echo.Context) error { return h.moderate(c, false) }

func (h *ReviewHandler) moderate(c echo.Context, approve bool) error {
	sess, err := sessionFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	var rv model.Review
	if approve {
		rv, err = h.Reviews.Approve(ctx, sess, id)
	} else {
		rv, err = h.Reviews.Reject(ctx, sess, id)
	}
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, rv)
}

func emptyIfNil(list []model.Review) []model.Review {
	if list == nil {
		return []model.Review{}
	}
	return list
}
