package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"freshBite/business/recommend"
	"freshBite/domain"
	"freshBite/pkg/metrics"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ResponseError struct {
	Message string `json:"message"`
}

type (
	RecommendationHandler struct {
		validate *validator.Validate
		service  RecommendationService
		recorder FeedbackRecorder
	}

	RecommendationService interface {
		Recommend(ctx context.Context, rctx domain.RecommendationContext, opts recommend.Options) ([]domain.RankedRecommendation, error)
		TrendingSnapshot(ctx context.Context, category string, windowHours, limit int) ([]domain.TrendingItem, error)
		Weights(ctx context.Context, vertical string) recommend.Weights
	}

	FeedbackRecorder interface {
		Record(event domain.FeedbackEvent) error
	}

	RecommendQuery struct {
		Vertical  string `query:"vertical" validate:"omitempty,oneof=food_delivery grocery"`
		Category  string `query:"category"`
		N         int    `query:"n"`
		Device    string `query:"device"`
		SessionID string `query:"session_id"`
		Cart      string `query:"cart"` // comma-separated item IDs
	}

	TrendingQuery struct {
		Category string `query:"category"`
		Window   int    `query:"window" validate:"omitempty,gte=1,lte=168"`
		N        int    `query:"n"`
	}

	FeedbackRequest struct {
		ItemID    uint64 `json:"item_id" validate:"required"`
		Action    string `json:"action" validate:"required,oneof=view add_to_cart order remove_from_cart dismiss"`
		SessionID string `json:"session_id" validate:"required"`
	}
)

func NewRecommendationHandler(service RecommendationService, recorder FeedbackRecorder) *RecommendationHandler {
	return &RecommendationHandler{
		validate: validator.New(),
		service:  service,
		recorder: recorder,
	}
}

// GET /api/v1/recommendations?vertical=food_delivery&category=pizza&n=10
func (h *RecommendationHandler) Recommend(c echo.Context) error {
	start := time.Now()

	q, rctx, err := h.bindRecommendQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	recs, err := h.service.Recommend(c.Request().Context(), rctx, recommend.Options{
		Vertical: q.Vertical,
		Category: q.Category,
		Limit:    q.N,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	metrics.RecommendRequests.Inc()
	metrics.RecommendLatency.Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}

// GET /api/v1/recommendations/trending?window=6&n=10
func (h *RecommendationHandler) Trending(c echo.Context) error {
	var q TrendingQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	items, err := h.service.TrendingSnapshot(c.Request().Context(), q.Category, q.Window, q.N)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(items))
}

// GET /api/v1/recommendations/debug — ranked list plus the weights used,
// for inspecting how each signal contributed.
func (h *RecommendationHandler) DebugRecommend(c echo.Context) error {
	q, rctx, err := h.bindRecommendQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	recs, err := h.service.Recommend(c.Request().Context(), rctx, recommend.Options{
		Vertical: q.Vertical,
		Category: q.Category,
		Limit:    q.N,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(echo.Map{
		"weights": h.service.Weights(c.Request().Context(), q.Vertical),
		"context": rctx,
		"items":   recs,
	}))
}

// POST /api/v1/recommendations/feedback
func (h *RecommendationHandler) Feedback(c echo.Context) error {
	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	event := domain.FeedbackEvent{
		CustomerID: customerID(c),
		SessionID:  req.SessionID,
		ItemID:     req.ItemID,
		Action:     req.Action,
		CreatedAt:  time.Now(),
	}

	if err := h.recorder.Record(event); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("feedback recorded"))
}

func (h *RecommendationHandler) bindRecommendQuery(c echo.Context) (RecommendQuery, domain.RecommendationContext, error) {
	var q RecommendQuery
	if err := c.Bind(&q); err != nil {
		return q, domain.RecommendationContext{}, err
	}
	if err := h.validate.Struct(&q); err != nil {
		return q, domain.RecommendationContext{}, err
	}

	sessionID := c.Request().Header.Get("X-Session-ID")
	if sessionID == "" {
		sessionID = q.SessionID
	}
	if sessionID == "" {
		return q, domain.RecommendationContext{}, errors.New("session_id is required")
	}

	rctx := domain.NewRecommendationContext(
		customerID(c),
		sessionID,
		time.Now(),
		parseCartIDs(q.Cart),
		q.Device,
	)

	return q, rctx, nil
}

func customerID(c echo.Context) uint {
	if v, ok := c.Get("customer_id").(uint); ok {
		return v
	}
	return 0 // anonymous
}

func parseCartIDs(raw string) []uint64 {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
