package rest

import (
	"context"
	"net/http"

	"freshBite/business/recommend"
	"freshBite/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	AdminHandler struct {
		validate    *validator.Validate
		weightsRepo recommend.WeightsRepository
		bandit      BanditAdminService
	}

	BanditAdminService interface {
		Reset(ctx context.Context, itemID uint64) error
	}

	UpsertWeightsRequest struct {
		Vertical      string  `json:"vertical" validate:"required,oneof=food_delivery grocery"`
		Bandit        float64 `json:"bandit" validate:"gte=0,lte=1"`
		Trending      float64 `json:"trending" validate:"gte=0,lte=1"`
		Affinity      float64 `json:"affinity" validate:"gte=0,lte=1"`
		Collaborative float64 `json:"collaborative" validate:"gte=0,lte=1"`
	}

	ResetArmRequest struct {
		ItemID uint64 `json:"item_id" validate:"required"`
	}
)

func NewAdminHandler(weightsRepo recommend.WeightsRepository, bandit BanditAdminService) *AdminHandler {
	return &AdminHandler{
		validate:    validator.New(),
		weightsRepo: weightsRepo,
		bandit:      bandit,
	}
}

// GET /api/v1/admin/reco/weights?vertical=food_delivery
func (h *AdminHandler) GetWeights(c echo.Context) error {
	vertical := c.QueryParam("vertical")
	if vertical == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "vertical is required"})
	}

	row, ok, err := h.weightsRepo.GetWeights(c.Request().Context(), vertical)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	if !ok {
		def := recommend.DefaultWeights(vertical)
		return c.JSON(http.StatusOK, fres.Response.StatusOK(echo.Map{
			"vertical": vertical,
			"weights":  def,
			"source":   "default",
		}))
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(echo.Map{
		"vertical": row.Vertical,
		"weights": recommend.Weights{
			Bandit:        row.WBandit,
			Trending:      row.WTrending,
			Affinity:      row.WAffinity,
			Collaborative: row.WCollaborative,
		},
		"source": "database",
	}))
}

// PUT /api/v1/admin/reco/weights
func (h *AdminHandler) UpsertWeights(c echo.Context) error {
	var req UpsertWeightsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	w := recommend.Weights{
		Bandit:        req.Bandit,
		Trending:      req.Trending,
		Affinity:      req.Affinity,
		Collaborative: req.Collaborative,
	}
	if err := w.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	err := h.weightsRepo.UpsertWeights(c.Request().Context(), domain.RecoWeights{
		Vertical:       req.Vertical,
		WBandit:        req.Bandit,
		WTrending:      req.Trending,
		WAffinity:      req.Affinity,
		WCollaborative: req.Collaborative,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("weights updated"))
}

// POST /api/v1/admin/bandit/reset — wipe one arm back to the uniform prior.
func (h *AdminHandler) ResetArm(c echo.Context) error {
	var req ResetArmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.bandit.Reset(c.Request().Context(), req.ItemID); err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("arm reset"))
}
