package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"retailpos/internal/apierror"
	"retailpos/internal/dto"
	"retailpos/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// PriceCheckHandler serves the public price check endpoint.
// No authentication required — no side effects whatsoever.
type PriceCheckHandler struct {
	repo     repository.ProductRepository
	rdb      *redis.Client
	cacheTTL time.Duration
}

func NewPriceCheckHandler(repo repository.ProductRepository, rdb *redis.Client, cacheTTL time.Duration) *PriceCheckHandler {
	return &PriceCheckHandler{repo: repo, rdb: rdb, cacheTTL: cacheTTL}
}

// GetByBarcode godoc
// @Summary Price check by barcode (no authentication)
// @Tags price
// @Produce json
// @Param barcode path string true "Barcode"
// @Success 200 {object} dto.PriceCheckResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/price/{barcode} [get]
func (h *PriceCheckHandler) GetByBarcode(c *gin.Context) {
	barcode := c.Param("barcode")
	ctx := c.Request.Context()
	cacheKey := "price:" + barcode

	// 1. Try Redis cache
	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp dto.PriceCheckResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	// 2. Cache miss — query DB
	product, err := h.repo.FindByBarcode(ctx, barcode)
	if err != nil || !product.Active {
		c.JSON(http.StatusNotFound, apierror.New("product not found"))
		return
	}

	resp := dto.PriceCheckResponse{
		Name:           product.Name,
		SalePrice:      product.SalePrice,
		StockAvailable: product.Stock,
	}

	// 3. Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, h.cacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}
