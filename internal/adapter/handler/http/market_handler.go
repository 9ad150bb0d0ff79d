package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spectra-metals/spectra-server/internal/usecase"
	"go.uber.org/zap"
)

type MarketHandler struct {
	logger        *zap.Logger
	marketService *usecase.MarketService
}

func NewMarketHandler(logger *zap.Logger, marketService *usecase.MarketService) *MarketHandler {
	return &MarketHandler{
		logger:        logger,
		marketService: marketService,
	}
}

// GetData serves current prices and the 30-day series per metal.
func (h *MarketHandler) GetData(c echo.Context) error {
	data, err := h.marketService.GetMarketData(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to load market data", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to load market data",
		})
	}

	return c.JSON(http.StatusOK, data)
}
