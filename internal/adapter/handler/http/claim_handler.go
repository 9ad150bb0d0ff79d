package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/usecase"
	"go.uber.org/zap"
)

type ClaimHandler struct {
	logger       *zap.Logger
	claimService *usecase.ClaimService
	images       ImageUploader
}

func NewClaimHandler(logger *zap.Logger, claimService *usecase.ClaimService, images ImageUploader) *ClaimHandler {
	return &ClaimHandler{
		logger:       logger,
		claimService: claimService,
		images:       images,
	}
}

// CreateClaim files a claim from the multipart form. A description is
// required; images are optional, zero is fine.
func (h *ClaimHandler) CreateClaim(c echo.Context) error {
	subscriptionID := c.FormValue("subscriptionId")
	description := c.FormValue("productDescription")
	claimType := c.FormValue("claimType")

	if subscriptionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subscriptionId is required"})
	}
	if description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "productDescription is required"})
	}

	var imagePaths []string
	if form, err := c.MultipartForm(); err == nil {
		for _, header := range form.File["images"] {
			file, err := header.Open()
			if err != nil {
				h.logger.Error("Failed to open claim image", zap.Error(err))
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "Could not read uploaded image"})
			}
			path, err := h.images.Upload(c.Request().Context(), "claims/"+subscriptionID, file, header)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to store image"})
			}
			imagePaths = append(imagePaths, path)
		}
	}

	claim, err := h.claimService.CreateClaim(c.Request().Context(), &usecase.CreateClaimInput{
		SubscriptionID:     subscriptionID,
		ProductDescription: description,
		ClaimType:          model.ClaimType(claimType),
		Notes:              c.FormValue("notes"),
		ImagePaths:         imagePaths,
	})
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrSubscriptionNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Subscription not found"})
		case errors.Is(err, domainErrors.ErrNoActiveSubscription):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Subscription is not active"})
		}
		h.logger.Error("Failed to create claim",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"claim":   claim,
	})
}

// GetClaims lists a user's claims.
func (h *ClaimHandler) GetClaims(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	claims, err := h.claimService.ListByEmail(c.Request().Context(), email)
	if err != nil {
		h.logger.Error("Failed to list claims",
			zap.String("email", email),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list claims"})
	}

	return c.JSON(http.StatusOK, echo.Map{"claims": claims})
}
