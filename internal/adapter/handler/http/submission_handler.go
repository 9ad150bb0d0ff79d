package http

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/usecase"
	"go.uber.org/zap"
)

// ImageUploader stores uploaded files and returns their public path.
type ImageUploader interface {
	Upload(ctx context.Context, prefix string, file multipart.File, header *multipart.FileHeader) (string, error)
}

type SubmissionHandler struct {
	logger            *zap.Logger
	submissionService *usecase.SubmissionService
	otpService        *usecase.OTPService
	images            ImageUploader
}

func NewSubmissionHandler(
	logger *zap.Logger,
	submissionService *usecase.SubmissionService,
	otpService *usecase.OTPService,
	images ImageUploader,
) *SubmissionHandler {
	return &SubmissionHandler{
		logger:            logger,
		submissionService: submissionService,
		otpService:        otpService,
		images:            images,
	}
}

// SubmitForm accepts the public multipart form: item details plus an
// optional image.
func (h *SubmissionHandler) SubmitForm(c echo.Context) error {
	name := c.FormValue("name")
	email := c.FormValue("email")
	sku := c.FormValue("sku")
	metal := c.FormValue("metal")
	action := c.FormValue("action")
	gramsRaw := c.FormValue("grams")

	if name == "" || email == "" || sku == "" || metal == "" || action == "" || gramsRaw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "name, email, sku, metal, grams and action are required",
		})
	}

	grams, err := decimal.NewFromString(gramsRaw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "grams must be a number",
		})
	}

	imagePath := ""
	if header, err := c.FormFile("image"); err == nil {
		file, err := header.Open()
		if err != nil {
			h.logger.Error("Failed to open uploaded image", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"message": "Could not read uploaded image",
			})
		}
		imagePath, err = h.images.Upload(c.Request().Context(), "submissions", file, header)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"success": false,
				"message": "Failed to store image",
			})
		}
	}

	submission, err := h.submissionService.CreateSubmission(c.Request().Context(), &usecase.CreateSubmissionInput{
		Name:        name,
		Email:       email,
		SKU:         sku,
		Description: c.FormValue("description"),
		Metal:       metal,
		Grams:       grams,
		Action:      model.TransactionAction(action),
		ImagePath:   imagePath,
	})
	if err != nil {
		h.logger.Error("Failed to create submission",
			zap.String("sku", sku),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Submission received",
		"id":      submission.ID,
	})
}

// GetSKUSuggestions serves autocomplete for partial SKUs.
func (h *SubmissionHandler) GetSKUSuggestions(c echo.Context) error {
	suggestions, err := h.submissionService.SearchSKUs(c.Request().Context(), c.QueryParam("term"))
	if err != nil {
		h.logger.Error("SKU search failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to search SKUs",
		})
	}

	return c.JSON(http.StatusOK, suggestions)
}

// GetSKUData returns the prior submission for a SKU, or a verification
// demand when it belongs to a different email.
func (h *SubmissionHandler) GetSKUData(c echo.Context) error {
	sku := c.QueryParam("sku")
	if sku == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sku is required"})
	}

	data, err := h.submissionService.GetSKUData(c.Request().Context(), sku, c.QueryParam("email"))
	if err != nil {
		if errors.Is(err, domainErrors.ErrSubmissionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "SKU not found"})
		}
		h.logger.Error("SKU lookup failed", zap.String("sku", sku), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to look up SKU"})
	}

	if data.RequiresVerification {
		return c.JSON(http.StatusOK, echo.Map{"requiresVerification": true})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"requiresVerification": false,
		"submission":           data.Submission,
	})
}

type sendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	SKU   string `json:"sku" validate:"required"`
}

// SendOTP mails a verification code for a SKU ownership check.
func (h *SubmissionHandler) SendOTP(c echo.Context) error {
	var req sendOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and sku are required"})
	}

	if err := h.otpService.SendOTP(c.Request().Context(), req.Email, req.SKU); err != nil {
		if errors.Is(err, domainErrors.ErrSubmissionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "SKU not found"})
		}
		h.logger.Error("Failed to send verification code",
			zap.String("sku", req.SKU),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to send verification code"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	SKU   string `json:"sku" validate:"required"`
	OTP   string `json:"otp" validate:"required"`
}

// VerifyOTP checks the code and releases the submission on success.
func (h *SubmissionHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, sku and otp are required"})
	}

	submission, err := h.otpService.VerifyOTP(c.Request().Context(), req.Email, req.SKU, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrOTPInvalid):
			return c.JSON(http.StatusOK, echo.Map{"verified": false, "error": "Invalid verification code"})
		case errors.Is(err, domainErrors.ErrOTPExpired):
			return c.JSON(http.StatusOK, echo.Map{"verified": false, "error": "Verification code has expired"})
		}
		h.logger.Error("Failed to verify code", zap.String("sku", req.SKU), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to verify code"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"verified":   true,
		"submission": submission,
	})
}
