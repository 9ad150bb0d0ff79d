package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/middleware/auth"
	"github.com/spectra-metals/spectra-server/internal/usecase"
	"go.uber.org/zap"
)

type AdminHandler struct {
	logger       *zap.Logger
	adminService *usecase.AdminService
}

func NewAdminHandler(logger *zap.Logger, adminService *usecase.AdminService) *AdminHandler {
	return &AdminHandler{
		logger:       logger,
		adminService: adminService,
	}
}

type adminLoginRequest struct {
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// Login checks credentials and issues a session token.
func (h *AdminHandler) Login(c echo.Context) error {
	var req adminLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   "username and password are required",
		})
	}

	token, err := h.adminService.Login(c.Request().Context(), req.Username, req.Password, req.RememberMe)
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"success": false,
				"error":   "Invalid username or password",
			})
		}
		h.logger.Error("Admin login failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Login failed",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"token":    token,
		"redirect": "/admin/dashboard",
	})
}

type verifyTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// VerifyToken reports whether a session token is still valid.
func (h *AdminHandler) VerifyToken(c echo.Context) error {
	var req verifyTokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"valid": false})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"valid": false})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"valid": h.adminService.VerifyToken(req.Token),
	})
}

// CheckSession confirms the bearer session; the JWT middleware has
// already rejected anything invalid.
func (h *AdminHandler) CheckSession(c echo.Context) error {
	admin, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"valid":    true,
		"username": admin.Username,
	})
}

// GetDashboard serves everything the admin dashboard renders.
func (h *AdminHandler) GetDashboard(c echo.Context) error {
	if _, err := auth.RequireAuth(c); err != nil {
		return err
	}

	data, err := h.adminService.GetDashboard(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to load dashboard", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load dashboard"})
	}

	return c.JSON(http.StatusOK, data)
}
