package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spectra-metals/spectra-server/internal/config"
	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/domain/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DashboardData aggregates everything the admin dashboard renders.
type DashboardData struct {
	Submissions   []*model.Submission      `json:"submissions"`
	Orders        []*model.Order           `json:"orders"`
	Subscriptions []*model.Subscription    `json:"subscriptions"`
	Claims        []*model.Claim           `json:"claims"`
	OrdersMap     map[int64][]*model.Order `json:"ordersMap"`
}

type AdminService struct {
	adminRepo        repository.AdminRepository
	submissionRepo   repository.SubmissionRepository
	orderRepo        repository.OrderRepository
	subscriptionRepo repository.SubscriptionRepository
	claimRepo        repository.ClaimRepository
	cfg              *config.AdminConfig
	logger           *zap.Logger
}

func NewAdminService(
	adminRepo repository.AdminRepository,
	submissionRepo repository.SubmissionRepository,
	orderRepo repository.OrderRepository,
	subscriptionRepo repository.SubscriptionRepository,
	claimRepo repository.ClaimRepository,
	cfg *config.AdminConfig,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		adminRepo:        adminRepo,
		submissionRepo:   submissionRepo,
		orderRepo:        orderRepo,
		subscriptionRepo: subscriptionRepo,
		claimRepo:        claimRepo,
		cfg:              cfg,
		logger:           logger,
	}
}

// Login checks credentials and issues a session token. rememberMe extends
// the expiry from the default TTL to the remember TTL.
func (s *AdminService) Login(ctx context.Context, username, password string, rememberMe bool) (string, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, username)
	if err != nil {
		// Same failure either way so usernames can't be probed.
		s.logger.Warn("login for unknown admin", zap.String("username", username))
		return "", domainErrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("login with wrong password", zap.String("username", username))
		return "", domainErrors.ErrInvalidCredentials
	}

	ttl := s.cfg.TokenTTL
	if rememberMe {
		ttl = s.cfg.RememberTTL
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  admin.Username,
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})

	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	if err := s.adminRepo.TouchLogin(ctx, admin.Username); err != nil {
		s.logger.Warn("failed to stamp login time", zap.Error(err))
	}

	s.logger.Info("admin logged in",
		zap.String("username", admin.Username),
		zap.Bool("remember_me", rememberMe))

	return signed, nil
}

// VerifyToken reports whether a session token is valid and unexpired.
func (s *AdminService) VerifyToken(tokenString string) bool {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	role, _ := claims["role"].(string)
	return role == "admin"
}

// GetDashboard loads everything the dashboard shows in one pass.
func (s *AdminService) GetDashboard(ctx context.Context) (*DashboardData, error) {
	submissions, err := s.submissionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	subscriptions, err := s.subscriptionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	claims, err := s.claimRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}

	ordersMap := make(map[int64][]*model.Order)
	for _, order := range orders {
		ordersMap[order.SubmissionID] = append(ordersMap[order.SubmissionID], order)
	}

	return &DashboardData{
		Submissions:   submissions,
		Orders:        orders,
		Subscriptions: subscriptions,
		Claims:        claims,
		OrdersMap:     ordersMap,
	}, nil
}
