package repository

import (
	"context"

	"github.com/spectra-metals/spectra-server/internal/domain/model"
)

type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (*model.AdminUser, error)
	TouchLogin(ctx context.Context, username string) error
}
