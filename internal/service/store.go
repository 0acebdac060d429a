package service

import (
	"context"

	"github.com/Skotchmaster/bus_pass/internal/models"
	"github.com/Skotchmaster/bus_pass/internal/repo"
)

// AccountStore is the slice of the credential store the services need.
// *repo.GormRepo satisfies it.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByAnyKey(ctx context.Context, keys repo.KeySet) ([]models.Account, error)
	FindConflicts(ctx context.Context, acc *models.Account, excludeID string) ([]string, error)
	Create(ctx context.Context, acc *models.Account) error
	CreateManySkipDuplicates(ctx context.Context, accounts []models.Account) (int64, error)
	Update(ctx context.Context, id string, fields map[string]any) (*models.Account, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) (int64, []models.Account, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

var _ AccountStore = (*repo.GormRepo)(nil)
