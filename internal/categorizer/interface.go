package categorizer

import (
	"context"

	"github.com/insightdelivered/statement-ingest/internal/models"
)

// ConfigProvider loads a family's categories and enabled rules.
//
//go:generate mockgen -destination=mocks/mock_provider.go -package=mock_categorizer -source=interface.go ConfigProvider
type ConfigProvider interface {
	FamilyConfig(ctx context.Context, familyID string) (*models.FamilyConfig, error)
}
