package delivery

import (
	"context"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// Multi delivers to every target in order and stops at the first failure.
type Multi []usecase.SnapshotDeliverer

// Deliver implements usecase.SnapshotDeliverer.
func (m Multi) Deliver(ctx context.Context, snapshot *domain.ExportSnapshot) error {
	for _, d := range m {
		if err := d.Deliver(ctx, snapshot); err != nil {
			return err
		}
	}
	return nil
}
