package port

import (
	"context"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

type DatabaseRepository interface {
	// RecordSale appends a completed sale to the journal
	RecordSale(ctx context.Context, sale domain.Sale) error

	// ListSales returns the most recent sales of a machine, newest first
	ListSales(ctx context.Context, machineID string, limit int) ([]domain.Sale, error)
}
