package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/vending-machine/internal/core/domain"
	"github.com/rl1809/vending-machine/internal/port"
)

const (
	journalWriteTimeout = 5 * time.Second
	journalAttempts     = 3
)

var journalBackoff = 200 * time.Millisecond

// JournalWorker drains queue into db until the queue is closed. A sale that
// still fails after retries is logged and dropped; the product is already out.
func JournalWorker(id int, queue <-chan domain.Sale, db port.DatabaseRepository, logger *zap.Logger) {
	logger = logger.With(zap.Int("worker", id))
	for sale := range queue {
		if err := recordWithRetry(db, sale); err != nil {
			logger.Error("CRITICAL failed to record sale",
				zap.String("sale_id", sale.ID),
				zap.Stringer("product", sale.Product),
				zap.Error(err),
			)
			continue
		}
		logger.Debug("recorded sale", zap.String("sale_id", sale.ID))
	}
}

func recordWithRetry(db port.DatabaseRepository, sale domain.Sale) error {
	var err error
	for attempt := 1; attempt <= journalAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
		err = db.RecordSale(ctx, sale)
		cancel()
		if err == nil {
			return nil
		}
		if attempt < journalAttempts {
			time.Sleep(journalBackoff * time.Duration(attempt))
		}
	}
	return err
}
