package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/vending-machine/internal/core/domain"
	"github.com/rl1809/vending-machine/internal/core/machine"
	"github.com/rl1809/vending-machine/internal/port"
)

var (
	ErrDuplicateRequest   = errors.New("duplicate request")
	ErrJournalUnavailable = errors.New("sales journal unavailable")
)

// MachineService serialises access to one vending machine. Every operation
// holds the lock for its whole duration, including the snapshot write, so
// stored snapshots follow the order of operations.
type MachineService struct {
	mu        sync.Mutex
	machineID string
	machine   *machine.VendingMachine
	cache     port.CacheRepository
	journal   port.DatabaseRepository
	saleQueue chan domain.Sale
	logger    *zap.Logger
	now       func() time.Time
}

// NewMachineService wraps vm. journal may be nil when sales are not kept;
// sales are then not queued and nothing needs to drain GetSaleQueue.
func NewMachineService(machineID string, vm *machine.VendingMachine, cache port.CacheRepository,
	journal port.DatabaseRepository, queueSize int, logger *zap.Logger) *MachineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MachineService{
		machineID: machineID,
		machine:   vm,
		cache:     cache,
		journal:   journal,
		saleQueue: make(chan domain.Sale, queueSize),
		logger:    logger.With(zap.String("machine_id", machineID)),
		now:       time.Now,
	}
}

func (s *MachineService) MachineID() string {
	return s.machineID
}

// Restore loads the last snapshot of this machine, if any.
func (s *MachineService) Restore(ctx context.Context) error {
	snap, err := s.cache.LoadSnapshot(ctx, s.machineID)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		s.logger.Info("no snapshot found, starting empty")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.Restore(*snap)
	s.logger.Info("restored snapshot",
		zap.Time("taken_at", snap.TakenAt),
		zap.Stringer("change_value", snap.ChangeValue),
		zap.Stringer("inserted", snap.Inserted),
	)
	return nil
}

// InsertCoin credits the coin and returns the inserted balance. Invalid
// coins are ignored.
func (s *MachineService) InsertCoin(ctx context.Context, coin domain.Coin) domain.Cents {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !coin.Valid() {
		s.logger.Warn("ignoring invalid coin", zap.Int("coin", int(coin)))
		return s.machine.CurrentMoney()
	}
	s.machine.InsertCoin(coin)
	s.persist(ctx)
	return s.machine.CurrentMoney()
}

// Purchase sells product for the inserted money. A non-empty requestID makes
// the call idempotent: a repeated ID is rejected with ErrDuplicateRequest
// unless the earlier attempt failed.
func (s *MachineService) Purchase(ctx context.Context, requestID string, product domain.Product) (domain.Sale, error) {
	idempotencyKey := ""
	if requestID != "" {
		idempotencyKey = fmt.Sprintf("purchase:%s:%s", s.machineID, requestID)
		ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
		if err != nil {
			return domain.Sale{}, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return domain.Sale{}, ErrDuplicateRequest
		}
	}

	s.mu.Lock()
	purchase, err := s.machine.SelectProduct(product)
	if err != nil {
		s.mu.Unlock()
		s.release(ctx, idempotencyKey)
		s.logger.Info("purchase rejected", zap.Stringer("product", product), zap.Error(err))
		return domain.Sale{}, err
	}
	s.persist(ctx)
	s.mu.Unlock()

	sale := domain.Sale{
		ID:        uuid.NewString(),
		MachineID: s.machineID,
		Product:   purchase.Product,
		Price:     purchase.Product.Price(),
		Paid:      purchase.Paid,
		Change:    purchase.Change,
		CreatedAt: s.now(),
	}
	s.logger.Info("product dispensed",
		zap.String("sale_id", sale.ID),
		zap.Stringer("product", sale.Product),
		zap.Stringer("paid", sale.Paid),
		zap.Stringers("change", sale.Change),
	)

	if s.journal != nil {
		s.saleQueue <- sale
	}
	return sale, nil
}

// Cancel hands back the inserted balance as coins.
func (s *MachineService) Cancel(ctx context.Context) ([]domain.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := s.machine.CurrentMoney()
	coins, err := s.machine.CancelRequest()
	if err != nil {
		s.logger.Warn("cancel rejected", zap.Stringer("inserted", inserted), zap.Error(err))
		return nil, err
	}
	s.persist(ctx)
	s.logger.Info("request cancelled", zap.Stringer("returned", inserted), zap.Stringers("coins", coins))
	return coins, nil
}

func (s *MachineService) Refill(ctx context.Context, products []domain.Product, coins []domain.Coin) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.machine.Refill(products, coins)
	s.persist(ctx)
	s.logger.Info("machine refilled", zap.Int("products", len(products)), zap.Int("coins", len(coins)))
}

func (s *MachineService) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.machine.Reset()
	s.persist(ctx)
	s.logger.Info("machine reset")
}

func (s *MachineService) Price(product domain.Product) (domain.Cents, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.ProductPrice(product)
}

func (s *MachineService) CurrentMoney() domain.Cents {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.CurrentMoney()
}

// Inventory reports current stock and balance.
func (s *MachineService) Inventory() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Sales lists recent journal entries of this machine.
func (s *MachineService) Sales(ctx context.Context, limit int) ([]domain.Sale, error) {
	if s.journal == nil {
		return nil, ErrJournalUnavailable
	}
	return s.journal.ListSales(ctx, s.machineID, limit)
}

func (s *MachineService) GetSaleQueue() <-chan domain.Sale {
	return s.saleQueue
}

func (s *MachineService) Close() {
	close(s.saleQueue)
}

func (s *MachineService) snapshot() domain.Snapshot {
	snap := s.machine.Snapshot()
	snap.TakenAt = s.now()
	return snap
}

// persist must be called with s.mu held. The machine has already acted, so a
// failed write is logged rather than returned.
func (s *MachineService) persist(ctx context.Context) {
	if err := s.cache.SaveSnapshot(ctx, s.machineID, s.snapshot()); err != nil {
		s.logger.Error("failed to save snapshot", zap.Error(err))
	}
}

func (s *MachineService) release(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.cache.ReleaseIdempotency(ctx, key); err != nil {
		s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(err))
	}
}
