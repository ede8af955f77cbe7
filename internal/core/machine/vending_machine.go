package machine

import (
	"fmt"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

// Purchase is what the machine hands out after a successful selection.
type Purchase struct {
	Product domain.Product
	Paid    domain.Cents
	Change  []domain.Coin
}

// VendingMachine runs a single customer session against product and coin
// stock. It is not safe for concurrent use; see service.MachineService.
type VendingMachine struct {
	products *domain.Ledger[domain.Product]
	cash     *CashManager
	inserted domain.Cents
}

func New(cash *CashManager) *VendingMachine {
	return &VendingMachine{
		products: domain.NewLedger(domain.Products()...),
		cash:     cash,
	}
}

// NewDefault builds a machine that gives change with the greedy strategy.
func NewDefault() *VendingMachine {
	return New(NewCashManager(GreedyStrategy{}))
}

func (m *VendingMachine) ProductPrice(product domain.Product) (domain.Cents, error) {
	if !product.Valid() {
		return 0, domain.ErrInvalidProduct
	}
	return product.Price(), nil
}

// InsertCoin credits the session and drops the coin in the box.
// Invalid coins are ignored.
func (m *VendingMachine) InsertCoin(coin domain.Coin) {
	if !coin.Valid() {
		return
	}
	m.inserted += coin.Value()
	m.cash.Deposit(coin)
}

func (m *VendingMachine) CurrentMoney() domain.Cents {
	return m.inserted
}

// SelectProduct sells one unit of product for the inserted money. On any
// error nothing changes: stock, coins and the inserted balance stay put.
func (m *VendingMachine) SelectProduct(product domain.Product) (Purchase, error) {
	if !product.Valid() {
		return Purchase{}, domain.ErrInvalidProduct
	}
	if !m.products.HasAtLeastOne(product) {
		return Purchase{}, fmt.Errorf("%w: %s", domain.ErrSoldOut, product.Name())
	}
	if m.inserted < product.Price() {
		return Purchase{}, fmt.Errorf("%w: %s costs %s, inserted %s",
			domain.ErrNotEnoughMoney, product.Name(), product.Price(), m.inserted)
	}

	change, err := m.cash.CalculateChange(m.inserted - product.Price())
	if err != nil {
		return Purchase{}, err
	}

	purchase := Purchase{Product: product, Paid: m.inserted, Change: change}
	m.products.Remove(product)
	m.cash.WithdrawMany(change)
	m.inserted = 0
	return purchase, nil
}

// CancelRequest returns the whole inserted balance as coins.
func (m *VendingMachine) CancelRequest() ([]domain.Coin, error) {
	coins, err := m.cash.CalculateChange(m.inserted)
	if err != nil {
		return nil, err
	}
	m.cash.WithdrawMany(coins)
	m.inserted = 0
	return coins, nil
}

// Refill adds stock. Invalid products and coins are skipped.
func (m *VendingMachine) Refill(products []domain.Product, coins []domain.Coin) {
	for _, p := range products {
		if p.Valid() {
			m.products.Add(p)
		}
	}
	m.cash.BulkDeposit(coins)
}

// Reset empties all stock and drops the inserted balance.
func (m *VendingMachine) Reset() {
	m.products.Reset()
	m.cash.Reset()
	m.inserted = 0
}

func (m *VendingMachine) ProductCount(product domain.Product) int {
	return m.products.Count(product)
}

func (m *VendingMachine) CoinCount(coin domain.Coin) int {
	return m.cash.Count(coin)
}

// Snapshot copies the current stock and balance.
func (m *VendingMachine) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Products:    m.products.Snapshot(),
		Coins:       m.cash.Snapshot(),
		Inserted:    m.inserted,
		ChangeValue: m.cash.TotalValue(),
	}
}

// Restore replaces stock and balance with the contents of snap.
func (m *VendingMachine) Restore(snap domain.Snapshot) {
	m.products.Reset()
	for p, count := range snap.Products {
		if p.Valid() {
			m.products.Set(p, count)
		}
	}
	m.cash.restore(snap.Coins)
	m.inserted = max(snap.Inserted, 0)
}
