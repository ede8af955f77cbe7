package machine

import "github.com/rl1809/vending-machine/internal/core/domain"

// CashManager keeps the coin box of a machine and works out change from it.
type CashManager struct {
	coins    *domain.Ledger[domain.Coin]
	strategy ChangeStrategy
}

func NewCashManager(strategy ChangeStrategy) *CashManager {
	if strategy == nil {
		strategy = GreedyStrategy{}
	}
	return &CashManager{
		coins:    domain.NewLedger(domain.Denominations()...),
		strategy: strategy,
	}
}

// Deposit adds one coin to the box. Invalid coins are ignored.
func (m *CashManager) Deposit(coin domain.Coin) {
	if !coin.Valid() {
		return
	}
	m.coins.Add(coin)
}

func (m *CashManager) BulkDeposit(coins []domain.Coin) {
	for _, c := range coins {
		m.Deposit(c)
	}
}

func (m *CashManager) Withdraw(coin domain.Coin) {
	m.coins.Remove(coin)
}

func (m *CashManager) WithdrawMany(coins []domain.Coin) {
	m.coins.RemoveMany(coins)
}

func (m *CashManager) HasAtLeastOne(coin domain.Coin) bool {
	return m.coins.HasAtLeastOne(coin)
}

func (m *CashManager) Count(coin domain.Coin) int {
	return m.coins.Count(coin)
}

// TotalValue is the value of every coin in the box.
func (m *CashManager) TotalValue() domain.Cents {
	var total domain.Cents
	for coin, count := range m.coins.Snapshot() {
		total += coin.Value() * domain.Cents(count)
	}
	return total
}

func (m *CashManager) Snapshot() map[domain.Coin]int {
	return m.coins.Snapshot()
}

func (m *CashManager) Reset() {
	m.coins.Reset()
}

// CalculateChange picks the coins to return for amount without touching the
// box. The caller commits the result with WithdrawMany.
func (m *CashManager) CalculateChange(amount domain.Cents) ([]domain.Coin, error) {
	if amount == 0 {
		return []domain.Coin{}, nil
	}
	return m.strategy.CalculateChange(amount, m.coins.Clone())
}

func (m *CashManager) restore(counts map[domain.Coin]int) {
	m.coins.Reset()
	for coin, count := range counts {
		if coin.Valid() {
			m.coins.Set(coin, count)
		}
	}
}
