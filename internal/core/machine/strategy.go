package machine

import (
	"fmt"
	"strings"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

// ChangeStrategy selects the coins to return for amount from available.
// Implementations remove the selected coins from available as they go and
// do not roll back on failure, so callers hand them a working copy.
type ChangeStrategy interface {
	CalculateChange(amount domain.Cents, available *domain.Ledger[domain.Coin]) ([]domain.Coin, error)
}

const (
	StrategyGreedy  = "greedy"
	StrategyOptimal = "optimal"
)

// NewStrategy returns the change strategy registered under name.
func NewStrategy(name string) (ChangeStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyGreedy:
		return GreedyStrategy{}, nil
	case StrategyOptimal:
		return OptimalStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown change strategy %q", name)
	}
}

// GreedyStrategy always takes the largest coin that still fits. It can fail
// even when some other combination of the available coins would add up.
type GreedyStrategy struct{}

func (GreedyStrategy) CalculateChange(amount domain.Cents, available *domain.Ledger[domain.Coin]) ([]domain.Coin, error) {
	if amount < 0 {
		return nil, fmt.Errorf("negative change amount %s", amount)
	}

	coins := []domain.Coin{}
	remaining := amount
	for remaining > 0 {
		coin, ok := largestFitting(remaining, available)
		if !ok {
			return nil, fmt.Errorf("%w: %s of %s left to return", domain.ErrNotEnoughChange, remaining, amount)
		}
		coins = append(coins, coin)
		available.Remove(coin)
		remaining -= coin.Value()
	}
	return coins, nil
}

func largestFitting(remaining domain.Cents, available *domain.Ledger[domain.Coin]) (domain.Coin, bool) {
	for _, coin := range domain.Denominations() {
		if coin.Value() <= remaining && available.HasAtLeastOne(coin) {
			return coin, true
		}
	}
	return domain.CoinNone, false
}
