package machine

import (
	"fmt"
	"math"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

// OptimalStrategy returns the fewest coins that add up to the amount using
// only the coins in stock. It finds a solution whenever one exists.
type OptimalStrategy struct{}

func (OptimalStrategy) CalculateChange(amount domain.Cents, available *domain.Ledger[domain.Coin]) ([]domain.Coin, error) {
	if amount < 0 {
		return nil, fmt.Errorf("negative change amount %s", amount)
	}
	if amount == 0 {
		return []domain.Coin{}, nil
	}

	denominations := domain.Denominations()
	target := int(amount)
	const unreachable = math.MaxInt

	// best[v] is the fewest coins reaching v with the denominations seen so far;
	// used[i][v] is how many coins of denominations[i] that solution takes.
	best := make([]int, target+1)
	for v := 1; v <= target; v++ {
		best[v] = unreachable
	}
	used := make([][]int, len(denominations))

	for i, coin := range denominations {
		value := int(coin.Value())
		stock := available.Count(coin)
		next := make([]int, target+1)
		used[i] = make([]int, target+1)
		for v := 0; v <= target; v++ {
			next[v] = best[v]
			for j := 1; j <= stock && j*value <= v; j++ {
				prev := best[v-j*value]
				if prev != unreachable && prev+j < next[v] {
					next[v] = prev + j
					used[i][v] = j
				}
			}
		}
		best = next
	}

	if best[target] == unreachable {
		return nil, fmt.Errorf("%w: no combination of coins in stock adds up to %s", domain.ErrNotEnoughChange, amount)
	}

	counts := make([]int, len(denominations))
	for i, v := len(denominations)-1, target; i >= 0; i-- {
		counts[i] = used[i][v]
		v -= counts[i] * int(denominations[i].Value())
	}

	coins := make([]domain.Coin, 0, best[target])
	for i, coin := range denominations {
		for j := 0; j < counts[i]; j++ {
			coins = append(coins, coin)
			available.Remove(coin)
		}
	}
	return coins, nil
}
