package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

type options struct {
	customers    int
	productStock int
	coinStock    int
	seed         uint64
}

type result struct {
	sold     map[domain.Product]int
	failures map[string]int
	inserted domain.Cents
	returned domain.Cents
	before   domain.Snapshot
	after    domain.Snapshot
	elapsed  time.Duration
}

// check verifies that no money or product appeared or vanished.
func (r result) check() error {
	var errs []error

	boxGrowth := r.after.ChangeValue - r.before.ChangeValue
	if r.inserted != boxGrowth+r.returned {
		errs = append(errs, fmt.Errorf("coin box: inserted %s, box grew %s, returned %s",
			r.inserted, boxGrowth, r.returned))
	}
	var revenue domain.Cents
	for p, n := range r.sold {
		revenue += domain.Cents(n) * p.Price()
	}
	if balance := r.after.Inserted - r.before.Inserted; r.inserted != revenue+r.returned+balance {
		errs = append(errs, fmt.Errorf("balance: inserted %s, revenue %s, returned %s, left %s",
			r.inserted, revenue, r.returned, balance))
	}
	if r.after.Inserted < 0 {
		errs = append(errs, fmt.Errorf("negative balance %s", r.after.Inserted))
	}
	for _, p := range domain.Products() {
		if drop := r.before.Products[p] - r.after.Products[p]; drop != r.sold[p] {
			errs = append(errs, fmt.Errorf("%s: stock dropped %d, sold %d", p, drop, r.sold[p]))
		}
	}
	for c, n := range r.after.Coins {
		if n < 0 {
			errs = append(errs, fmt.Errorf("%s: negative count %d", c, n))
		}
	}
	return errors.Join(errs...)
}

// simulate refills the machine, then lets customers insert coins and buy
// concurrently. A customer whose purchase fails asks for a refund.
func simulate(ctx context.Context, m target, opts options) (result, error) {
	products := make([]domain.Product, 0, opts.productStock*len(domain.Products()))
	for _, p := range domain.Products() {
		for i := 0; i < opts.productStock; i++ {
			products = append(products, p)
		}
	}
	coins := make([]domain.Coin, 0, opts.coinStock*len(domain.Denominations()))
	for _, c := range domain.Denominations() {
		for i := 0; i < opts.coinStock; i++ {
			coins = append(coins, c)
		}
	}
	if err := m.Refill(ctx, products, coins); err != nil {
		return result{}, fmt.Errorf("refill: %w", err)
	}

	before, err := m.Inventory(ctx)
	if err != nil {
		return result{}, fmt.Errorf("inventory: %w", err)
	}

	var (
		mu       sync.Mutex
		res      = result{sold: map[domain.Product]int{}, failures: map[string]int{}, before: before}
		inserted atomic.Int64
		returned atomic.Int64
		wg       sync.WaitGroup
	)

	start := time.Now()
	for i := 0; i < opts.customers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(opts.seed, uint64(id)))

			all := domain.Products()
			product := all[rng.IntN(len(all))]
			for paid := domain.Cents(0); paid < product.Price(); {
				denoms := domain.Denominations()
				coin := denoms[rng.IntN(len(denoms))]
				if err := m.InsertCoin(ctx, coin); err != nil {
					mu.Lock()
					res.failures["insert: "+err.Error()]++
					mu.Unlock()
					return
				}
				inserted.Add(int64(coin.Value()))
				paid += coin.Value()
			}

			change, err := m.Purchase(ctx, uuid.NewString(), product)
			if err == nil {
				returned.Add(int64(domain.SumCoins(change)))
				mu.Lock()
				res.sold[product]++
				mu.Unlock()
				return
			}
			failure := reason(err)

			refund, err := m.Cancel(ctx)
			if err != nil {
				failure = "cancel: " + reason(err)
			} else {
				returned.Add(int64(domain.SumCoins(refund)))
			}
			mu.Lock()
			res.failures[failure]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	res.elapsed = time.Since(start)

	res.after, err = m.Inventory(ctx)
	if err != nil {
		return result{}, fmt.Errorf("inventory: %w", err)
	}
	res.inserted = domain.Cents(inserted.Load())
	res.returned = domain.Cents(returned.Load())
	return res, nil
}

func reason(err error) string {
	for _, known := range []error{
		domain.ErrInvalidProduct, domain.ErrSoldOut,
		domain.ErrNotEnoughMoney, domain.ErrNotEnoughChange,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}
