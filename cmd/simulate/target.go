package main

import (
	"context"

	"github.com/rl1809/vending-machine/internal/adapter/handler"
	"github.com/rl1809/vending-machine/internal/core/domain"
	"github.com/rl1809/vending-machine/internal/core/service"
)

// target is the machine the simulated customers talk to.
type target interface {
	Refill(ctx context.Context, products []domain.Product, coins []domain.Coin) error
	InsertCoin(ctx context.Context, coin domain.Coin) error
	Purchase(ctx context.Context, requestID string, product domain.Product) ([]domain.Coin, error)
	Cancel(ctx context.Context) ([]domain.Coin, error)
	Inventory(ctx context.Context) (domain.Snapshot, error)
}

type localTarget struct {
	svc *service.MachineService
}

func (l localTarget) Refill(ctx context.Context, products []domain.Product, coins []domain.Coin) error {
	l.svc.Refill(ctx, products, coins)
	return nil
}

func (l localTarget) InsertCoin(ctx context.Context, coin domain.Coin) error {
	l.svc.InsertCoin(ctx, coin)
	return nil
}

func (l localTarget) Purchase(ctx context.Context, requestID string, product domain.Product) ([]domain.Coin, error) {
	sale, err := l.svc.Purchase(ctx, requestID, product)
	return sale.Change, err
}

func (l localTarget) Cancel(ctx context.Context) ([]domain.Coin, error) {
	return l.svc.Cancel(ctx)
}

func (l localTarget) Inventory(context.Context) (domain.Snapshot, error) {
	return l.svc.Inventory(), nil
}

type remoteTarget struct {
	client *handler.VendingClient
}

func (r remoteTarget) Refill(ctx context.Context, products []domain.Product, coins []domain.Coin) error {
	_, err := r.client.Refill(ctx, &handler.RefillRequest{Products: products, Coins: coins})
	return err
}

func (r remoteTarget) InsertCoin(ctx context.Context, coin domain.Coin) error {
	_, err := r.client.InsertCoin(ctx, &handler.InsertCoinRequest{Coin: coin})
	return err
}

func (r remoteTarget) Purchase(ctx context.Context, requestID string, product domain.Product) ([]domain.Coin, error) {
	resp, err := r.client.SelectProduct(ctx, &handler.SelectProductRequest{RequestID: requestID, Product: product})
	if err != nil {
		return nil, err
	}
	return resp.Change, nil
}

func (r remoteTarget) Cancel(ctx context.Context) ([]domain.Coin, error) {
	resp, err := r.client.CancelRequest(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Coins, nil
}

func (r remoteTarget) Inventory(ctx context.Context) (domain.Snapshot, error) {
	resp, err := r.client.GetInventory(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return resp.Inventory, nil
}
