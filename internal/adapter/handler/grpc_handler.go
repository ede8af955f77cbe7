package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/vending-machine/internal/core/domain"
	"github.com/rl1809/vending-machine/internal/core/service"
)

type GRPCHandler struct {
	machineService *service.MachineService
	logger         *zap.Logger
}

var _ VendingServer = (*GRPCHandler)(nil)

func NewGRPCHandler(machineService *service.MachineService, logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{machineService: machineService, logger: logger}
}

func (h *GRPCHandler) InsertCoin(ctx context.Context, req *InsertCoinRequest) (*MoneyResponse, error) {
	return &MoneyResponse{Inserted: h.machineService.InsertCoin(ctx, req.Coin)}, nil
}

func (h *GRPCHandler) SelectProduct(ctx context.Context, req *SelectProductRequest) (*SelectProductResponse, error) {
	sale, err := h.machineService.Purchase(ctx, req.RequestID, req.Product)
	if err != nil {
		return nil, h.mapError(err)
	}
	return &SelectProductResponse{SaleID: sale.ID, Product: sale.Product, Change: sale.Change}, nil
}

func (h *GRPCHandler) CancelRequest(ctx context.Context, _ *Empty) (*CancelResponse, error) {
	coins, err := h.machineService.Cancel(ctx)
	if err != nil {
		return nil, h.mapError(err)
	}
	return &CancelResponse{Coins: coins}, nil
}

func (h *GRPCHandler) Refill(ctx context.Context, req *RefillRequest) (*InventoryResponse, error) {
	h.machineService.Refill(ctx, req.Products, req.Coins)
	return &InventoryResponse{Inventory: h.machineService.Inventory()}, nil
}

func (h *GRPCHandler) Reset(ctx context.Context, _ *Empty) (*InventoryResponse, error) {
	h.machineService.Reset(ctx)
	return &InventoryResponse{Inventory: h.machineService.Inventory()}, nil
}

func (h *GRPCHandler) GetCurrentMoney(ctx context.Context, _ *Empty) (*MoneyResponse, error) {
	return &MoneyResponse{Inserted: h.machineService.CurrentMoney()}, nil
}

func (h *GRPCHandler) GetProductPrice(ctx context.Context, req *PriceRequest) (*PriceResponse, error) {
	price, err := h.machineService.Price(req.Product)
	if err != nil {
		return nil, h.mapError(err)
	}
	return &PriceResponse{Product: req.Product, Name: req.Product.Name(), Price: price}, nil
}

func (h *GRPCHandler) GetInventory(ctx context.Context, _ *Empty) (*InventoryResponse, error) {
	return &InventoryResponse{Inventory: h.machineService.Inventory()}, nil
}

var statusCodes = []struct {
	err  error
	code codes.Code
}{
	{domain.ErrInvalidProduct, codes.InvalidArgument},
	{domain.ErrSoldOut, codes.ResourceExhausted},
	{domain.ErrNotEnoughMoney, codes.FailedPrecondition},
	{domain.ErrNotEnoughChange, codes.Aborted},
	{service.ErrDuplicateRequest, codes.AlreadyExists},
}

func (h *GRPCHandler) mapError(err error) error {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return status.Error(sc.code, err.Error())
		}
	}
	h.logger.Error("rpc failed", zap.Error(err))
	return status.Errorf(codes.Internal, "internal error: %v", err)
}

// remoteError carries the server's message and matches the domain error it
// was mapped from.
type remoteError struct {
	kind error
	msg  string
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.kind }

// unmapError is the client side of mapError.
func unmapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, sc := range statusCodes {
		if st.Code() == sc.code {
			return &remoteError{kind: sc.err, msg: st.Message()}
		}
	}
	return err
}
