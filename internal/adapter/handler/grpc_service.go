package handler

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

// The vending service speaks JSON over gRPC, so it is declared by hand
// instead of generated from a .proto file. Clients must send the "json"
// content-subtype; VendingClient does this for every call.

const (
	vendingServiceName = "vending.VendingMachine"
	jsonCodecName      = "json"
)

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return jsonCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type InsertCoinRequest struct {
	Coin domain.Coin `json:"coin"`
}

type MoneyResponse struct {
	Inserted domain.Cents `json:"inserted"`
}

type SelectProductRequest struct {
	RequestID string         `json:"request_id"`
	Product   domain.Product `json:"product"`
}

type SelectProductResponse struct {
	SaleID  string         `json:"sale_id"`
	Product domain.Product `json:"product"`
	Change  []domain.Coin  `json:"change"`
}

type CancelResponse struct {
	Coins []domain.Coin `json:"coins"`
}

type RefillRequest struct {
	Products []domain.Product `json:"products"`
	Coins    []domain.Coin    `json:"coins"`
}

type InventoryResponse struct {
	Inventory domain.Snapshot `json:"inventory"`
}

type PriceRequest struct {
	Product domain.Product `json:"product"`
}

type PriceResponse struct {
	Product domain.Product `json:"product"`
	Name    string         `json:"name"`
	Price   domain.Cents   `json:"price"`
}

// VendingServer is the server API of the vending service.
type VendingServer interface {
	InsertCoin(context.Context, *InsertCoinRequest) (*MoneyResponse, error)
	SelectProduct(context.Context, *SelectProductRequest) (*SelectProductResponse, error)
	CancelRequest(context.Context, *Empty) (*CancelResponse, error)
	Refill(context.Context, *RefillRequest) (*InventoryResponse, error)
	Reset(context.Context, *Empty) (*InventoryResponse, error)
	GetCurrentMoney(context.Context, *Empty) (*MoneyResponse, error)
	GetProductPrice(context.Context, *PriceRequest) (*PriceResponse, error)
	GetInventory(context.Context, *Empty) (*InventoryResponse, error)
}

var VendingServiceDesc = grpc.ServiceDesc{
	ServiceName: vendingServiceName,
	HandlerType: (*VendingServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("InsertCoin", VendingServer.InsertCoin),
		unaryMethod("SelectProduct", VendingServer.SelectProduct),
		unaryMethod("CancelRequest", VendingServer.CancelRequest),
		unaryMethod("Refill", VendingServer.Refill),
		unaryMethod("Reset", VendingServer.Reset),
		unaryMethod("GetCurrentMoney", VendingServer.GetCurrentMoney),
		unaryMethod("GetProductPrice", VendingServer.GetProductPrice),
		unaryMethod("GetInventory", VendingServer.GetInventory),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterVendingServer(s grpc.ServiceRegistrar, srv VendingServer) {
	s.RegisterService(&VendingServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + vendingServiceName + "/" + method
}

func unaryMethod[Req, Resp any](method string, call func(VendingServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(VendingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(VendingServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// VendingClient calls a remote vending service and turns status errors back
// into the domain errors they were mapped from.
type VendingClient struct {
	cc grpc.ClientConnInterface
}

func NewVendingClient(cc grpc.ClientConnInterface) *VendingClient {
	return &VendingClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, unmapError(err)
	}
	return out, nil
}

func (c *VendingClient) InsertCoin(ctx context.Context, in *InsertCoinRequest, opts ...grpc.CallOption) (*MoneyResponse, error) {
	return invoke[MoneyResponse](ctx, c.cc, "InsertCoin", in, opts)
}

func (c *VendingClient) SelectProduct(ctx context.Context, in *SelectProductRequest, opts ...grpc.CallOption) (*SelectProductResponse, error) {
	return invoke[SelectProductResponse](ctx, c.cc, "SelectProduct", in, opts)
}

func (c *VendingClient) CancelRequest(ctx context.Context, opts ...grpc.CallOption) (*CancelResponse, error) {
	return invoke[CancelResponse](ctx, c.cc, "CancelRequest", &Empty{}, opts)
}

func (c *VendingClient) Refill(ctx context.Context, in *RefillRequest, opts ...grpc.CallOption) (*InventoryResponse, error) {
	return invoke[InventoryResponse](ctx, c.cc, "Refill", in, opts)
}

func (c *VendingClient) Reset(ctx context.Context, opts ...grpc.CallOption) (*InventoryResponse, error) {
	return invoke[InventoryResponse](ctx, c.cc, "Reset", &Empty{}, opts)
}

func (c *VendingClient) GetCurrentMoney(ctx context.Context, opts ...grpc.CallOption) (*MoneyResponse, error) {
	return invoke[MoneyResponse](ctx, c.cc, "GetCurrentMoney", &Empty{}, opts)
}

func (c *VendingClient) GetProductPrice(ctx context.Context, in *PriceRequest, opts ...grpc.CallOption) (*PriceResponse, error) {
	return invoke[PriceResponse](ctx, c.cc, "GetProductPrice", in, opts)
}

func (c *VendingClient) GetInventory(ctx context.Context, opts ...grpc.CallOption) (*InventoryResponse, error) {
	return invoke[InventoryResponse](ctx, c.cc, "GetInventory", &Empty{}, opts)
}
