package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/vending-machine/internal/adapter/handler"
	"github.com/rl1809/vending-machine/internal/adapter/storage"
	"github.com/rl1809/vending-machine/internal/core/machine"
	"github.com/rl1809/vending-machine/internal/core/service"
)

func main() {
	var (
		opts     options
		strategy string
		grpcAddr string
	)
	flag.IntVar(&opts.customers, "customers", 50, "number of concurrent customers")
	flag.IntVar(&opts.productStock, "stock", 5, "units refilled per product")
	flag.IntVar(&opts.coinStock, "coins", 10, "coins refilled per denomination")
	flag.Uint64Var(&opts.seed, "seed", uint64(time.Now().UnixNano()), "random seed")
	flag.StringVar(&strategy, "strategy", machine.StrategyGreedy, "change strategy of the in-process machine")
	flag.StringVar(&grpcAddr, "grpc", "", "address of a running server; empty runs an in-process machine")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var m target
	if grpcAddr != "" {
		conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			logger.Fatal("failed to dial server", zap.String("addr", grpcAddr), zap.Error(err))
		}
		defer conn.Close()
		m = remoteTarget{client: handler.NewVendingClient(conn)}
	} else {
		changeStrategy, err := machine.NewStrategy(strategy)
		if err != nil {
			logger.Fatal("invalid strategy", zap.Error(err))
		}
		vm := machine.New(machine.NewCashManager(changeStrategy))
		svc := service.NewMachineService("simulation", vm, storage.NewMemoryCache(), nil, opts.customers, logger)
		defer svc.Close()
		m = localTarget{svc: svc}
	}

	res, err := simulate(ctx, m, opts)
	if err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
	report(res)

	if err := res.check(); err != nil {
		fmt.Printf("FAIL: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("PASS: money and stock conserved")
}

func report(res result) {
	fmt.Println("========== SIMULATION RESULTS ==========")
	fmt.Printf("Duration:         %v\n", res.elapsed)
	fmt.Printf("Inserted:         %s\n", res.inserted)
	fmt.Printf("Returned:         %s\n", res.returned)
	fmt.Printf("Coin box:         %s -> %s\n", res.before.ChangeValue, res.after.ChangeValue)
	fmt.Printf("Balance left:     %s\n", res.after.Inserted)
	for product, n := range res.sold {
		fmt.Printf("Sold %-12s %d\n", product.Name()+":", n)
	}

	reasons := make([]string, 0, len(res.failures))
	for r := range res.failures {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Printf("Failed (%s): %d\n", r, res.failures[r])
	}
	fmt.Println("========================================")
}
