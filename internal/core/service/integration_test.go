package service_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"

	"github.com/rl1809/vending-machine/internal/adapter/storage"
	"github.com/rl1809/vending-machine/internal/core/domain"
	"github.com/rl1809/vending-machine/internal/core/machine"
	"github.com/rl1809/vending-machine/internal/core/service"
)

type testEnv struct {
	redis   *redis.Client
	mysql   *sql.DB
	cache   *storage.RedisAdapter
	journal *storage.SQLAdapter
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/vending?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	env := &testEnv{
		redis:   rdb,
		mysql:   db,
		cache:   storage.NewRedisAdapter(rdb),
		journal: storage.NewSQLAdapter(db),
	}
	if err := env.journal.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	t.Cleanup(func() {
		rdb.Close()
		db.Close()
	})
	return env
}

// start builds a service for machineID and runs journal workers until the
// returned stop func is called.
func (env *testEnv) start(t *testing.T, machineID string, workers int) (*service.MachineService, func()) {
	svc := service.NewMachineService(machineID, machine.NewDefault(), env.cache, env.journal, 100, zaptest.NewLogger(t))
	if err := svc.Restore(context.Background()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			service.JournalWorker(id, svc.GetSaleQueue(), env.journal, zaptest.NewLogger(t))
		}(i)
	}
	return svc, func() {
		svc.Close()
		wg.Wait()
	}
}

func (env *testEnv) clear(machineID string) {
	ctx := context.Background()
	env.redis.Del(ctx,
		"machine:"+machineID+":products",
		"machine:"+machineID+":coins",
		"machine:"+machineID+":state",
	)
	env.mysql.ExecContext(ctx, `DELETE FROM sales WHERE machine_id = ?`, machineID)
}

func TestIntegration_SellOutAndJournal(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	machineID := "integration-" + uuid.NewString()
	env.clear(machineID)
	defer env.clear(machineID)

	svc, stop := env.start(t, machineID, 3)

	initialStock := 10
	stock := make([]domain.Product, initialStock)
	for i := range stock {
		stock[i] = domain.Water
	}
	svc.Refill(ctx, stock, nil)

	sold, soldOut := 0, 0
	for i := 0; i < 15; i++ {
		for _, c := range []domain.Coin{domain.FiftyCents, domain.TwentyCents, domain.TwentyCents} {
			svc.InsertCoin(ctx, c)
		}
		_, err := svc.Purchase(ctx, uuid.NewString(), domain.Water)
		switch {
		case err == nil:
			sold++
		case errors.Is(err, domain.ErrSoldOut):
			soldOut++
			if _, err := svc.Cancel(ctx); err != nil {
				t.Fatalf("cancel failed: %v", err)
			}
		default:
			t.Fatalf("unexpected purchase error: %v", err)
		}
	}
	stop()

	if sold != initialStock || soldOut != 5 {
		t.Errorf("expected %d sold / 5 sold out, got %d / %d", initialStock, sold, soldOut)
	}

	sales, err := env.journal.ListSales(ctx, machineID, 100)
	if err != nil {
		t.Fatalf("ListSales failed: %v", err)
	}
	if len(sales) != initialStock {
		t.Errorf("expected %d journaled sales, got %d", initialStock, len(sales))
	}

	snap, err := env.cache.LoadSnapshot(ctx, machineID)
	if err != nil || snap == nil {
		t.Fatalf("expected stored snapshot, got %v, %v", snap, err)
	}
	if snap.Products[domain.Water] != 0 {
		t.Errorf("expected stored water stock 0, got %d", snap.Products[domain.Water])
	}
	if snap.ChangeValue != domain.Cents(initialStock)*domain.Water.Price() {
		t.Errorf("expected coin box %s, got %s", domain.Cents(initialStock)*domain.Water.Price(), snap.ChangeValue)
	}
}

func TestIntegration_RestoreAfterRestart(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	machineID := "restart-" + uuid.NewString()
	env.clear(machineID)
	defer env.clear(machineID)

	first, stop := env.start(t, machineID, 1)
	first.Refill(ctx, []domain.Product{domain.Coke, domain.Sprite}, []domain.Coin{domain.TenCents, domain.FiveCents})
	first.InsertCoin(ctx, domain.OneEuro)
	before := first.Inventory()
	stop()

	second, stop := env.start(t, machineID, 1)
	defer stop()
	after := second.Inventory()

	if after.Inserted != before.Inserted || after.ChangeValue != before.ChangeValue {
		t.Errorf("expected balance %s and box %s, got %s and %s",
			before.Inserted, before.ChangeValue, after.Inserted, after.ChangeValue)
	}
	for _, p := range domain.Products() {
		if after.Products[p] != before.Products[p] {
			t.Errorf("%s: expected %d, got %d", p, before.Products[p], after.Products[p])
		}
	}
}

func TestIntegration_IdempotencyPreventsDoubleSale(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	machineID := "idempotency-" + uuid.NewString()
	requestID := "same-request-id-" + uuid.NewString()
	env.clear(machineID)
	defer env.clear(machineID)

	svc, stop := env.start(t, machineID, 1)
	defer stop()
	svc.Refill(ctx, []domain.Product{domain.Water, domain.Water}, nil)

	svc.InsertCoin(ctx, domain.OneEuro)
	if _, err := svc.Purchase(ctx, requestID, domain.Water); !errors.Is(err, domain.ErrNotEnoughChange) {
		t.Fatalf("expected ErrNotEnoughChange, got: %v", err)
	}
	svc.Refill(ctx, nil, []domain.Coin{domain.TenCents})

	// the failed attempt released the key
	if _, err := svc.Purchase(ctx, requestID, domain.Water); err != nil {
		t.Fatalf("first purchase failed: %v", err)
	}

	svc.InsertCoin(ctx, domain.OneEuro)
	if _, err := svc.Purchase(ctx, requestID, domain.Water); !errors.Is(err, service.ErrDuplicateRequest) {
		t.Errorf("expected ErrDuplicateRequest, got: %v", err)
	}
	if got := svc.Inventory().Products[domain.Water]; got != 1 {
		t.Errorf("expected water stock 1, got %d", got)
	}
	env.redis.Del(ctx, "purchase:"+machineID+":"+requestID)
}
