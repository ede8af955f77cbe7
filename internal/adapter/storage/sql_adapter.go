package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

const defaultSalesLimit = 50

// The statements stick to syntax shared by MySQL and SQLite so the same
// adapter serves both drivers.
const createSalesTable = `
	CREATE TABLE IF NOT EXISTS sales (
		id           VARCHAR(36)   NOT NULL PRIMARY KEY,
		machine_id   VARCHAR(64)   NOT NULL,
		product      VARCHAR(16)   NOT NULL,
		price        BIGINT        NOT NULL,
		paid         BIGINT        NOT NULL,
		change_coins TEXT          NOT NULL,
		created_at   BIGINT        NOT NULL
	)`

// SQLAdapter is the sales journal on a database/sql connection.
type SQLAdapter struct {
	db *sql.DB
}

func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

func (s *SQLAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSalesTable); err != nil {
		return fmt.Errorf("create sales table: %w", err)
	}
	return nil
}

func (s *SQLAdapter) RecordSale(ctx context.Context, sale domain.Sale) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sales (id, machine_id, product, price, paid, change_coins, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.MachineID, sale.Product.String(), int64(sale.Price), int64(sale.Paid),
		encodeCoins(sale.Change), sale.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (s *SQLAdapter) ListSales(ctx context.Context, machineID string, limit int) ([]domain.Sale, error) {
	if limit <= 0 {
		limit = defaultSalesLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, machine_id, product, price, paid, change_coins, created_at
		FROM sales WHERE machine_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, machineID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		var (
			sale        domain.Sale
			product     string
			price, paid int64
			change      string
			createdAt   int64
		)
		if err := rows.Scan(&sale.ID, &sale.MachineID, &product, &price, &paid, &change, &createdAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		if sale.Product, err = domain.ParseProduct(product); err != nil {
			return nil, fmt.Errorf("sale %s: %w", sale.ID, err)
		}
		if sale.Change, err = decodeCoins(change); err != nil {
			return nil, fmt.Errorf("sale %s: %w", sale.ID, err)
		}
		sale.Price = domain.Cents(price)
		sale.Paid = domain.Cents(paid)
		sale.CreatedAt = time.Unix(0, createdAt).UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}

	return sales, nil
}

func encodeCoins(coins []domain.Coin) string {
	names := make([]string, len(coins))
	for i, c := range coins {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}

func decodeCoins(s string) ([]domain.Coin, error) {
	coins := []domain.Coin{}
	if s == "" {
		return coins, nil
	}
	for _, name := range strings.Split(s, ",") {
		c, err := domain.ParseCoin(name)
		if err != nil {
			return nil, err
		}
		coins = append(coins, c)
	}
	return coins, nil
}
