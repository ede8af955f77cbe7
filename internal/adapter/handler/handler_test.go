package handler

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	_ "modernc.org/sqlite"

	"github.com/rl1809/vending-machine/internal/adapter/storage"
	"github.com/rl1809/vending-machine/internal/core/machine"
	"github.com/rl1809/vending-machine/internal/core/service"
)

// newTestService wires a machine to an in-memory cache and an SQLite journal
// with one journal worker draining the sale queue.
func newTestService(t *testing.T) (*service.MachineService, *storage.SQLAdapter) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	journal := storage.NewSQLAdapter(db)
	require.NoError(t, journal.EnsureSchema(context.Background()))

	logger := zaptest.NewLogger(t)
	svc := service.NewMachineService("test-machine", machine.NewDefault(), storage.NewMemoryCache(), journal, 16, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		service.JournalWorker(0, svc.GetSaleQueue(), journal, logger)
	}()
	t.Cleanup(func() {
		svc.Close()
		<-done
		db.Close()
	})

	return svc, journal
}
