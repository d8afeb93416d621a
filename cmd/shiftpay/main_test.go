package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/payroll"
	"github.com/warp/shiftpay/store/sqlite"
	"go.uber.org/zap"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateCommand(t *testing.T) {
	// GIVEN: An empty working directory and a file database
	t.Chdir(t.TempDir())
	t.Setenv("SHIFTPAY_DB_PATH", filepath.Join(t.TempDir(), "shiftpay.db"))

	// WHEN: Running migrate twice
	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1")

	out, err = run(t, "migrate")

	// THEN: The second run is a no-op
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1")
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dbPath := filepath.Join(dir, "shiftpay.db")
	t.Setenv("SHIFTPAY_DB_PATH", dbPath)

	// GIVEN: A period in the database
	store, err := sqlite.New(dbPath, zap.NewNop())
	require.NoError(t, err)
	svc := payroll.NewService(store, nil, payroll.Options{})
	p, err := svc.CreatePeriod(context.Background(), "acme", generic.MustParseDate("2025-09-01"), generic.MustParseDate("2025-09-30"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// WHEN: Exporting it
	out, err := run(t, "export", "--tenant", "acme", "--period", string(p.ID), "--out", "sept.xlsx")

	// THEN: The workbook is written
	require.NoError(t, err)
	assert.Contains(t, out, "wrote sept.xlsx")
	info, err := os.Stat(filepath.Join(dir, "sept.xlsx"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExportCommand_RequiresFlags(t *testing.T) {
	_, err := run(t, "export")
	assert.Error(t, err)
}
