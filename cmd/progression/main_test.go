package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/progression"
	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/milestone"
	"github.com/xraph/progression/store/memory"
)

const catalogYAML = `
packs:
  - id: p-sci
    courses: [c-a, c-b]
courses:
  - id: c-a
    lessons:
      - id: a1
      - id: a2
  - id: c-b
    lessons:
      - id: b1
      - id: b2
`

const ledgerYAML = `
- transaction_id: t1
  item_id: c-a
  kind: course
  price: {amount: 4900, currency: usd}
  acquired_at: 2026-03-01T10:00:00Z
- transaction_id: t2
  item_id: b1
  kind: lesson
  price: {amount: 199, currency: usd}
- transaction_id: t2
  item_id: b1
  kind: lesson
  price: {amount: 199, currency: usd}
- transaction_id: t3
  item_id: b2
  kind: lesson
  price: {amount: 199, currency: usd}
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestReplayLedgerFile(t *testing.T) {
	catPath := writeFile(t, "catalog.yaml", catalogYAML)
	docs, err := readLedger(writeFile(t, "ledger.yaml", ledgerYAML))
	require.NoError(t, err)
	require.Len(t, docs, 4)
	assert.False(t, docs[0].AcquiredAt.IsZero())

	ctx := context.Background()
	l := progression.New(memory.New(), catalog.File{Path: catPath},
		progression.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, l.Start(ctx))
	defer l.Stop() //nolint:errcheck // test cleanup

	report, err := replay(ctx, l, docs)
	require.NoError(t, err)

	require.Len(t, report.Results, 4)
	assert.True(t, report.Results[2].Duplicate)
	assert.Equal(t, []string{"c-a", "c-b", "p-sci"}, milestone.IDs(report.Milestones))
	assert.Len(t, report.Bonuses, 3)
	require.Len(t, report.Spent, 1)
	assert.Equal(t, int64(4900+199+199), report.Spent[0].Amount)
}

func TestReadLedgerMissingFile(t *testing.T) {
	_, err := readLedger(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
