package loader

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "marketpulse/internal/errors"
	"marketpulse/internal/schema"
	"marketpulse/pkg/contracts/domain"
)

const stateCSV = `State_Abrvtn,Cnsmr,Avg_Prm,APTC_Cnsmr
TX,1000000,550.25,800000
FL,2500000,480.00,2100000
CA,1700000,430.50,NR
`

func newTestLoader(t *testing.T, opts ...Option) *Loader {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	normalizer, err := schema.NewNormalizer(logger)
	require.NoError(t, err)
	return New(normalizer, logger, opts...)
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadStateLevelCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "State-Level PUF.csv", stateCSV)

	l := newTestLoader(t)
	table, err := l.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryStateLevel, table.Category())
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"TX", "FL", "CA"}, table.Strings(domain.FieldState))
	assert.InDelta(t, 550.25, table.NumberAt(domain.FieldAveragePremium, 0), 1e-9)

	diag := table.Diagnostics()
	assert.Equal(t, 1, diag.Suppressed[domain.FieldConsumersWithAPTC])
}

func TestLoadIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "State-Level PUF.csv", stateCSV)

	var reads atomic.Int64
	l := newTestLoader(t)
	l.readHook = func(string) { reads.Add(1) }

	first, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	second, err := l.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.True(t, first.Equal(second))
	assert.Equal(t, int64(1), reads.Load())
}

func TestLoadRecomputesOnFileChange(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "State-Level PUF.csv", stateCSV)

	var reads atomic.Int64
	l := newTestLoader(t)
	l.readHook = func(string) { reads.Add(1) }

	_, err := l.Load(context.Background(), path)
	require.NoError(t, err)

	// same size, different mtime
	stale := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, stale, stale))

	_, err = l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reads.Load())
}

func TestLoadConcurrentColdSharesOneRead(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "State-Level PUF.csv", stateCSV)

	var reads atomic.Int64
	l := newTestLoader(t)
	l.readHook = func(string) { reads.Add(1) }

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.Load(context.Background(), path)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), reads.Load())
}

func TestLoadCacheDisabled(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "State-Level PUF.csv", stateCSV)

	var reads atomic.Int64
	l := newTestLoader(t, WithCacheDisabled())
	l.readHook = func(string) { reads.Add(1) }

	_, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	_, err = l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reads.Load())
}

func TestLoadMissingFile(t *testing.T) {
	l := newTestLoader(t)
	_, err := l.Load(context.Background(), "/nonexistent/State-Level PUF.csv")
	require.Error(t, err)
	assert.True(t, apperrors.IsLoadError(err))
}

func TestLoadUnclassifiableName(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "mystery.csv", stateCSV)

	l := newTestLoader(t)
	_, err := l.Load(context.Background(), path)
	require.Error(t, err)
	assert.True(t, apperrors.IsLoadError(err))

	// the same file loads fine with an explicit category
	table, err := l.LoadCategory(context.Background(), path, domain.CategoryStateLevel)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}

func TestLoadCategoryInvalidCategory(t *testing.T) {
	l := newTestLoader(t)
	_, err := l.LoadCategory(context.Background(), "whatever.csv", domain.Category("bogus"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))
}

func TestLoadHeaderOnlyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "State-Level PUF.csv", "State_Abrvtn,Cnsmr\n")

	l := newTestLoader(t)
	_, err := l.Load(context.Background(), path)
	require.Error(t, err)
	assert.True(t, apperrors.IsLoadError(err))
}

func TestLoadUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	l := newTestLoader(t)

	// .xls is the legacy OLE container the Excel reader cannot open; it is
	// rejected up front like any other unreadable format.
	for _, name := range []string{"State-Level PUF.json", "State-Level PUF.xls"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

		_, err := l.Load(context.Background(), path)
		require.Error(t, err, name)
		assert.True(t, apperrors.IsLoadError(err), name)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "State-Level PUF.csv", stateCSV)

	var reads atomic.Int64
	l := newTestLoader(t)
	l.readHook = func(string) { reads.Add(1) }

	_, err := l.Load(context.Background(), path)
	require.NoError(t, err)

	l.Invalidate(path)
	_, err = l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reads.Load())
}
