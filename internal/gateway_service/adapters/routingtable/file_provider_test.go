package routingtable

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTableFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routing_table.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileProvider_LoadsTable(t *testing.T) {
	path := writeTableFile(t, `{"1": ["923001234567"], "2": ["923009998888", "923007777777"]}`)
	provider := NewFileProvider(path, discardLogger())

	table := provider.Load(context.Background())
	assert.Equal(t, domain.RoutingTable{
		1: {"923001234567"},
		2: {"923009998888", "923007777777"},
	}, table)
}

func TestFileProvider_MissingFileDegradesToEmpty(t *testing.T) {
	provider := NewFileProvider(filepath.Join(t.TempDir(), "nope.json"), discardLogger())

	table := provider.Load(context.Background())
	assert.Empty(t, table)
}

func TestFileProvider_MalformedFileDegradesToEmpty(t *testing.T) {
	path := writeTableFile(t, `{"1": not json`)
	provider := NewFileProvider(path, discardLogger())

	table := provider.Load(context.Background())
	assert.Empty(t, table)
}

func TestFileProvider_SkipsNonNumericContainerKeys(t *testing.T) {
	path := writeTableFile(t, `{"1": ["923001234567"], "default": ["923009998888"]}`)
	provider := NewFileProvider(path, discardLogger())

	table := provider.Load(context.Background())
	assert.Equal(t, domain.RoutingTable{1: {"923001234567"}}, table)
}

func TestFileProvider_ReloadsOnEveryLookup(t *testing.T) {
	path := writeTableFile(t, `{"1": ["923001234567"]}`)
	provider := NewFileProvider(path, discardLogger())

	first := provider.Load(context.Background())
	require.Len(t, first[1], 1)

	require.NoError(t, os.WriteFile(path, []byte(`{"1": ["923001234567", "923005555555"]}`), 0o600))
	second := provider.Load(context.Background())
	assert.Len(t, second[1], 2)
}
