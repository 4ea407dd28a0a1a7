package routingtable

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"

	"github.com/wahaops/gateway/internal/gateway_service/domain"
)

// FileProvider loads the static routing table from a JSON file of the form
// {"1": ["923001234567"], "2": ["923009998888"]}. The file is read fresh on
// every Load so operators can edit it without a restart. A missing or
// malformed file degrades to an empty table, never an error.
type FileProvider struct {
	path   string
	logger *slog.Logger
}

// NewFileProvider creates a new FileProvider.
func NewFileProvider(path string, logger *slog.Logger) *FileProvider {
	return &FileProvider{
		path:   path,
		logger: logger.With("adapter", "routing_table_file"),
	}
}

func (p *FileProvider) Load(ctx context.Context) domain.RoutingTable {
	data, err := os.ReadFile(p.path)
	if err != nil {
		p.logger.WarnContext(ctx, "Routing table file unavailable, using empty table", "path", p.path, "error", err)
		return domain.RoutingTable{}
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		p.logger.WarnContext(ctx, "Routing table file malformed, using empty table", "path", p.path, "error", err)
		return domain.RoutingTable{}
	}

	table := make(domain.RoutingTable, len(raw))
	for key, phones := range raw {
		container, err := strconv.Atoi(key)
		if err != nil {
			p.logger.WarnContext(ctx, "Skipping routing table entry with non-numeric container key", "key", key)
			continue
		}
		table[container] = phones
	}
	return table
}
