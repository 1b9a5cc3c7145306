// Package cli provides output formatting and an HTTP client for the djaan command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BiradarScripts/Djaan/internal/models"
	"github.com/BiradarScripts/Djaan/internal/server"
	"github.com/BiradarScripts/Djaan/pkg/utils"
)

const maxErrorWidth = 200

// OutputFormat selects how command output is rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is indented JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteSearchResults writes a search response to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", len(response.Results), response.QueryTime)
	for i, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | ID: %s\n", i+1, result.Score, result.DocID)
		fmt.Fprintf(w, "Overlap: %.2f", result.Explanation.OverlapRatio)
		if len(result.Explanation.CommonWords) > 0 {
			fmt.Fprintf(w, " (%s)", strings.Join(result.Explanation.CommonWords, ", "))
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s\n\n%s\n\n", result.Explanation.RelevanceSummary, result.Preview)
	}
	return nil
}

// WriteRefreshReport writes the outcome of a refresh cycle.
func WriteRefreshReport(w io.Writer, report *models.RefreshReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "run_id:      %s\n", report.RunID)
	fmt.Fprintf(w, "scanned:     %d\n", report.Scanned)
	fmt.Fprintf(w, "added:       %d\n", report.Added)
	fmt.Fprintf(w, "updated:     %d\n", report.Updated)
	fmt.Fprintf(w, "unchanged:   %d\n", report.Unchanged)
	fmt.Fprintf(w, "pruned:      %d\n", report.Pruned)
	fmt.Fprintf(w, "excluded:    %d\n", report.Excluded)
	fmt.Fprintf(w, "index_size:  %d\n", report.IndexSize)
	fmt.Fprintf(w, "duration:    %s\n", report.Duration)
	if len(report.Failures) > 0 {
		fmt.Fprintf(w, "\n# %d file(s) skipped\n", len(report.Failures))
		for _, f := range report.Failures {
			fmt.Fprintf(w, "%s [%s]: %s\n", f.Filename, f.Kind, utils.Truncate(f.Error, maxErrorWidth))
		}
	}
	return nil
}

// WriteStatus writes index statistics and, when present, the configuration report.
func WriteStatus(w io.Writer, status *server.StatusResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	stats := status.IndexStats
	if stats == nil {
		stats = &models.IndexStats{}
	}
	fmt.Fprintf(w, "documents:          %d   # records in the metadata store\n", stats.Documents)
	fmt.Fprintf(w, "index_size:         %d   # vectors in the published index\n", stats.IndexSize)
	fmt.Fprintf(w, "dimensions:         %d\n", stats.Dimensions)
	if stats.Fingerprint != "" {
		fmt.Fprintf(w, "fingerprint:        %s\n", stats.Fingerprint)
	}
	if stats.BuiltAt != nil {
		fmt.Fprintf(w, "built_at:           %s\n", stats.BuiltAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # store + index on disk\n", *status.DiskUsageBytes)
	}
	if r := stats.LastRefresh; r != nil {
		fmt.Fprintf(w, "last_refresh:       %s (%d added, %d updated, %d failed)\n",
			r.RunID, r.Added, r.Updated, len(r.Failures))
	}
	if c := status.Config; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		fmt.Fprintf(w, "source_directory:   %s\n", c.SourceDirectory)
		fmt.Fprintf(w, "extensions:         %s\n", strings.Join(c.Extensions, ","))
		fmt.Fprintf(w, "embedding_provider: %s\n", c.EmbeddingProvider)
		if c.EmbeddingModel != "" {
			fmt.Fprintf(w, "embedding_model:    %s\n", c.EmbeddingModel)
		}
		fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
		fmt.Fprintf(w, "index_path:         %s\n", c.IndexPath)
		fmt.Fprintf(w, "prune_missing:      %t\n", c.PruneMissing)
		fmt.Fprintf(w, "watch_enabled:      %t\n", c.WatchEnabled)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
