// Package cli formats kotae results for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// sourceIDLen is how much of a content ID text output shows.
const sourceIDLen = 12

// Status is the summary printed by `kotae status`.
type Status struct {
	DataDir        string `json:"data_dir"`
	Users          int64  `json:"users"`
	Stores         int    `json:"stores"`
	DiskUsageBytes int64  `json:"disk_usage_bytes"`
	User           string `json:"user,omitempty"`
	StoreExists    bool   `json:"store_exists,omitempty"`
	Entries        int64  `json:"entries,omitempty"`
}

// WriteAnswer writes an answer to w in the given format.
func WriteAnswer(w io.Writer, answer *models.Answer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, answer)
	}
	fmt.Fprintf(w, "Answer (%s):\n%s\n", answer.Mode, answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for i, id := range answer.Sources {
			fmt.Fprintf(w, "  %d. %s\n", i+1, utils.Truncate(id, sourceIDLen))
		}
	}
	if answer.Ingest != nil {
		fmt.Fprintln(w)
		writeIngestText(w, answer.Ingest)
	}
	return nil
}

// WriteIngest writes the outcome of ingesting one document.
func WriteIngest(w io.Writer, name string, res *models.IngestResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, struct {
			File string `json:"file"`
			*models.IngestResult
		}{name, res})
	}
	fmt.Fprintf(w, "%s: ", name)
	writeIngestText(w, res)
	return nil
}

func writeIngestText(w io.Writer, res *models.IngestResult) {
	fmt.Fprintf(w, "%d chunks, %d new, %d already stored (store now holds %d)\n",
		res.Chunks, res.Inserted, res.Skipped, res.Total)
}

// WriteStatus writes a status summary.
func WriteStatus(w io.Writer, st *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "Data dir:   %s\n", st.DataDir)
	fmt.Fprintf(w, "Users:      %d\n", st.Users)
	fmt.Fprintf(w, "Stores:     %d\n", st.Stores)
	fmt.Fprintf(w, "Disk usage: %s\n", FormatBytes(st.DiskUsageBytes))
	if st.User != "" {
		if st.StoreExists {
			fmt.Fprintf(w, "Store for %s: %d entries\n", st.User, st.Entries)
		} else {
			fmt.Fprintf(w, "Store for %s: not created yet\n", st.User)
		}
	}
	return nil
}

// PrintAnswer prints an answer to stdout in text format.
func PrintAnswer(answer *models.Answer) {
	_ = WriteAnswer(os.Stdout, answer, OutputText)
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
