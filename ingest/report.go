package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bansang/pricebook_backend/models"
)

// Render formats the batch report as human-readable structured text.
func (r *Report) Render() string {
	var b strings.Builder

	header := fmt.Sprintf("batch #%d %s (%s): %s", r.BatchId, r.Filename, r.SupplierName, r.Status)
	if r.DryRun {
		verdict := "would roll back"
		if r.WouldCommit {
			verdict = "would commit"
		}
		header += fmt.Sprintf(" [dry-run: %s]", verdict)
	}
	b.WriteString(header + "\n")

	if r.FatalReason != "" {
		fmt.Fprintf(&b, "fatal: %s\n", r.FatalReason)
	}

	b.WriteString(RenderCounts(r.Counts))

	if len(r.Failures) > 0 {
		reasons := make([]string, 0, len(r.Failures))
		for reason := range r.Failures {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)
		b.WriteString("failures:\n")
		for _, reason := range reasons {
			fmt.Fprintf(&b, "  %s:\n", reason)
			for _, detail := range r.Failures[models.RowFailReason(reason)] {
				fmt.Fprintf(&b, "    %s\n", detail)
			}
		}
	}

	if len(r.Delisted) > 0 {
		b.WriteString("delisted:\n")
		for _, d := range r.Delisted {
			fmt.Fprintf(&b, "  %s\n", d)
		}
	}
	return b.String()
}

// RenderCounts formats the persisted counters of a batch.
func RenderCounts(c models.BatchCounts) string {
	return fmt.Sprintf(
		"rows: read=%d mapped_ok=%d mapping_failed=%d normalized_ok=%d normalize_failed=%d\n"+
			"outcomes: inserted=%d updated=%d unchanged=%d delisted=%d duplicate_in_batch=%d\n",
		c.Read, c.MappedOK, c.MappingFailed, c.NormalizedOK, c.NormalizeFailed,
		c.Inserted, c.Updated, c.Unchanged, c.Delisted, c.DuplicateInBatch,
	)
}

// RenderStoredBatch formats a persisted batch row for the report command.
func RenderStoredBatch(batch *models.UploadBatch, supplierName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "batch #%d %s (%s): %s\n", batch.ID, batch.Filename, supplierName, batch.Status)
	fmt.Fprintf(&b, "uploaded_at: %s\n", batch.UploadedAt.Format("2006-01-02 15:04:05"))
	b.WriteString(RenderCounts(batch.Counts))
	return b.String()
}
