package domain

import (
	"time"

	"github.com/google/uuid"
)

// reportNamespace scopes the name-based UUIDs derived from document bytes.
var reportNamespace = uuid.MustParse("6f1c2a8e-3b7d-5e4f-9a10-2c8d7e6b5a41")

// Report is the audit of one submitted document.
type Report struct {
	ID          string             `json:"id"`
	Source      string             `json:"source"`
	ProcessedAt time.Time          `json:"processed_at"`
	Results     []ClassifiedResult `json:"results"`
	Summary     map[Status]int     `json:"summary"`
}

// DocumentID derives a deterministic report ID from the raw document bytes.
// Resubmitting the same file produces the same ID, which lets downstream
// consumers deduplicate and lets the upload handler cache verdicts.
func DocumentID(content []byte) string {
	return uuid.NewSHA1(reportNamespace, content).String()
}

// NewReport wraps classified results with an ID, source name, timestamp and
// per-status counts.
func NewReport(id, source string, results []ClassifiedResult) Report {
	if results == nil {
		results = []ClassifiedResult{}
	}
	return Report{
		ID:          id,
		Source:      source,
		ProcessedAt: clock.Now().UTC(),
		Results:     results,
		Summary:     Summarize(results),
	}
}

// Summarize counts results per status. Statuses with no results are omitted.
func Summarize(results []ClassifiedResult) map[Status]int {
	summary := make(map[Status]int)
	for _, r := range results {
		summary[r.Status]++
	}
	return summary
}

// Flagged returns the number of results that need reviewer attention.
func (r Report) Flagged() int {
	return r.Summary[StatusSuspicious] + r.Summary[StatusIrradianceOutOfRange]
}
