package pipeline

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tenkilab/tenki-etl/internal/domain"
)

// ErrAllSourcesFailed is returned when no configured source produced any
// records. A run with at least one live source completes with a partial
// result instead.
var ErrAllSourcesFailed = errors.New("all sources failed")

// reasonMalformedRecord labels records a reader emitted in a shape
// Normalize rejects. These indicate a reader bug, not bad upstream data,
// so they are logged at error level.
const reasonMalformedRecord domain.ExclusionReason = "malformed_record"

// SourceStatus records one source's contribution to a run.
type SourceStatus struct {
	Source      string        `json:"source"`
	RecordsRead int           `json:"records_read"`
	Duration    time.Duration `json:"duration"`
	Err         error         `json:"-"`
}

// Failed reports whether the source produced nothing usable.
func (s SourceStatus) Failed() bool { return s.Err != nil }

// Summary is the accounting for one pipeline run.
type Summary struct {
	RunID   string         `json:"run_id"`
	Started time.Time      `json:"started"`
	Sources []SourceStatus `json:"sources"`

	RecordsRead  int                            `json:"records_read"`
	Excluded     map[domain.ExclusionReason]int `json:"excluded"`
	Deduplicated int                            `json:"deduplicated"`
	Derived      int                            `json:"derived"`
	Emitted      int                            `json:"emitted"`
}

func newSummary(started time.Time) *Summary {
	return &Summary{
		RunID:    uuid.NewString(),
		Started:  started,
		Excluded: make(map[domain.ExclusionReason]int),
	}
}

// ExcludedTotal sums exclusions across all reasons.
func (s *Summary) ExcludedTotal() int {
	n := 0
	for _, c := range s.Excluded {
		n += c
	}
	return n
}

// AllSourcesFailed reports whether every configured source failed.
func (s *Summary) AllSourcesFailed() bool {
	if len(s.Sources) == 0 {
		return true
	}
	for _, src := range s.Sources {
		if !src.Failed() {
			return false
		}
	}
	return true
}
