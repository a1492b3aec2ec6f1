package domain

import (
	"time"

	"github.com/google/uuid"
)

type Verdict string

const (
	VerdictNone      Verdict = "none"
	VerdictConfirms  Verdict = "confirms"
	VerdictRefutes   Verdict = "refutes"
	VerdictNuances   Verdict = "nuances"
	VerdictIrrelevant Verdict = "irrelevant"
)

type AuthoredBy string

const (
	AuthoredByHuman AuthoredBy = "human"
	AuthoredByAgent AuthoredBy = "agent"
)

// HypothesisSegmentLink is the latest-view edge between a Hypothesis and a
// Segment: one row per pair, overwritten on every re-analysis. The full
// history of overwrites lives in HypothesisSegmentLinkRun.
type HypothesisSegmentLink struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	HypothesisID uuid.UUID  `gorm:"type:uuid;column:hypothesis_id;not null;uniqueIndex:idx_link_hypothesis_segment" json:"hypothesis_id"`
	SegmentID    uuid.UUID  `gorm:"type:uuid;column:segment_id;not null;uniqueIndex:idx_link_hypothesis_segment" json:"segment_id"`
	Verdict      Verdict    `gorm:"column:verdict;not null;default:'none'" json:"verdict"`
	AnalysisText string     `gorm:"column:analysis_text" json:"analysis_text,omitempty"`
	AuthoredBy   AuthoredBy `gorm:"column:authored_by;not null" json:"authored_by"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (HypothesisSegmentLink) TableName() string { return "hypothesis_segment_link" }

// Stale reports whether the hypothesis has changed since this link was
// last analyzed — the link's verdict was computed against an earlier
// hypothesis_text/description/reference.
func (l *HypothesisSegmentLink) Stale(hypothesisUpdatedAt time.Time) bool {
	return l.UpdatedAt.Before(hypothesisUpdatedAt)
}
