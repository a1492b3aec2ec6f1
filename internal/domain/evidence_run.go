package domain

import (
	"time"

	"github.com/google/uuid"
)

// HypothesisSegmentLinkRun is an immutable record of one evidence-link
// write, carrying a snapshot of the hypothesis as it stood at analysis
// time. The link row above always reflects the latest run; this table is
// the audit trail a reviewer replays to see how a verdict was reached.
type HypothesisSegmentLinkRun struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LinkID       uuid.UUID  `gorm:"type:uuid;column:link_id;not null;index" json:"link_id"`
	HypothesisID uuid.UUID  `gorm:"type:uuid;column:hypothesis_id;not null;index" json:"hypothesis_id"`
	SegmentID    uuid.UUID  `gorm:"type:uuid;column:segment_id;not null;index" json:"segment_id"`
	Verdict      Verdict    `gorm:"column:verdict;not null" json:"verdict"`
	AnalysisText string     `gorm:"column:analysis_text" json:"analysis_text,omitempty"`
	AuthoredBy   AuthoredBy `gorm:"column:authored_by;not null" json:"authored_by"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null;default:now();index" json:"created_at"`

	// Snapshot of the hypothesis as it existed when this run was recorded.
	HypothesisTextSnapshot    string        `gorm:"column:hypothesis_text_snapshot;not null" json:"hypothesis_text_snapshot"`
	DescriptionSnapshot       string        `gorm:"column:description_snapshot" json:"description_snapshot,omitempty"`
	ReferenceURLSnapshot      string        `gorm:"column:reference_url_snapshot" json:"reference_url_snapshot,omitempty"`
	ReferenceTypeSnapshot     ReferenceType `gorm:"column:reference_type_snapshot" json:"reference_type_snapshot,omitempty"`
	HypothesisUpdatedAtSnapshot time.Time   `gorm:"column:hypothesis_updated_at_snapshot;not null" json:"hypothesis_updated_at_snapshot"`
}

func (HypothesisSegmentLinkRun) TableName() string { return "hypothesis_segment_link_run" }

// RunFrom builds the run row that records writing link with verdict/text
// against hypothesis h as it stood at commit time.
func RunFrom(link *HypothesisSegmentLink, h *Hypothesis) HypothesisSegmentLinkRun {
	return HypothesisSegmentLinkRun{
		LinkID:                      link.ID,
		HypothesisID:                link.HypothesisID,
		SegmentID:                   link.SegmentID,
		Verdict:                     link.Verdict,
		AnalysisText:                link.AnalysisText,
		AuthoredBy:                  link.AuthoredBy,
		HypothesisTextSnapshot:      h.HypothesisText,
		DescriptionSnapshot:         h.Description,
		ReferenceURLSnapshot:        h.ReferenceURL,
		ReferenceTypeSnapshot:       h.ReferenceType,
		HypothesisUpdatedAtSnapshot: h.UpdatedAt,
	}
}
