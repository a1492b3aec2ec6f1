package domain

import (
	"time"

	"github.com/google/uuid"
)

// Question is an open research question that one or more hypotheses bear on.
type Question struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuestionText string    `gorm:"column:question_text;not null" json:"question_text"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (Question) TableName() string { return "question" }

// QuestionHypothesisLink associates a Question with a Hypothesis that
// bears on it. Undirected: no verdict, no authorship, just membership.
type QuestionHypothesisLink struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuestionID   uuid.UUID `gorm:"type:uuid;column:question_id;not null;uniqueIndex:idx_qh_question_hypothesis" json:"question_id"`
	HypothesisID uuid.UUID `gorm:"type:uuid;column:hypothesis_id;not null;uniqueIndex:idx_qh_question_hypothesis" json:"hypothesis_id"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
}

func (QuestionHypothesisLink) TableName() string { return "question_hypothesis_link" }
