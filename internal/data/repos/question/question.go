package question

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

var ErrAlreadyLinked = errors.New("hypothesis already linked to question")

type Repo interface {
	List(dbc dbctx.Context) ([]*domain.Question, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Question, error)
	Create(dbc dbctx.Context, q *domain.Question) (*domain.Question, error)
	// Delete removes the question and its links only (hypotheses survive,
	// per the no-cascade-to-hypotheses rule in SPEC_FULL §9).
	Delete(dbc dbctx.Context, id uuid.UUID) error
	ListHypotheses(dbc dbctx.Context, questionID uuid.UUID) ([]*domain.Hypothesis, error)
	LinkHypothesis(dbc dbctx.Context, questionID, hypothesisID uuid.UUID) (*domain.QuestionHypothesisLink, error)
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepo(db *gorm.DB, baseLog *logger.Logger) Repo {
	return &repo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

func (r *repo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *repo) List(dbc dbctx.Context) ([]*domain.Question, error) {
	var out []*domain.Question
	if err := r.tx(dbc).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Question, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var q domain.Question
	err := r.tx(dbc).Where("id = ?", id).First(&q).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *repo) Create(dbc dbctx.Context, q *domain.Question) (*domain.Question, error) {
	if err := r.tx(dbc).Create(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Where("question_id = ?", id).Delete(&domain.QuestionHypothesisLink{}).Error; err != nil {
			return err
		}
		return txx.Where("id = ?", id).Delete(&domain.Question{}).Error
	})
}

func (r *repo) ListHypotheses(dbc dbctx.Context, questionID uuid.UUID) ([]*domain.Hypothesis, error) {
	var out []*domain.Hypothesis
	err := r.tx(dbc).
		Table("hypothesis AS h").
		Joins("JOIN question_hypothesis_link l ON l.hypothesis_id = h.id").
		Where("l.question_id = ?", questionID).
		Order("h.created_at DESC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) LinkHypothesis(dbc dbctx.Context, questionID, hypothesisID uuid.UUID) (*domain.QuestionHypothesisLink, error) {
	var existing domain.QuestionHypothesisLink
	err := r.tx(dbc).Where("question_id = ? AND hypothesis_id = ?", questionID, hypothesisID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyLinked
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	link := &domain.QuestionHypothesisLink{QuestionID: questionID, HypothesisID: hypothesisID}
	if err := r.tx(dbc).Create(link).Error; err != nil {
		return nil, err
	}
	return link, nil
}
