package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/signal-noise/workbench/internal/data/repos/document"
	"github.com/signal-noise/workbench/internal/data/repos/segment"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type fakeDocumentRepo struct {
	byID map[uuid.UUID]*domain.Document
}

var _ document.Repo = (*fakeDocumentRepo)(nil)

func (f *fakeDocumentRepo) ListActive(dbctx.Context) ([]*document.Summary, error) { return nil, nil }
func (f *fakeDocumentRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*domain.Document, error) {
	return f.byID[id], nil
}
func (f *fakeDocumentRepo) GetBySourceAndExternalID(dbctx.Context, uuid.UUID, string) (*domain.Document, error) {
	return nil, nil
}
func (f *fakeDocumentRepo) Upsert(_ dbctx.Context, d *domain.Document) (*domain.Document, error) {
	return d, nil
}
func (f *fakeDocumentRepo) Create(_ dbctx.Context, d *domain.Document) (*domain.Document, error) {
	return d, nil
}
func (f *fakeDocumentRepo) Archive(dbctx.Context, uuid.UUID) (*domain.Document, error) { return nil, nil }
func (f *fakeDocumentRepo) UpdateFields(dbctx.Context, uuid.UUID, map[string]any) error { return nil }

type fakeSegmentRepo struct {
	created *domain.Segment
}

func (f *fakeSegmentRepo) Create(_ dbctx.Context, s *domain.Segment) (*domain.Segment, error) {
	s.ID = uuid.New()
	f.created = s
	return s, nil
}
func (f *fakeSegmentRepo) GetByID(dbctx.Context, uuid.UUID) (*domain.Segment, error)       { return nil, nil }
func (f *fakeSegmentRepo) ListByDocument(dbctx.Context, uuid.UUID) ([]*domain.Segment, error) { return nil, nil }
func (f *fakeSegmentRepo) List(dbctx.Context) ([]*segment.Listing, error)                  { return nil, nil }
func (f *fakeSegmentRepo) Delete(dbctx.Context, uuid.UUID) error                           { return nil }

var _ segment.Repo = (*fakeSegmentRepo)(nil)

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// S1: POST /segments on a document with content_text="ABCDEFGHIJ" (len 10)
// and {text:"DEF", start_offset:3, end_offset:6} creates a segment with
// segment_status=raw, version=1, offset_kind=text.
func TestSegmentHandler_Create_S1(t *testing.T) {
	gin.SetMode(gin.TestMode)

	doc := &domain.Document{ID: uuid.New(), ContentText: "ABCDEFGHIJ"}
	docs := &fakeDocumentRepo{byID: map[uuid.UUID]*domain.Document{doc.ID: doc}}
	segs := &fakeSegmentRepo{}

	h := &SegmentHandler{segments: segs, documents: docs, log: testLog(t)}

	r := gin.New()
	r.POST("/segments", h.Create)

	body, _ := json.Marshal(map[string]any{
		"document_id":  doc.ID.String(),
		"text":         "DEF",
		"start_offset": 3,
		"end_offset":   6,
	})
	req := httptest.NewRequest(http.MethodPost, "/segments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if segs.created == nil {
		t.Fatalf("expected a segment to be created")
	}
	if segs.created.SegmentStatus != domain.SegmentStatusRaw {
		t.Fatalf("expected segment_status=raw, got %q", segs.created.SegmentStatus)
	}
	if segs.created.Version != 1 {
		t.Fatalf("expected version=1, got %d", segs.created.Version)
	}
	if segs.created.OffsetKind != domain.OffsetKindText {
		t.Fatalf("expected offset_kind=text, got %q", segs.created.OffsetKind)
	}
}

// invariant 6: start_offset < end_offset and both within
// len(document.content_text) for offset_kind=text.
func TestSegmentHandler_Create_RejectsOutOfBoundsOffsets(t *testing.T) {
	gin.SetMode(gin.TestMode)

	doc := &domain.Document{ID: uuid.New(), ContentText: "ABCDEFGHIJ"}
	docs := &fakeDocumentRepo{byID: map[uuid.UUID]*domain.Document{doc.ID: doc}}
	segs := &fakeSegmentRepo{}

	h := &SegmentHandler{segments: segs, documents: docs, log: testLog(t)}

	r := gin.New()
	r.POST("/segments", h.Create)

	cases := []map[string]any{
		{"document_id": doc.ID.String(), "text": "x", "start_offset": 3, "end_offset": 3},
		{"document_id": doc.ID.String(), "text": "x", "start_offset": -1, "end_offset": 5},
		{"document_id": doc.ID.String(), "text": "x", "start_offset": 0, "end_offset": 50},
	}
	for _, c := range cases {
		body, _ := json.Marshal(c)
		req := httptest.NewRequest(http.MethodPost, "/segments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %+v, got %d: %s", c, rec.Code, rec.Body.String())
		}
	}
	if segs.created != nil {
		t.Fatalf("expected no segment to be created for invalid offsets")
	}
}
