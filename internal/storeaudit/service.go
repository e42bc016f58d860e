package storeaudit

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"timeclock/internal/domain"
	"timeclock/internal/evidence"
	"timeclock/internal/verify"
	"timeclock/pkg/domainerrors"
	"timeclock/pkg/requestcontext"
)

// AuditStore persists completed audits.
type AuditStore interface {
	Insert(ctx context.Context, record domain.AuditRecord) error
	List(ctx context.Context) ([]domain.AuditRecord, error)
}

// StoreSource resolves the audited store for the report header.
type StoreSource interface {
	Store(ctx context.Context, id string) (domain.Store, error)
}

// Submission is a filled questionnaire ready for analysis.
type Submission struct {
	StoreID   string
	AuditorID string
	// Answers maps question id to answer.
	Answers map[string]string
	// Photos maps question id to the captured photo as a data URL.
	Photos map[string]string
}

type Service struct {
	audits   AuditStore
	stores   StoreSource
	analyzer *Analyzer
	uploader evidence.Uploader
	logger   *slog.Logger
}

func NewService(audits AuditStore, stores StoreSource, analyzer *Analyzer, uploader evidence.Uploader, logger *slog.Logger) *Service {
	return &Service{audits: audits, stores: stores, analyzer: analyzer, uploader: uploader, logger: logger}
}

// Submit validates the questionnaire, runs the analysis, uploads the photos,
// and persists the record. An analysis failure is returned as a
// RetryableError before anything is uploaded or stored, so the auditor can
// simply try again.
func (s *Service) Submit(ctx context.Context, sub Submission) (domain.AuditRecord, error) {
	if sub.StoreID == "" {
		return domain.AuditRecord{}, domainerrors.New(domainerrors.CodeBadRequest, "Debe seleccionar una sucursal.")
	}
	store, err := s.stores.Store(ctx, sub.StoreID)
	if err != nil {
		return domain.AuditRecord{}, domainerrors.Wrap(err, domainerrors.CodeNotFound, "Tienda inexistente.")
	}

	photos, err := validate(sub)
	if err != nil {
		return domain.AuditRecord{}, err
	}

	report, err := s.analyzer.Analyze(ctx, store, sub.Answers, photos)
	if err != nil {
		return domain.AuditRecord{}, err
	}

	now := requestcontext.Now(ctx)
	photoURLs := make(map[string]string, len(photos))
	for qid, img := range photos {
		// Photos keep the inline data URL when the upload fails, mirroring
		// the attendance evidence fallback.
		photoURLs[qid] = sub.Photos[qid]
		data, decErr := base64.StdEncoding.DecodeString(img.Base64)
		if decErr != nil {
			continue
		}
		key := evidence.ObjectKey(fmt.Sprintf("audit_%s_q%s", sub.AuditorID, qid), now)
		if url, upErr := s.uploader.Upload(ctx, key, img.MimeType, data); upErr != nil {
			s.logger.Warn("audit photo upload failed, embedding inline",
				"auditor_id", sub.AuditorID, "question_id", qid, "error", upErr)
		} else {
			photoURLs[qid] = url
		}
	}

	record := domain.AuditRecord{
		ID:              uuid.NewString(),
		StoreID:         store.ID,
		StoreName:       store.Name,
		AuditorID:       sub.AuditorID,
		Answers:         sub.Answers,
		PhotoURLs:       photoURLs,
		Score:           report.Score,
		Summary:         report.Summary,
		CriticalIssues:  report.CriticalIssues,
		Recommendations: report.Recommendations,
		CreatedAt:       now,
	}
	if err := s.audits.Insert(ctx, record); err != nil {
		return domain.AuditRecord{}, fmt.Errorf("save audit: %w", err)
	}

	s.logger.Info("audit saved", "audit_id", record.ID, "store_id", record.StoreID, "score", record.Score)
	return record, nil
}

// List returns all audits, newest first.
func (s *Service) List(ctx context.Context) ([]domain.AuditRecord, error) {
	return s.audits.List(ctx)
}

// validate checks that every visible question is answered and carries a photo
// where its answer demands one, and decodes the supplied photos.
func validate(sub Submission) (map[string]verify.InlineImage, error) {
	for _, q := range VisibleQuestions(sub.Answers) {
		answer := sub.Answers[q.ID]
		if answer == "" {
			return nil, domainerrors.New(domainerrors.CodeBadRequest,
				fmt.Sprintf("Falta responder: %s", q.Text))
		}
		if q.PhotoRequired(answer) && sub.Photos[q.ID] == "" {
			return nil, domainerrors.New(domainerrors.CodeBadRequest,
				fmt.Sprintf("Falta la foto obligatoria para: %s", q.Text))
		}
	}

	photos := make(map[string]verify.InlineImage, len(sub.Photos))
	for qid, dataURL := range sub.Photos {
		img, ok := verify.ParseInlineImage(dataURL)
		if !ok {
			return nil, domainerrors.New(domainerrors.CodeBadRequest, "Formato de foto inválido.")
		}
		photos[qid] = img
	}
	return photos, nil
}
