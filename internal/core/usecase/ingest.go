package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
	"github.com/kirillkom/case-analysis-backend/internal/core/ports"
)

var allowedUploadExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".bmp":  true,
}

type IngestDocumentUseCase struct {
	repo           ports.DocumentRepository
	events         ports.EventStore
	storage        ports.ObjectStorage
	maxUploadBytes int64
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	events ports.EventStore,
	storage ports.ObjectStorage,
	maxUploadBytes int64,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:           repo,
		events:         events,
		storage:        storage,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload validates and stores one case document. Analysis is a separate
// explicit trigger; uploading never queues work by itself.
func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	caseID, filename, mimeType string,
	size int64,
	body io.Reader,
) (*domain.Document, error) {
	if err := validateCaseID(caseID); err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedUploadExtensions[ext] {
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "validate upload",
			fmt.Errorf("file type %q not allowed", ext))
	}
	if size <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("empty file"))
	}
	if size > uc.maxUploadBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate upload",
			fmt.Errorf("file size %d exceeds limit %d", size, uc.maxUploadBytes))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("cases/%s/documents/%s_%s", caseID, id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		CaseID:      caseID,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		SizeBytes:   size,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if err := uc.events.Append(ctx, domain.NewDocumentUploaded(doc)); err != nil {
		slog.Error("event append failed",
			"event_type", domain.EventDocumentUploaded,
			"aggregate_id", doc.ID,
			"error", err,
		)
	}

	slog.Info("document uploaded",
		"document_id", doc.ID,
		"case_id", doc.CaseID,
		"size_bytes", doc.SizeBytes,
	)
	return doc, nil
}

// validateCaseID keeps case identifiers safe to embed in storage keys.
func validateCaseID(caseID string) error {
	if strings.TrimSpace(caseID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("case_id is required"))
	}
	for _, r := range caseID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return domain.WrapError(domain.ErrInvalidInput, "validate upload",
				fmt.Errorf("case_id contains invalid character %q", r))
		}
	}
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
