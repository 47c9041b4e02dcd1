package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/samirrijal/geosurvey/internal/core/domain"
	"github.com/samirrijal/geosurvey/internal/core/ports"
	"github.com/samirrijal/geosurvey/internal/pkg/logging"
	"github.com/samirrijal/geosurvey/internal/pkg/metrics"
)

var allowedUploadExt = map[string]bool{
	".m4a": true, ".mp3": true, ".wav": true, ".aac": true,
	".ogg": true, ".webm": true, ".3gp": true, ".caf": true,
}

// UploadService stores voice recordings and serves them back.
type UploadService struct {
	uploads   ports.UploadRepository
	responses ports.ResponseRepository
	files     ports.FileStore
}

// NewUploadService creates a new UploadService.
func NewUploadService(uploads ports.UploadRepository, responses ports.ResponseRepository, files ports.FileStore) *UploadService {
	return &UploadService{uploads: uploads, responses: responses, files: files}
}

// Upload stores r under a name derived from the new upload record id.
func (s *UploadService) Upload(ctx context.Context, originalName string, r io.Reader) (*domain.Upload, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		return nil, domain.NewValidationError("file", "must have an extension")
	}
	if !allowedUploadExt[ext] {
		return nil, domain.NewValidationError("file", fmt.Sprintf("unsupported file type %q", ext))
	}

	id, err := s.uploads.Create(ctx, filepath.Base(originalName))
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}

	name := fmt.Sprintf("upload_%d%s", id, ext)
	size, err := s.files.Save(ctx, name, r)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", name, err)
	}
	if err := s.uploads.Finalize(ctx, id, name, size); err != nil {
		if rmErr := s.files.Remove(ctx, name); rmErr != nil {
			logging.FromContext(ctx).Warn("remove orphaned upload", "file", name, "error", rmErr)
		}
		return nil, fmt.Errorf("finalize upload: %w", err)
	}
	metrics.UploadBytes.Add(float64(size))

	return &domain.Upload{ID: id, FilePath: name, OriginalName: filepath.Base(originalName), Size: size}, nil
}

// Download opens the voice recording attached to a response.
// The caller must close the returned reader.
func (s *UploadService) Download(ctx context.Context, responseID int64) (io.ReadCloser, int64, string, error) {
	if responseID <= 0 {
		return nil, 0, "", domain.ErrNotFound
	}
	resp, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, 0, "", err
	}
	if resp.VoiceRecordingPath == "" {
		return nil, 0, "", fmt.Errorf("response %d has no recording: %w", responseID, domain.ErrNotFound)
	}

	rc, size, err := s.files.Open(ctx, resp.VoiceRecordingPath)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, "", err
		}
		return nil, 0, "", fmt.Errorf("open recording: %w", err)
	}
	return rc, size, filepath.Base(resp.VoiceRecordingPath), nil
}
