package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gifterm/internal/domain"
	"github.com/mmcdole/gifterm/internal/metrics"
)

const (
	downloadTimeout = 60 * time.Second
	maxDownloadSize = 64 << 20
)

// SaveService downloads GIFs and stores them in the media library
type SaveService struct {
	library    domain.MediaLibrary
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewSaveService creates a new save service. httpClient and m may be nil.
func NewSaveService(library domain.MediaLibrary, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *SaveService {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: downloadTimeout}
	}
	return &SaveService{
		library:    library,
		httpClient: httpClient,
		metrics:    m,
		logger:     logger,
	}
}

// Authorization returns the current permission status
func (s *SaveService) Authorization() domain.Authorization {
	return s.library.AuthorizationStatus()
}

// Authorize records the user's answer to the permission prompt
func (s *SaveService) Authorize(granted bool) error {
	s.logger.Info("library permission answered", "granted", granted)
	return s.library.SetAuthorization(granted)
}

// DownloadAndSave fetches gif's best video (or the original GIF) and
// stores it. It fails with ErrPermissionRequired until the user has
// answered the permission prompt, and with ErrNoPermission after a denial.
func (s *SaveService) DownloadAndSave(ctx context.Context, gif domain.Gif) (domain.Asset, error) {
	switch s.library.AuthorizationStatus() {
	case domain.AuthorizationNotDetermined:
		return domain.Asset{}, domain.ErrPermissionRequired
	case domain.AuthorizationDenied:
		return domain.Asset{}, domain.ErrNoPermission
	}

	mediaURL := gif.MediaURL()
	if mediaURL == "" {
		return domain.Asset{}, fmt.Errorf("%w: %w", domain.ErrDownloadFailed, ErrNoMedia)
	}

	data, err := s.download(ctx, mediaURL)
	if err != nil {
		s.logger.Error("media download failed", "gifID", gif.ID, "error", err)
		return domain.Asset{}, fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
	}

	kind := domain.ClassifyMedia(mediaURL)
	asset, err := s.library.SaveAsset(domain.Asset{
		Kind:      kind,
		GifID:     gif.ID,
		Title:     gif.Title,
		SourceURL: mediaURL,
	}, data)
	if err != nil {
		s.logger.Error("media save failed", "gifID", gif.ID, "error", err)
		return domain.Asset{}, fmt.Errorf("%w: %w", domain.ErrSaveFailed, err)
	}

	s.metrics.AssetSaved(string(kind))
	s.logger.Info("media saved", "gifID", gif.ID, "assetID", asset.ID, "kind", kind, "bytes", asset.Size)
	return asset, nil
}

func (s *SaveService) download(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "gifterm/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDownloadSize {
		return nil, fmt.Errorf("media exceeds %d bytes", maxDownloadSize)
	}
	if len(data) == 0 {
		return nil, errors.New("empty response body")
	}
	return data, nil
}
