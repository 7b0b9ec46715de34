package service

import (
	"errors"
	"log/slog"

	"github.com/mmcdole/gifterm/internal/domain"
)

// ErrNoMedia indicates a GIF has no URL that can be played or saved
var ErrNoMedia = errors.New("gif has no media url")

// launcher abstracts media player launching (consumer-defined interface)
type launcher interface {
	Launch(url string) error
}

// PlaybackService opens GIFs in an external player
type PlaybackService struct {
	launcher launcher
	logger   *slog.Logger
}

// NewPlaybackService creates a new playback service
func NewPlaybackService(launcher launcher, logger *slog.Logger) *PlaybackService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaybackService{
		launcher: launcher,
		logger:   logger,
	}
}

// Play launches the best video rendition of gif, or the original GIF
func (s *PlaybackService) Play(gif domain.Gif) error {
	url := gif.MediaURL()
	if url == "" {
		return ErrNoMedia
	}

	s.logger.Info("launching playback", "title", gif.Title, "gifID", gif.ID, "url", url)
	return s.launcher.Launch(url)
}
