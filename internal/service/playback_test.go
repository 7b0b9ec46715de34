package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/gifterm/internal/domain"
)

type recordingLauncher struct {
	urls []string
}

func (r *recordingLauncher) Launch(url string) error {
	r.urls = append(r.urls, url)
	return nil
}

func TestPlayUsesBestVideo(t *testing.T) {
	l := &recordingLauncher{}
	svc := NewPlaybackService(l, nil)

	require.NoError(t, svc.Play(domain.Gif{
		ID: "a",
		Images: domain.Images{
			Original:    domain.Image{URL: "https://media.example/a.gif", MP4: "https://media.example/a.mp4"},
			OriginalMP4: &domain.Video{MP4: "https://media.example/a-hd.mp4"},
		},
	}))
	require.NoError(t, svc.Play(domain.Gif{
		ID:     "b",
		Images: domain.Images{Original: domain.Image{URL: "https://media.example/b.gif"}},
	}))

	assert.Equal(t, []string{"https://media.example/a-hd.mp4", "https://media.example/b.gif"}, l.urls)
}

func TestPlayWithoutMedia(t *testing.T) {
	svc := NewPlaybackService(&recordingLauncher{}, nil)
	assert.ErrorIs(t, svc.Play(domain.Gif{ID: "a"}), ErrNoMedia)
}
