package domain

import (
	"net/url"
	"path"
	"strings"
)

// Gif is one search result returned by the provider
type Gif struct {
	ID       string // Provider-unique identifier
	Title    string // Display title (may be empty)
	Username string // Uploader handle (may be empty)
	Rating   string // Content rating: "g", "pg", "pg-13", "r"
	PageURL  string // Provider web page for the GIF
	Images   Images
}

// Images holds the renditions the provider offers for a GIF.
// Original is always present; the others are optional.
type Images struct {
	Original         Image
	FixedWidth       *Image
	FixedHeight      *Image
	FixedWidthSmall  *Image
	FixedHeightSmall *Image
	Downsized        *Image
	OriginalMP4      *Video
}

// Image is a single still or animated rendition
type Image struct {
	URL    string // GIF URL
	MP4    string // MP4 variant of the same rendition, if any
	Width  int    // Pixels, 0 when unknown
	Height int    // Pixels, 0 when unknown
}

// Video is an MP4 rendition
type Video struct {
	MP4    string
	Size   int64 // Bytes, 0 when unknown
	Width  int
	Height int
}

// BestForGrid picks the rendition used for list display. Preference:
// fixed_width, fixed_height, fixed_width_small, fixed_height_small, downsized, original.
func (i Images) BestForGrid() Image {
	for _, candidate := range []*Image{i.FixedWidth, i.FixedHeight, i.FixedWidthSmall, i.FixedHeightSmall, i.Downsized} {
		if candidate != nil && candidate.URL != "" {
			return *candidate
		}
	}
	return i.Original
}

// BestVideoURL returns the preferred MP4 URL, or "" when none exists
func (i Images) BestVideoURL() string {
	if i.OriginalMP4 != nil && i.OriginalMP4.MP4 != "" {
		return i.OriginalMP4.MP4
	}
	if i.Original.MP4 != "" {
		return i.Original.MP4
	}
	return ""
}

// MediaURL returns the URL to fetch when playing or saving a GIF:
// the best MP4 if there is one, otherwise the original GIF.
func (g Gif) MediaURL() string {
	if u := g.Images.BestVideoURL(); u != "" {
		return u
	}
	return g.Images.Original.URL
}

// Dimensions returns the original width and height
func (g Gif) Dimensions() (int, int) {
	return g.Images.Original.Width, g.Images.Original.Height
}

// AspectRatio returns width/height of the original, or 1 when either is unknown
func (g Gif) AspectRatio() float64 {
	w, h := g.Dimensions()
	if w <= 0 || h <= 0 {
		return 1
	}
	return float64(w) / float64(h)
}

// DisplayTitle returns the title, falling back to the ID for untitled GIFs
func (g Gif) DisplayTitle() string {
	if strings.TrimSpace(g.Title) != "" {
		return g.Title
	}
	return g.ID
}

// SearchPage is one page of provider results
type SearchPage struct {
	Gifs       []Gif
	TotalCount int // Total matches the provider reports for the query
	Count      int // Items in this page
	Offset     int // Offset the page starts at
	ResponseID string
}

// ClassifyMedia decides whether a download URL is saved as video or image.
// Paths ending in .mp4 are videos; everything else is an image.
func ClassifyMedia(rawURL string) MediaKind {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	if strings.EqualFold(path.Ext(p), ".mp4") {
		return MediaKindVideo
	}
	return MediaKindImage
}
