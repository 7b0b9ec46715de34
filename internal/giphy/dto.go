package giphy

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SearchResponse is the body of GET /v1/gifs/search
type SearchResponse struct {
	Data       []GifObject `json:"data"`
	Pagination *Pagination `json:"pagination"`
	Meta       *Meta       `json:"meta"`
}

// GifObject is one entry of the data array
type GifObject struct {
	Type     string  `json:"type,omitempty"`
	ID       string  `json:"id"`
	URL      string  `json:"url,omitempty"`
	Slug     string  `json:"slug,omitempty"`
	Title    string  `json:"title,omitempty"`
	Rating   string  `json:"rating,omitempty"`
	Username string  `json:"username,omitempty"`
	Images   *Images `json:"images"`
}

// Images lists the renditions Giphy returns. Only original is required.
type Images struct {
	Original         *Rendition `json:"original"`
	FixedWidth       *Rendition `json:"fixed_width,omitempty"`
	FixedHeight      *Rendition `json:"fixed_height,omitempty"`
	FixedWidthSmall  *Rendition `json:"fixed_width_small,omitempty"`
	FixedHeightSmall *Rendition `json:"fixed_height_small,omitempty"`
	Downsized        *Rendition `json:"downsized,omitempty"`
	OriginalMP4      *Rendition `json:"original_mp4,omitempty"`
}

// Rendition is a single image or video variant. Giphy encodes numbers as strings.
type Rendition struct {
	URL     string `json:"url,omitempty"`
	Width   string `json:"width,omitempty"`
	Height  string `json:"height,omitempty"`
	Size    string `json:"size,omitempty"`
	MP4     string `json:"mp4,omitempty"`
	MP4Size string `json:"mp4_size,omitempty"`
	WebP    string `json:"webp,omitempty"`
}

// Pagination describes where the page sits in the full result set
type Pagination struct {
	TotalCount *int `json:"total_count"`
	Count      *int `json:"count"`
	Offset     *int `json:"offset"`
}

// Meta carries the provider's status envelope
type Meta struct {
	Status     int    `json:"status"`
	Msg        string `json:"msg"`
	ResponseID string `json:"response_id"`
}

// Validate checks the fields the mapper depends on. Nested values are
// validated through their own Validate methods.
func (r SearchResponse) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Data, validation.NotNil),
		validation.Field(&r.Pagination, validation.Required),
		validation.Field(&r.Meta, validation.Required),
	)
}

func (g GifObject) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.ID, validation.Required),
		validation.Field(&g.Images, validation.Required),
	)
}

func (i Images) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Original, validation.Required, validation.By(hasURL)),
	)
}

func hasURL(value interface{}) error {
	if r, ok := value.(*Rendition); ok && r != nil && r.URL == "" {
		return errors.New("url cannot be blank")
	}
	return nil
}

func (p Pagination) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.TotalCount, validation.NotNil, validation.Min(0)),
		validation.Field(&p.Count, validation.NotNil, validation.Min(0)),
		validation.Field(&p.Offset, validation.NotNil, validation.Min(0)),
	)
}
