package giphy

import (
	"strconv"
	"strings"

	"github.com/mmcdole/gifterm/internal/domain"
)

// MapSearchPage converts a validated search response to a domain page
func MapSearchPage(resp *SearchResponse) *domain.SearchPage {
	page := &domain.SearchPage{
		Gifs: MapGifs(resp.Data),
	}
	if p := resp.Pagination; p != nil {
		page.TotalCount = derefInt(p.TotalCount)
		page.Count = derefInt(p.Count)
		page.Offset = derefInt(p.Offset)
	}
	if resp.Meta != nil {
		page.ResponseID = resp.Meta.ResponseID
	}
	return page
}

// MapGifs converts Giphy objects to domain GIFs, preserving provider order
func MapGifs(objects []GifObject) []domain.Gif {
	gifs := make([]domain.Gif, 0, len(objects))
	for _, o := range objects {
		gifs = append(gifs, mapGif(o))
	}
	return gifs
}

func mapGif(o GifObject) domain.Gif {
	gif := domain.Gif{
		ID:       o.ID,
		Title:    strings.TrimSpace(o.Title),
		Username: o.Username,
		Rating:   o.Rating,
		PageURL:  o.URL,
	}
	if o.Images == nil {
		return gif
	}

	if o.Images.Original != nil {
		gif.Images.Original = mapImage(*o.Images.Original)
	}
	gif.Images.FixedWidth = mapOptionalImage(o.Images.FixedWidth)
	gif.Images.FixedHeight = mapOptionalImage(o.Images.FixedHeight)
	gif.Images.FixedWidthSmall = mapOptionalImage(o.Images.FixedWidthSmall)
	gif.Images.FixedHeightSmall = mapOptionalImage(o.Images.FixedHeightSmall)
	gif.Images.Downsized = mapOptionalImage(o.Images.Downsized)

	if v := o.Images.OriginalMP4; v != nil && v.MP4 != "" {
		gif.Images.OriginalMP4 = &domain.Video{
			MP4:    v.MP4,
			Size:   parseSize(v.MP4Size),
			Width:  parseDimension(v.Width),
			Height: parseDimension(v.Height),
		}
	}
	return gif
}

func mapImage(r Rendition) domain.Image {
	return domain.Image{
		URL:    r.URL,
		MP4:    r.MP4,
		Width:  parseDimension(r.Width),
		Height: parseDimension(r.Height),
	}
}

func mapOptionalImage(r *Rendition) *domain.Image {
	if r == nil || (r.URL == "" && r.MP4 == "") {
		return nil
	}
	img := mapImage(*r)
	return &img
}

// parseDimension reads a Giphy numeric string; unparseable values become 0
func parseDimension(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return int(f)
	}
	return 0
}

func parseSize(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
