package domain

import "time"

// MediaKind distinguishes how a saved asset is stored
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// Authorization is the user's answer to the save-to-library prompt
type Authorization int

const (
	AuthorizationNotDetermined Authorization = iota
	AuthorizationAuthorized
	AuthorizationDenied
)

func (a Authorization) String() string {
	switch a {
	case AuthorizationAuthorized:
		return "authorized"
	case AuthorizationDenied:
		return "denied"
	default:
		return "not_determined"
	}
}

// Asset is a GIF saved to the local media library
type Asset struct {
	ID        string    // Library-assigned identifier
	Kind      MediaKind // Image or video
	GifID     string    // Provider ID of the source GIF
	Title     string
	SourceURL string // URL the bytes were downloaded from
	Size      int64  // Bytes stored
	SavedAt   time.Time
}
