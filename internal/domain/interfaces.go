package domain

import "context"

// SearchClient fetches one page of results for a query.
// offset is the number of results already held; limit is the page size.
// Implementations must honor ctx cancellation.
type SearchClient interface {
	Search(ctx context.Context, query string, offset, limit int) (*SearchPage, error)
}

// MediaLibrary is the local store GIFs are saved into
type MediaLibrary interface {
	// AuthorizationStatus reports the user's answer to the save prompt
	AuthorizationStatus() Authorization

	// SetAuthorization records the user's answer
	SetAuthorization(granted bool) error

	// SaveAsset stores data under a new asset; ID, Size and SavedAt are assigned
	SaveAsset(asset Asset, data []byte) (Asset, error)

	// ListAssets returns saved assets, newest first
	ListAssets() ([]Asset, error)

	// DeleteAsset removes an asset and its bytes
	DeleteAsset(id string) error
}
