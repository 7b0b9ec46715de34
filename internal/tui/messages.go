package tui

import "github.com/mmcdole/gifterm/internal/domain"

// ErrMsg represents an error from an async command
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// SearchChangedMsg signals that the search session state changed
type SearchChangedMsg struct{}

// PlaybackStartedMsg signals that the player was launched
type PlaybackStartedMsg struct {
	Gif domain.Gif
}

// SavedMsg signals that a GIF was stored in the library
type SavedMsg struct {
	Gif   domain.Gif
	Asset domain.Asset
}

// PermissionRequiredMsg signals that saving needs the user's answer first
type PermissionRequiredMsg struct {
	Gif domain.Gif
}

// PermissionAnsweredMsg signals that the answer was recorded
type PermissionAnsweredMsg struct {
	Gif     domain.Gif
	Granted bool
}

// ClearStatusMsg clears the footer status after a delay
type ClearStatusMsg struct {
	Seq int
}
