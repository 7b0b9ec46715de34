package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/gifterm/internal/domain"
)

const (
	saveTimeout  = 90 * time.Second
	statusLinger = 4 * time.Second
)

// Command factories for async operations

// WaitForChangeCmd blocks until the search session signals a change
func WaitForChangeCmd(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return SearchChangedMsg{}
	}
}

// PlayCmd launches the external player for gif
func PlayCmd(svc player, gif domain.Gif) tea.Cmd {
	return func() tea.Msg {
		if err := svc.Play(gif); err != nil {
			return ErrMsg{Err: err, Context: "playing " + gif.DisplayTitle()}
		}
		return PlaybackStartedMsg{Gif: gif}
	}
}

// SaveCmd downloads gif into the media library
func SaveCmd(svc saver, gif domain.Gif) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()

		asset, err := svc.DownloadAndSave(ctx, gif)
		switch {
		case errors.Is(err, domain.ErrPermissionRequired):
			return PermissionRequiredMsg{Gif: gif}
		case err != nil:
			return ErrMsg{Err: err, Context: "saving " + gif.DisplayTitle()}
		}
		return SavedMsg{Gif: gif, Asset: asset}
	}
}

// AuthorizeCmd records the user's answer to the save prompt
func AuthorizeCmd(svc saver, gif domain.Gif, granted bool) tea.Cmd {
	return func() tea.Msg {
		if err := svc.Authorize(granted); err != nil {
			return ErrMsg{Err: err, Context: "recording permission"}
		}
		return PermissionAnsweredMsg{Gif: gif, Granted: granted}
	}
}

// ClearStatusCmd clears the status line after statusLinger
func ClearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(statusLinger, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
