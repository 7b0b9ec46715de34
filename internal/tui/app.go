package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/gifterm/internal/domain"
	"github.com/mmcdole/gifterm/internal/search"
	"github.com/mmcdole/gifterm/internal/tui/components"
	"github.com/mmcdole/gifterm/internal/tui/styles"
)

// Focus identifies which pane receives keys in browse mode
type Focus int

const (
	FocusSearch Focus = iota
	FocusResults
)

// Mode is the interaction mode layered over browsing
type Mode int

const (
	ModeBrowse Mode = iota
	ModeDetail
	ModeFilter
	ModePermission
)

// loadMoreThreshold is how close to the last row the cursor gets before the next page is requested
const loadMoreThreshold = 5

// Layout constants
const (
	headerHeight    = 1
	searchBarHeight = 3
	footerHeight    = 1
)

// searcher is the search session the UI drives (consumer-defined interface)
type searcher interface {
	SubmitQuery(text string)
	LoadMore()
	Snapshot() search.State
	Changes() <-chan struct{}
}

// saver stores GIFs in the media library
type saver interface {
	DownloadAndSave(ctx context.Context, gif domain.Gif) (domain.Asset, error)
	Authorize(granted bool) error
}

// player launches GIFs in an external player
type player interface {
	Play(gif domain.Gif) error
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Services
	Search      searcher
	SaveSvc     saver
	PlaybackSvc player

	// UI Components
	Keys    KeyMap
	Input   textinput.Model // Query
	Filter  textinput.Model // Narrowing filter over loaded results
	Spinner spinner.Model
	Results components.ResultList
	Detail  components.Detail

	// Data
	State search.State

	// UI state
	Focus       Focus
	Mode        Mode
	prevMode    Mode       // Mode to return to after the permission prompt
	pendingSave domain.Gif // GIF waiting on the permission prompt
	StatusMsg   string
	StatusIsErr bool
	statusSeq   int

	// Dimensions
	Width  int
	Height int
}

// NewModel creates a new application model
func NewModel(searchSession searcher, saveSvc saver, playbackSvc player) Model {
	input := textinput.New()
	input.Placeholder = "Search GIFs..."
	input.Prompt = "🔍 "
	input.CharLimit = 200
	input.PromptStyle = styles.AccentStyle
	input.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	input.PlaceholderStyle = styles.DimStyle
	input.Focus()

	filter := textinput.New()
	filter.Placeholder = "narrow loaded results"
	filter.Prompt = "/ "
	filter.CharLimit = 100
	filter.PromptStyle = styles.AccentStyle
	filter.PlaceholderStyle = styles.DimStyle

	spin := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(styles.SpinnerStyle),
	)

	return Model{
		Search:      searchSession,
		SaveSvc:     saveSvc,
		PlaybackSvc: playbackSvc,
		Keys:        DefaultKeyMap(),
		Input:       input,
		Filter:      filter,
		Spinner:     spin,
		Results:     components.NewResultList(),
		Detail:      components.NewDetail(),
		State:       searchSession.Snapshot(),
		Focus:       FocusSearch,
		Mode:        ModeBrowse,
	}
}

// Init starts the cursor blink, the spinner and the change listener
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.Spinner.Tick,
		WaitForChangeCmd(m.Search.Changes()),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.updateLayout()
		return m, nil

	case SearchChangedMsg:
		m.refresh()
		return m, WaitForChangeCmd(m.Search.Changes())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case PlaybackStartedMsg:
		return m, m.setStatus("Playing "+msg.Gif.DisplayTitle(), false)

	case SavedMsg:
		return m, m.setStatus(fmt.Sprintf("Saved %s to library as %s", msg.Gif.DisplayTitle(), msg.Asset.Kind), false)

	case PermissionRequiredMsg:
		m.prevMode = m.Mode
		m.Mode = ModePermission
		m.pendingSave = msg.Gif
		return m, nil

	case PermissionAnsweredMsg:
		if !msg.Granted {
			return m, m.setStatus("Library access denied, GIFs will not be saved", true)
		}
		return m, tea.Batch(m.setStatus("Saving "+msg.Gif.DisplayTitle()+"...", false), SaveCmd(m.SaveSvc, msg.Gif))

	case ErrMsg:
		if errors.Is(msg.Err, domain.ErrNoPermission) {
			return m, m.setStatus("Library access was denied, saving is disabled", true)
		}
		return m, m.setStatus(msg.Error(), true)

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmd tea.Cmd
	switch {
	case m.Mode == ModeFilter:
		m.Filter, cmd = m.Filter.Update(msg)
	case m.Focus == FocusSearch:
		m.Input, cmd = m.Input.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.Keys.Quit) {
		return m, tea.Quit
	}

	switch m.Mode {
	case ModePermission:
		return m.handlePermissionKey(msg)
	case ModeFilter:
		return m.handleFilterKey(msg)
	case ModeDetail:
		return m.handleDetailKey(msg)
	}

	if m.Focus == FocusSearch {
		return m.handleSearchKey(msg)
	}
	return m.handleResultsKey(msg)
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Focus), msg.Type == tea.KeyEnter, msg.Type == tea.KeyDown:
		if m.Results.Len() > 0 {
			m.focusResults()
		}
		return m, nil

	case key.Matches(msg, m.Keys.Back):
		if m.Input.Value() == "" {
			return m, nil
		}
		m.Input.SetValue("")
		m.submitQuery()
		return m, nil
	}

	prev := m.Input.Value()
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	if m.Input.Value() != prev {
		m.submitQuery()
	}
	return m, cmd
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Focus):
		return m, m.focusSearch()

	case key.Matches(msg, m.Keys.Up):
		m.Results.MoveUp()

	case key.Matches(msg, m.Keys.Down):
		m.Results.MoveDown()
		m.maybeLoadMore()

	case key.Matches(msg, m.Keys.PageUp):
		m.Results.PageUp()

	case key.Matches(msg, m.Keys.PageDown):
		m.Results.PageDown()
		m.maybeLoadMore()

	case key.Matches(msg, m.Keys.Home):
		m.Results.Top()

	case key.Matches(msg, m.Keys.End):
		m.Results.Bottom()
		m.maybeLoadMore()

	case key.Matches(msg, m.Keys.Enter):
		if g, ok := m.Results.Selected(); ok {
			m.Detail.SetGif(g)
			m.Mode = ModeDetail
		}

	case key.Matches(msg, m.Keys.Play):
		if g, ok := m.Results.Selected(); ok {
			return m, PlayCmd(m.PlaybackSvc, g)
		}

	case key.Matches(msg, m.Keys.Save):
		if g, ok := m.Results.Selected(); ok {
			return m, m.startSave(g)
		}

	case key.Matches(msg, m.Keys.Filter):
		m.Mode = ModeFilter
		return m, m.Filter.Focus()

	case key.Matches(msg, m.Keys.Back):
		if m.Filter.Value() != "" {
			m.Filter.SetValue("")
			m.applyResults()
			return m, nil
		}
		return m, m.focusSearch()
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Filter.SetValue("")
		m.Filter.Blur()
		m.Mode = ModeBrowse
		m.applyResults()
		return m, nil

	case tea.KeyEnter:
		m.Filter.Blur()
		m.Mode = ModeBrowse
		return m, nil
	}

	var cmd tea.Cmd
	m.Filter, cmd = m.Filter.Update(msg)
	m.applyResults()
	return m, cmd
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	g, ok := m.Detail.Gif()
	switch {
	case key.Matches(msg, m.Keys.Back), msg.Type == tea.KeyBackspace:
		m.Mode = ModeBrowse
		return m, nil

	case key.Matches(msg, m.Keys.Play):
		if ok {
			return m, PlayCmd(m.PlaybackSvc, g)
		}
		return m, nil

	case key.Matches(msg, m.Keys.Save):
		if ok {
			return m, m.startSave(g)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.Detail, cmd = m.Detail.Update(msg)
	return m, cmd
}

func (m Model) handlePermissionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Confirm):
		m.Mode = m.prevMode
		return m, AuthorizeCmd(m.SaveSvc, m.pendingSave, true)
	case key.Matches(msg, m.Keys.Deny):
		m.Mode = m.prevMode
		return m, AuthorizeCmd(m.SaveSvc, m.pendingSave, false)
	}
	return m, nil
}

// submitQuery hands the search bar text to the session and drops any narrowing
func (m *Model) submitQuery() {
	m.Filter.SetValue("")
	m.Search.SubmitQuery(m.Input.Value())
}

// maybeLoadMore requests the next page when the cursor nears the end of an unfiltered list
func (m *Model) maybeLoadMore() {
	if m.Filter.Value() == "" && m.Results.NearEnd(loadMoreThreshold) {
		m.Search.LoadMore()
	}
}

func (m *Model) startSave(g domain.Gif) tea.Cmd {
	return tea.Batch(m.setStatus("Saving "+g.DisplayTitle()+"...", false), SaveCmd(m.SaveSvc, g))
}

func (m *Model) focusResults() {
	m.Focus = FocusResults
	m.Input.Blur()
	m.Results.SetFocused(true)
}

func (m *Model) focusSearch() tea.Cmd {
	m.Focus = FocusSearch
	m.Results.SetFocused(false)
	return m.Input.Focus()
}

// refresh pulls a new snapshot from the session
func (m *Model) refresh() {
	m.State = m.Search.Snapshot()
	m.applyResults()
	if m.Focus == FocusResults && m.Results.Len() == 0 && m.Filter.Value() == "" {
		m.focusSearch()
	}
}

// applyResults recomputes the visible rows from the snapshot and the narrowing filter
func (m *Model) applyResults() {
	results := m.State.Results
	m.Results.SetItems(
		results,
		search.Narrow(m.Filter.Value(), results),
		search.Highlights(m.State.Query, results),
	)
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return ClearStatusCmd(m.statusSeq)
}

func (m *Model) updateLayout() {
	bodyHeight := max(1, m.Height-headerHeight-searchBarHeight-footerHeight-1)
	m.Input.Width = max(10, m.Width-8)
	m.Results.SetSize(max(20, m.Width-2), bodyHeight)
	m.Detail.SetSize(max(20, m.Width-4), bodyHeight)
}
