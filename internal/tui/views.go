package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/gifterm/internal/tui/styles"
)

// View renders the whole screen
func (m Model) View() string {
	if m.Width == 0 || m.Height == 0 {
		return "Loading..."
	}

	if m.Mode == ModePermission {
		return m.renderPermissionPrompt()
	}

	bodyHeight := max(1, m.Height-headerHeight-searchBarHeight-footerHeight-1)

	var body string
	if m.Mode == ModeDetail {
		body = m.Detail.View()
	} else {
		body = m.renderBody(bodyHeight)
	}
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderSearchBar(),
		body,
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := styles.AccentStyle.Bold(true).Render("gifterm")
	var count string
	switch {
	case m.State.Query == "":
	case m.State.TotalKnown():
		count = styles.DimStyle.Render(fmt.Sprintf("%d of %d", len(m.State.Results), m.State.TotalAvailable))
	case len(m.State.Results) > 0:
		count = styles.DimStyle.Render(fmt.Sprintf("%d loaded", len(m.State.Results)))
	}
	gap := max(1, m.Width-lipgloss.Width(title)-lipgloss.Width(count)-1)
	return " " + title + strings.Repeat(" ", gap) + count
}

func (m Model) renderSearchBar() string {
	border := styles.InactiveBorder
	if m.Focus == FocusSearch && m.Mode == ModeBrowse {
		border = styles.ActiveBorder
	}
	return border.Width(max(10, m.Width-2)).Render(m.Input.View())
}

// renderBody picks the results pane for the current session state
func (m Model) renderBody(height int) string {
	switch {
	case m.State.LastError != nil && len(m.State.Results) == 0:
		return m.renderError()

	case m.State.Query == "":
		return m.renderPlaceholder(height)

	case m.State.IsLoading && len(m.State.Results) == 0:
		return m.renderCentered(height, m.Spinner.View()+" "+styles.DimStyle.Render("Searching..."))

	case len(m.State.Results) == 0:
		return m.renderCentered(height, styles.SubtitleStyle.Render("No GIFs found for ")+
			styles.TitleStyle.Render(fmt.Sprintf("%q", m.State.Query)))
	}

	var lines []string
	if m.Mode == ModeFilter || m.Filter.Value() != "" {
		lines = append(lines, " "+m.Filter.View())
	}

	list := m.Results
	list.SetSize(max(20, m.Width-2), height-len(lines))
	switch {
	case m.State.IsLoading:
		list.SetFooter(m.Spinner.View() + " " + styles.DimStyle.Render("Loading more..."))
	case m.State.LastError != nil:
		list.SetFooter(styles.ErrorStyle.Render(m.State.LastError.Error()))
	case m.Filter.Value() != "" && list.Len() == 0:
		list.SetFooter(styles.DimStyle.Render("No loaded GIFs match the filter"))
	}
	lines = append(lines, list.View())
	return strings.Join(lines, "\n")
}

func (m Model) renderError() string {
	msg := lipgloss.NewStyle().Width(max(20, m.Width-4)).Render(m.State.LastError.Error())
	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		" "+styles.ErrorStyle.Bold(true).Render("Something went wrong"),
		"",
		styles.ErrorStyle.PaddingLeft(1).Render(msg),
		"",
		" "+styles.DimStyle.Render("Edit the query to try again"),
	)
}

func (m Model) renderPlaceholder(height int) string {
	text := lipgloss.JoinVertical(lipgloss.Center,
		styles.TitleStyle.Render("Search GIPHY"),
		styles.DimStyle.Render("Start typing to find GIFs"),
	)
	return m.renderCentered(height, text)
}

func (m Model) renderCentered(height int, content string) string {
	return lipgloss.Place(m.Width, height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderPermissionPrompt() string {
	title := m.pendingSave.DisplayTitle()
	modal := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Allow access to your GIF library?"),
		styles.SubtitleStyle.Render("Saving "+styles.Truncate(title, 40)),
		styles.SubtitleStyle.Render("needs permission to write to the local library."),
		"",
		styles.HelpKeyStyle.Render("[Y]")+styles.HelpDescStyle.Render(" Allow      ")+
			styles.HelpKeyStyle.Render("[N]")+styles.HelpDescStyle.Render(" Don't Allow"),
	)
	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}

// renderFooter renders the status on the left and key hints on the right
func (m Model) renderFooter() string {
	var left string
	if m.StatusMsg != "" {
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.DimStyle.Render(m.StatusMsg)
		}
	}

	right := m.renderHints()

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderHints() string {
	var hints [][2]string
	switch {
	case m.Mode == ModeDetail:
		hints = [][2]string{{"p", "play"}, {"s", "save"}, {"esc", "back"}}
	case m.Mode == ModeFilter:
		hints = [][2]string{{"enter", "apply"}, {"esc", "clear"}}
	case m.Focus == FocusResults:
		hints = [][2]string{{"enter", "details"}, {"p", "play"}, {"s", "save"}, {"/", "filter"}, {"tab", "search"}}
	default:
		hints = [][2]string{{"tab", "results"}, {"esc", "clear"}, {"ctrl+c", "quit"}}
	}

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, styles.HelpKeyStyle.Render(h[0])+" "+styles.HelpDescStyle.Render(h[1]))
	}
	return strings.Join(parts, "  ")
}
