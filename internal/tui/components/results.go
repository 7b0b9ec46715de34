package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/gifterm/internal/domain"
	"github.com/mmcdole/gifterm/internal/tui/styles"
)

// ResultList renders accumulated search results with a cursor.
// Rows keep provider order; narrowing only hides rows.
type ResultList struct {
	gifs       []domain.Gif
	visible    []int         // Indexes into gifs that pass the narrowing filter
	highlights map[int][]int // gifs index -> matched byte offsets in the title
	cursor     int           // Position in visible
	offset     int           // First rendered row
	width      int
	height     int
	focused    bool
	footer     string // Trailing row, e.g. a loading indicator
}

// NewResultList creates an empty result list
func NewResultList() ResultList {
	return ResultList{}
}

// SetItems replaces the rows. The selected GIF stays selected when it is
// still visible, so appended pages do not move the cursor.
func (l *ResultList) SetItems(gifs []domain.Gif, visible []int, highlights map[int][]int) {
	selectedID := ""
	if g, ok := l.Selected(); ok {
		selectedID = g.ID
	}

	l.gifs = gifs
	l.visible = visible
	l.highlights = highlights

	l.cursor = 0
	for pos, idx := range visible {
		if gifs[idx].ID == selectedID {
			l.cursor = pos
			break
		}
	}
	l.clampOffset()
}

// SetFooter sets the trailing row text; empty removes it
func (l *ResultList) SetFooter(footer string) {
	l.footer = footer
	l.clampOffset()
}

// SetSize updates the component dimensions
func (l *ResultList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.clampOffset()
}

// SetFocused toggles the cursor highlight
func (l *ResultList) SetFocused(focused bool) {
	l.focused = focused
}

// Len returns the number of visible rows
func (l ResultList) Len() int {
	return len(l.visible)
}

// Cursor returns the cursor position among visible rows
func (l ResultList) Cursor() int {
	return l.cursor
}

// Selected returns the GIF under the cursor
func (l ResultList) Selected() (domain.Gif, bool) {
	if l.cursor < 0 || l.cursor >= len(l.visible) {
		return domain.Gif{}, false
	}
	return l.gifs[l.visible[l.cursor]], true
}

// NearEnd reports whether the cursor is within threshold rows of the last row
func (l ResultList) NearEnd(threshold int) bool {
	return len(l.visible) > 0 && l.cursor >= len(l.visible)-1-threshold
}

func (l *ResultList) MoveUp()   { l.moveTo(l.cursor - 1) }
func (l *ResultList) MoveDown() { l.moveTo(l.cursor + 1) }
func (l *ResultList) PageUp()   { l.moveTo(l.cursor - l.pageSize()) }
func (l *ResultList) PageDown() { l.moveTo(l.cursor + l.pageSize()) }
func (l *ResultList) Top()      { l.moveTo(0) }
func (l *ResultList) Bottom()   { l.moveTo(len(l.visible) - 1) }

func (l *ResultList) moveTo(pos int) {
	if len(l.visible) == 0 {
		l.cursor = 0
		return
	}
	l.cursor = max(0, min(pos, len(l.visible)-1))
	l.clampOffset()
}

func (l ResultList) pageSize() int {
	return max(1, l.rows()/2)
}

// rows is the number of result rows that fit, leaving room for the footer
func (l ResultList) rows() int {
	if l.footer != "" {
		return max(1, l.height-1)
	}
	return max(1, l.height)
}

func (l *ResultList) clampOffset() {
	if l.cursor >= len(l.visible) {
		l.cursor = max(0, len(l.visible)-1)
	}
	rows := l.rows()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+rows {
		l.offset = l.cursor - rows + 1
	}
	if l.offset > max(0, len(l.visible)-rows) {
		l.offset = max(0, len(l.visible)-rows)
	}
}

// View renders the visible window of rows
func (l ResultList) View() string {
	var b strings.Builder
	end := min(len(l.visible), l.offset+l.rows())
	for pos := l.offset; pos < end; pos++ {
		idx := l.visible[pos]
		b.WriteString(l.renderRow(l.gifs[idx], l.highlights[idx], l.focused && pos == l.cursor))
		b.WriteString("\n")
	}
	if l.footer != "" {
		b.WriteString(" ")
		b.WriteString(l.footer)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (l ResultList) renderRow(g domain.Gif, matched []int, selected bool) string {
	marker := "  "
	if selected {
		marker = styles.AccentStyle.Render("▸ ")
	}

	var meta []string
	if w, h := g.Dimensions(); w > 0 && h > 0 {
		meta = append(meta, fmt.Sprintf("%d×%d", w, h))
	}
	if g.Username != "" {
		meta = append(meta, "@"+g.Username)
	}
	metaText := styles.DimStyle.Render(strings.Join(meta, "  "))
	badge := styles.RatingBadge(g.Rating)

	titleWidth := l.width - lipgloss.Width(metaText) - lipgloss.Width(badge) - 6
	title := styles.Truncate(g.DisplayTitle(), max(titleWidth, 8))

	row := marker + HighlightMatches(title, matched, selected)
	if badge != "" {
		row += " " + badge
	}
	if metaText != "" {
		row += "  " + metaText
	}
	return row
}

// HighlightMatches renders text with the bytes at matched offsets emphasized
func HighlightMatches(text string, matched []int, selected bool) string {
	normal, emphasis := styles.NormalItemStyle, styles.MatchStyle
	if selected {
		normal, emphasis = styles.SelectedItemStyle, styles.MatchSelectedStyle
	}
	if len(matched) == 0 {
		return normal.Render(text)
	}

	set := make(map[int]bool, len(matched))
	for _, i := range matched {
		set[i] = true
	}

	var out, run strings.Builder
	runMatched := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if runMatched {
			out.WriteString(emphasis.Render(run.String()))
		} else {
			out.WriteString(normal.Render(run.String()))
		}
		run.Reset()
	}
	for i, r := range text {
		if set[i] != runMatched {
			flush()
			runMatched = set[i]
		}
		run.WriteRune(r)
	}
	flush()
	return out.String()
}
