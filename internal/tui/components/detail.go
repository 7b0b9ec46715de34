package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/gifterm/internal/domain"
	"github.com/mmcdole/gifterm/internal/tui/styles"
)

// Detail shows the metadata of one GIF in a scrollable pane
type Detail struct {
	viewport viewport.Model
	gif      domain.Gif
	hasGif   bool
}

// NewDetail creates an empty detail pane
func NewDetail() Detail {
	return Detail{viewport: viewport.New(0, 0)}
}

// SetGif replaces the GIF shown and scrolls to the top
func (d *Detail) SetGif(g domain.Gif) {
	d.gif = g
	d.hasGif = true
	d.viewport.SetContent(d.render())
	d.viewport.GotoTop()
}

// Gif returns the GIF shown
func (d Detail) Gif() (domain.Gif, bool) {
	return d.gif, d.hasGif
}

// SetSize updates the component dimensions
func (d *Detail) SetSize(width, height int) {
	d.viewport.Width = width
	d.viewport.Height = height
	if d.hasGif {
		d.viewport.SetContent(d.render())
	}
}

// Update forwards scroll keys to the viewport
func (d Detail) Update(msg tea.Msg) (Detail, tea.Cmd) {
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return d, cmd
}

// View renders the pane
func (d Detail) View() string {
	return d.viewport.View()
}

func (d Detail) render() string {
	g := d.gif
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render(styles.Truncate(g.DisplayTitle(), max(d.viewport.Width, 10))))
	b.WriteString("\n\n")

	field := func(label, value string) {
		b.WriteString(styles.LabelStyle.Render(label))
		b.WriteString(styles.SubtitleStyle.Render(value))
		b.WriteString("\n")
	}

	field("ID", g.ID)
	if w, h := g.Dimensions(); w > 0 && h > 0 {
		field("Size", fmt.Sprintf("%d×%d (%.2f:1)", w, h, g.AspectRatio()))
	} else {
		field("Size", "unknown")
	}
	creator := "Unknown"
	if g.Username != "" {
		creator = "@" + g.Username
	}
	field("Creator", creator)
	if g.Rating != "" {
		field("Rating", strings.ToUpper(g.Rating))
	}
	if v := g.Images.OriginalMP4; v != nil && v.Size > 0 {
		field("MP4", fmt.Sprintf("%.1f KB", float64(v.Size)/1024))
	}

	b.WriteString("\n")
	if g.PageURL != "" {
		field("Page", g.PageURL)
	}
	field("Media", g.MediaURL())
	field("Preview", g.Images.BestForGrid().URL)

	return b.String()
}
