package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/ui"
)

// playingNow is how many head items are shown as currently being played.
const playingNow = 3

// listItem adapts a backlog item to bubbles/list.Item.
type listItem struct {
	item model.BacklogItem
	pos  int // 0-based position in the full backlog
}

func (i listItem) Title() string       { return i.item.Game.Title }
func (i listItem) Description() string { return i.item.Game.Developer }
func (i listItem) FilterValue() string { return i.item.Game.Title }

// itemDelegate renders one line per item: position, title, developer, hours.
type itemDelegate struct{}

func (d itemDelegate) Height() int                         { return 1 }
func (d itemDelegate) Spacing() int                        { return 0 }
func (d itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	it, ok := li.(listItem)
	if !ok {
		return
	}
	t := ui.Current()

	marker := " "
	if it.pos < playingNow {
		marker = t.Accent.Render(t.SymPlaying)
	}
	title := it.item.Game.Title
	if it.item.Replaying {
		title += t.Pending.Render(" (replaying)")
	}
	meta := it.item.Game.Developer
	if h := it.item.Game.HoursToBeat; h > 0 {
		if meta != "" {
			meta += " · "
		}
		meta += fmt.Sprintf("~%.0fh", h)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %2d. %s  %s\n", prefix, marker, it.pos+1, title, t.Muted.Render(meta))
}
