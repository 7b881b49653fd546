// Package tui is the interactive backlog screen. Moving an item shows the new
// order right away and saves it in the background; a failed save replaces the
// list with the order the backend reports.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/idilsaglam/backlog/internal/backlog"
	"github.com/idilsaglam/backlog/internal/logging"
	"github.com/idilsaglam/backlog/internal/ui"
	"go.uber.org/zap"
)

type (
	loadedMsg       struct{ err error }
	persistDoneMsg  struct{ err error }
	sessionEndedMsg struct{}
)

const (
	statusSaveFailed = "failed to save order"
	statusReloadBusy = "saving, reload when done"
)

// Model is the Bubble Tea model for one user's backlog.
type Model struct {
	ctx     context.Context
	backlog *backlog.List
	log     *logging.Logger
	list    list.Model
	keys    keyMap
	ended   <-chan struct{}

	name      string
	status    string
	statusErr bool
	saving    bool
	quitting  bool
}

// New builds the model. The list should already be loaded.
func New(ctx context.Context, bl *backlog.List, displayName string, log *logging.Logger) Model {
	if log == nil {
		log = logging.NewNop()
	}
	keys := newKeyMap()
	t := ui.Current()

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = t.Title
	l.Styles.HelpStyle = t.Muted
	l.Styles.PaginationStyle = t.Muted
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("game", "games")
	l.KeyMap.Quit.SetEnabled(false)
	l.AdditionalShortHelpKeys = keys.help
	l.AdditionalFullHelpKeys = keys.help

	m := Model{
		ctx:     ctx,
		backlog: bl,
		log:     log.Named("tui"),
		list:    l,
		keys:    keys,
		name:    displayName,
	}
	m.refresh(-1)
	return m
}

// WithSessionEnd makes the program quit once ended is closed, for example when
// the user logs out from another terminal.
func (m Model) WithSessionEnd(ended <-chan struct{}) Model {
	m.ended = ended
	return m
}

func (m Model) Init() tea.Cmd {
	if m.ended == nil {
		return nil
	}
	ended, ctx := m.ended, m.ctx
	return func() tea.Msg {
		select {
		case <-ended:
			return sessionEndedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-4)
		return m, nil

	case persistDoneMsg:
		m.saving = false
		if msg.err != nil {
			m.log.Warn(m.ctx, "reorder not saved", zap.Error(msg.err))
			m.setStatus(statusSaveFailed, true)
		} else {
			m.setStatus("order saved", false)
		}
		return m, m.refresh(m.selectedID())

	case sessionEndedMsg:
		m.quitting = true
		m.backlog.Close()
		return m, tea.Quit

	case loadedMsg:
		if errors.Is(msg.err, backlog.ErrSaveInFlight) {
			m.setStatus(statusReloadBusy, false)
			return m, nil
		}
		if msg.err != nil {
			m.setStatus("could not load backlog", true)
			return m, nil
		}
		m.setStatus("", false)
		return m, m.refresh(m.selectedID())

	case tea.KeyMsg:
		// while typing a filter every key belongs to the filter input
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.backlog.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			return m, m.move(m.list.Index() - 1)
		case key.Matches(msg, m.keys.Down):
			return m, m.move(m.list.Index() + 1)
		case key.Matches(msg, m.keys.Top):
			return m, m.move(0)
		case key.Matches(msg, m.keys.Reload):
			if m.saving {
				m.setStatus(statusReloadBusy, false)
				return m, nil
			}
			m.setStatus("reloading…", false)
			return m, m.load()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.syncFilter()
	return m, cmd
}

// move reorders the selected item to position to. The new order is shown before
// the save completes.
func (m *Model) move(to int) tea.Cmd {
	sel, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return nil
	}
	if m.backlog.Filtering() {
		m.setStatus("clear the filter to reorder", true)
		return nil
	}
	schedule, err := m.backlog.Reorder(sel.item.ID, m.list.Index(), to)
	if err != nil {
		m.log.Warn(m.ctx, "reorder rejected", zap.Error(err))
		return m.refresh(sel.item.ID)
	}
	if !schedule {
		return m.refresh(sel.item.ID)
	}
	m.saving = true
	m.setStatus("", false)
	return tea.Batch(m.refresh(sel.item.ID), m.persist())
}

func (m Model) persist() tea.Cmd {
	bl, ctx := m.backlog, m.ctx
	return func() tea.Msg {
		return persistDoneMsg{err: bl.Persist(ctx)}
	}
}

func (m Model) load() tea.Cmd {
	bl, ctx := m.backlog, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: bl.Load(ctx)}
	}
}

// refresh redraws the list from the backlog and keeps the selection on keepID.
func (m *Model) refresh(keepID int64) tea.Cmd {
	items := m.backlog.Items()
	out := make([]list.Item, len(items))
	sel := 0
	for i, it := range items {
		out[i] = listItem{item: it, pos: i}
		if it.ID == keepID {
			sel = i
		}
	}
	cmd := m.list.SetItems(out)
	if m.list.FilterState() == list.Unfiltered {
		m.list.Select(sel)
	}
	m.list.Title = m.title(len(items))
	return cmd
}

func (m *Model) syncFilter() {
	if m.list.FilterState() == list.Unfiltered {
		m.backlog.SetFilter("")
		return
	}
	m.backlog.SetFilter(m.list.FilterValue())
}

func (m Model) selectedID() int64 {
	if sel, ok := m.list.SelectedItem().(listItem); ok {
		return sel.item.ID
	}
	return -1
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

func (m Model) title(total int) string {
	t := ui.Current()
	head := "Backlog"
	if m.name != "" {
		head = m.name + "'s backlog"
	}
	s := fmt.Sprintf("%s   %s %d  %s %d", t.Title.Render(head),
		t.Accent.Render(t.SymPlaying), min(playingNow, total),
		t.Muted.Render("Total"), total)
	if m.saving {
		s += "  " + t.Pending.Render("saving…")
	}
	return s
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	content := m.list.View()
	if m.status != "" {
		t := ui.Current()
		style := t.Success
		if m.statusErr {
			style = t.Error
		}
		content += "\n" + style.Render(m.status)
	}
	return ui.Panel([]string{content})
}

// Status returns the current status line.
func (m Model) Status() string { return m.status }

// Run starts the program and blocks until the user quits.
// A nil ended channel never ends the session.
func Run(ctx context.Context, bl *backlog.List, displayName string, log *logging.Logger, ended <-chan struct{}) error {
	m := New(ctx, bl, displayName, log).WithSessionEnd(ended)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
