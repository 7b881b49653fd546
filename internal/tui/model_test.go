package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/idilsaglam/backlog/internal/backlog"
	"github.com/idilsaglam/backlog/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu         sync.Mutex
	items      []model.BacklogItem
	reorders   [][]int64
	reorderErr error
}

func (f *fakeBackend) ListBacklog(context.Context, int64) ([]model.BacklogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.BacklogItem(nil), f.items...), nil
}

func (f *fakeBackend) ReorderBacklog(_ context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reorders = append(f.reorders, ids)
	return f.reorderErr
}

func newTestModel(t *testing.T, be *fakeBackend) (Model, *backlog.List) {
	t.Helper()
	if be.items == nil {
		for i, title := range []string{"Hades", "Celeste", "Outer Wilds", "Tunic"} {
			id := int64(i + 1)
			be.items = append(be.items, model.BacklogItem{ID: id, OrderRank: i + 1, Game: model.Game{ID: id, Title: title}})
		}
	}
	bl := backlog.NewList(be, 1, nil)
	require.NoError(t, bl.Load(context.Background()))
	m := New(context.Background(), bl, "Ana", nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model), bl
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// drain runs cmd and any batched commands, returning the messages of interest.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, drain(c)...)
		}
		return out
	case persistDoneMsg, loadedMsg:
		return []tea.Msg{msg}
	}
	return nil
}

func shownTitles(m Model) []string {
	var out []string
	for _, li := range m.list.Items() {
		out = append(out, li.(listItem).item.Game.Title)
	}
	return out
}

func TestModel_MoveDownShowsOrderBeforeSave(t *testing.T) {
	be := &fakeBackend{}
	m, bl := newTestModel(t, be)

	m, cmd := press(t, m, runes("J"))
	require.NotNil(t, cmd)
	assert.Equal(t, []string{"Celeste", "Hades", "Outer Wilds", "Tunic"}, shownTitles(m))
	assert.Equal(t, 1, m.list.Index(), "selection follows the moved item")
	assert.Equal(t, backlog.Pending, bl.State())
	assert.Empty(t, be.reorders)

	msgs := drain(cmd)
	require.Len(t, msgs, 1)
	next, _ := m.Update(msgs[0])
	m = next.(Model)

	assert.Equal(t, "order saved", m.Status())
	assert.Equal(t, [][]int64{{2, 1, 3, 4}}, be.reorders)
	assert.Equal(t, backlog.Stable, bl.State())
}

func TestModel_FailedSaveShowsBackendOrder(t *testing.T) {
	be := &fakeBackend{reorderErr: errors.New("500")}
	m, _ := newTestModel(t, be)
	m.list.Select(2)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyShiftUp})
	assert.Equal(t, []string{"Hades", "Outer Wilds", "Celeste", "Tunic"}, shownTitles(m))

	msgs := drain(cmd)
	require.Len(t, msgs, 1)
	next, _ := m.Update(msgs[0])
	m = next.(Model)

	assert.Equal(t, statusSaveFailed, m.Status())
	assert.Equal(t, []string{"Hades", "Celeste", "Outer Wilds", "Tunic"}, shownTitles(m))
	assert.Contains(t, m.View(), statusSaveFailed)
}

func TestModel_MoveToTop(t *testing.T) {
	be := &fakeBackend{}
	m, _ := newTestModel(t, be)
	m.list.Select(3)

	m, cmd := press(t, m, runes("T"))
	assert.Equal(t, []string{"Tunic", "Hades", "Celeste", "Outer Wilds"}, shownTitles(m))
	assert.Equal(t, 0, m.list.Index())
	drain(cmd)
	assert.Equal(t, [][]int64{{4, 1, 2, 3}}, be.reorders)
}

func TestModel_MoveAtEdgeIsNoop(t *testing.T) {
	be := &fakeBackend{}
	m, bl := newTestModel(t, be)

	m, cmd := press(t, m, runes("K"))
	assert.Empty(t, drain(cmd))
	assert.Equal(t, []string{"Hades", "Celeste", "Outer Wilds", "Tunic"}, shownTitles(m))
	assert.Equal(t, backlog.Stable, bl.State())
}

func TestModel_NoReorderWhileFiltering(t *testing.T) {
	be := &fakeBackend{}
	m, bl := newTestModel(t, be)

	m, _ = press(t, m, runes("/"))
	require.Equal(t, list.Filtering, m.list.FilterState())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftDown})
	assert.Equal(t, []string{"Hades", "Celeste", "Outer Wilds", "Tunic"}, titles(bl.Items()))
	assert.Empty(t, be.reorders)
}

func TestModel_Reload(t *testing.T) {
	be := &fakeBackend{}
	m, _ := newTestModel(t, be)

	be.mu.Lock()
	be.items = be.items[:2]
	be.mu.Unlock()

	m, cmd := press(t, m, runes("r"))
	msgs := drain(cmd)
	require.Len(t, msgs, 1)
	next, _ := m.Update(msgs[0])
	m = next.(Model)
	assert.Equal(t, []string{"Hades", "Celeste"}, shownTitles(m))
}

func TestModel_ReloadIgnoredWhileSaving(t *testing.T) {
	be := &fakeBackend{}
	m, bl := newTestModel(t, be)

	m, saveCmd := press(t, m, runes("J"))
	require.True(t, m.saving)

	m, cmd := press(t, m, runes("r"))
	assert.Nil(t, cmd)
	assert.Equal(t, statusReloadBusy, m.Status())
	assert.Equal(t, []string{"Celeste", "Hades", "Outer Wilds", "Tunic"}, shownTitles(m))
	assert.Equal(t, backlog.Pending, bl.State())

	msgs := drain(saveCmd)
	require.Len(t, msgs, 1)
	next, _ := m.Update(msgs[0])
	m = next.(Model)
	assert.Equal(t, [][]int64{{2, 1, 3, 4}}, be.reorders)
	assert.Equal(t, []string{"Celeste", "Hades", "Outer Wilds", "Tunic"}, shownTitles(m))
}

func TestModel_QuitClosesList(t *testing.T) {
	be := &fakeBackend{}
	m, bl := newTestModel(t, be)

	m, cmd := press(t, m, runes("q"))
	assert.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())

	schedule, err := bl.Reorder(1, 0, 2)
	require.NoError(t, err)
	assert.False(t, schedule)
}

func TestModel_TitleCounts(t *testing.T) {
	m, _ := newTestModel(t, &fakeBackend{})
	assert.Contains(t, m.list.Title, "Ana's backlog")
	assert.Contains(t, m.list.Title, "Total")
	assert.Contains(t, m.View(), "Outer Wilds")
}

func titles(items []model.BacklogItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Game.Title
	}
	return out
}

func TestModel_QuitsWhenSessionEnds(t *testing.T) {
	m, bl := newTestModel(t, &fakeBackend{})
	ended := make(chan struct{})
	m = m.WithSessionEnd(ended)

	cmd := m.Init()
	require.NotNil(t, cmd)
	close(ended)
	msg := cmd()
	require.IsType(t, sessionEndedMsg{}, msg)

	next, quit := m.Update(msg)
	assert.NotNil(t, quit)
	assert.True(t, next.(Model).quitting)
	schedule, _ := bl.Reorder(1, 0, 1)
	assert.False(t, schedule, "list closed")
}

func TestModel_InitWithoutSessionEnd(t *testing.T) {
	m, _ := newTestModel(t, &fakeBackend{})
	assert.Nil(t, m.Init())
}
