package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/idilsaglam/backlog/internal/config"
	"github.com/idilsaglam/backlog/internal/logging"
	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/session"
	"github.com/idilsaglam/backlog/internal/store/jsonstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer is an in-memory backend for one user (id 1).
type fakeServer struct {
	t   *testing.T
	srv *httptest.Server

	mu            sync.Mutex
	items         []model.BacklogItem
	reorders      [][]int64
	reorderStatus int
	userLookups   int
	added         []model.NewBacklogItem
}

func newFakeServer(t *testing.T) *fakeServer {
	f := &fakeServer{t: t}
	for i, title := range []string{"Hades", "Celeste", "Outer Wilds"} {
		id := int64(i + 1)
		f.items = append(f.items, model.BacklogItem{ID: id, UserID: 1, GameID: id, OrderRank: i + 1,
			Game: model.Game{ID: id, Title: title, HoursToBeat: 20}})
	}
	done := model.BacklogItem{ID: 9, UserID: 1, Finished: true, TimesFinished: 2, Game: model.Game{ID: 9, Title: "Portal"}}
	f.items = append(f.items, done)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/Login/login", f.login)
	mux.HandleFunc("GET /api/Usuario/{id}", f.getUser)
	mux.HandleFunc("GET /api/ItemBacklog", f.listItems)
	mux.HandleFunc("POST /api/ItemBacklog", f.addItem)
	mux.HandleFunc("PATCH /api/ItemBacklog/reorder", f.reorder)
	mux.HandleFunc("GET /api/Jogo", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []model.Game{{ID: 1, Title: "Hades"}, {ID: 5, Title: "Hollow Knight", Developer: "Team Cherry"}})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

var ana = model.User{ID: 1, Name: "Ana", Email: "ana@example.com", SteamID: "7656"}

func (f *fakeServer) login(w http.ResponseWriter, r *http.Request) {
	var c model.Credentials
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&c))
	if c.Email != "ana@example.com" || c.Password != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `"Email ou senha inválidos."`)
		return
	}
	writeJSON(w, ana)
}

func (f *fakeServer) getUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.userLookups++
	f.mu.Unlock()
	if r.PathValue("id") != "1" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, ana)
}

func (f *fakeServer) listItems(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, f.items)
}

func (f *fakeServer) addItem(w http.ResponseWriter, r *http.Request) {
	var it model.NewBacklogItem
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&it))
	f.mu.Lock()
	f.added = append(f.added, it)
	f.mu.Unlock()
	w.WriteHeader(http.StatusCreated)
}

func (f *fakeServer) reorder(w http.ResponseWriter, r *http.Request) {
	var req model.ReorderRequest
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reorders = append(f.reorders, req.ItemIDs)
	if f.reorderStatus != 0 {
		w.WriteHeader(f.reorderStatus)
		return
	}
	rank := map[int64]int{}
	for i, id := range req.ItemIDs {
		rank[id] = i + 1
	}
	for i := range f.items {
		if r, ok := rank[f.items[i].ID]; ok {
			f.items[i].OrderRank = r
		}
	}
	sort.SliceStable(f.items, func(i, j int) bool { return f.items[i].OrderRank < f.items[j].OrderRank })
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeServer) reorderCalls() [][]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reorders
}

func (f *fakeServer) lookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userLookups
}

type harness struct {
	srv   *fakeServer
	store *jsonstore.MemoryStore
}

func newHarness(t *testing.T) *harness {
	return &harness{srv: newFakeServer(t), store: jsonstore.NewMemoryStore()}
}

func (h *harness) run(stdin string, args ...string) (int, string, string) {
	cfg := config.Default()
	cfg.API.BaseURL = h.srv.srv.URL
	cfg.API.MaxAttempts = 1

	var out, errOut bytes.Buffer
	code := Run(context.Background(), args, Options{
		Config: cfg,
		Store:  h.store,
		Logger: logging.NewNop(),
		In:     strings.NewReader(stdin),
		Out:    &out,
		Err:    &errOut,
	})
	return code, out.String(), errOut.String()
}

func (h *harness) login(t *testing.T, persist bool) {
	t.Helper()
	err := session.New(h.store, nil, nil).Save(context.Background(), model.SessionOf(ana, persist))
	require.NoError(t, err)
}

func TestLogin_StayThenStatus(t *testing.T) {
	h := newHarness(t)

	code, out, errOut := h.run("", "login", "--email", " ANA@example.com ", "--password", "secret", "--stay")
	require.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, "logged in as Ana")

	code, out, _ = h.run("", "status")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "user: Ana (id 1)")
	assert.Contains(t, out, "stay logged in: true")
}

func TestLogin_PromptsForMissingFields(t *testing.T) {
	h := newHarness(t)

	code, out, errOut := h.run("ana@example.com\nsecret\n", "login")
	require.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, "Email: ")
	assert.Contains(t, out, "Password: ")
}

func TestLogin_ShowsBackendMessage(t *testing.T) {
	h := newHarness(t)

	code, _, errOut := h.run("", "login", "--email", "ana@example.com", "--password", "nope")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut, "Email ou senha inválidos.")
	assert.Zero(t, h.store.Len())
}

func TestLogin_EmptyFieldsIsUsage(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("", "login", "--email", "  ", "--password", "x")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "email and password are required")
}

func TestRoot_WithoutStayFlagDoesNotCallBackend(t *testing.T) {
	h := newHarness(t)
	h.login(t, false)

	code, out, _ := h.run("")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "not logged in")
	assert.Zero(t, h.srv.lookups())
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.login(t, true)

	code, out, _ := h.run("", "logout")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "logged out")
	assert.Zero(t, h.store.Len())
}

func TestList_RequiresSession(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("", "ls", "--plain")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "not logged in")
}

func TestList_PlainAndGrouped(t *testing.T) {
	h := newHarness(t)
	h.login(t, false)

	code, out, _ := h.run("", "ls", "--plain")
	require.Equal(t, ExitOK, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, "finished items are not listed")
	assert.Contains(t, lines[0], "1. Hades")
	assert.Contains(t, lines[2], "3. Outer Wilds")

	code, out, _ = h.run("", "ls", "--group")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Playing now")
}

func TestMove(t *testing.T) {
	h := newHarness(t)
	h.login(t, false)

	code, out, errOut := h.run("", "move", "3", "1")
	require.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, "moved")
	assert.Equal(t, [][]int64{{3, 1, 2}}, h.srv.reorderCalls())

	code, out, _ = h.run("", "ls", "--plain")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, strings.Split(out, "\n")[0], "Outer Wilds")
}

func TestMove_SamePositionSendsNothing(t *testing.T) {
	h := newHarness(t)
	h.login(t, false)

	code, out, _ := h.run("", "move", "2", "2")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "already there")
	assert.Empty(t, h.srv.reorderCalls())
}

func TestMove_FailureReportsAndShowsBackendOrder(t *testing.T) {
	h := newHarness(t)
	h.login(t, false)
	h.srv.mu.Lock()
	h.srv.reorderStatus = http.StatusInternalServerError
	h.srv.mu.Unlock()

	code, out, errOut := h.run("", "move", "3", "1")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut, "failed to save order")
	assert.Contains(t, strings.Split(out, "\n")[0], "Hades", "order reconciled with the backend")
}

func TestMove_BadArguments(t *testing.T) {
	h := newHarness(t)
	h.login(t, false)

	tests := [][]string{
		{"move", "3"},
		{"move", "x", "1"},
		{"move", "3", "0"},
		{"move", "42", "1"},
	}
	for _, args := range tests {
		code, _, _ := h.run("", args...)
		assert.Equal(t, ExitUsage, code, args)
	}
	assert.Empty(t, h.srv.reorderCalls())
}

func TestHistory(t *testing.T) {
	h := newHarness(t)
	h.login(t, false)

	code, out, _ := h.run("", "history")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Portal")
	assert.Contains(t, out, "finished 2 times")
	assert.Contains(t, out, "] 1/4")
	assert.NotContains(t, out, "Hades")
}

func TestCatalogAndAdd(t *testing.T) {
	h := newHarness(t)
	h.login(t, false)

	code, out, _ := h.run("", "catalog", "hollow")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Hollow Knight")
	assert.NotContains(t, out, "Hades")

	code, out, _ = h.run("", "add", "5")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "added")
	require.Len(t, h.srv.added, 1)
	assert.Equal(t, model.NewBacklogItem{GameID: 5, UserID: 1, OrderRank: 1}, h.srv.added[0])
}

func TestRegister_ValidationIsUsage(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("", "register", "--name", "Ana", "--email", "a@b.c", "--password", "pw", "--birth", "23/04/1999")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "birth date")
}

func TestUnknownCommandIsUsage(t *testing.T) {
	h := newHarness(t)
	code, _, _ := h.run("", "frobnicate")
	assert.Equal(t, ExitUsage, code)

	code, _, _ = h.run("", "ls", "--nope")
	assert.Equal(t, ExitUsage, code)
}

func TestPrompt_PasswordsUseMaskedTerminalInput(t *testing.T) {
	var out bytes.Buffer
	a := newApp(Options{In: strings.NewReader("typed\n"), Out: &out})
	asked := map[string]bool{}
	a.term = func(label string, secret bool) (string, error) {
		asked[label] = secret
		return "from-terminal", nil
	}

	v, err := a.promptSecret("Password", "")
	require.NoError(t, err)
	assert.Equal(t, "from-terminal", v)
	_, err = a.prompt("Email", "")
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"Password": true, "Email": false}, asked)
	assert.Empty(t, out.String(), "nothing echoed to the output")
}

func TestPrompt_PipedInputReadsLines(t *testing.T) {
	var out bytes.Buffer
	a := newApp(Options{In: strings.NewReader("secret\n"), Out: &out})
	require.Nil(t, a.term)

	v, err := a.promptSecret("Password", "")
	require.NoError(t, err)
	assert.Equal(t, "secret", v)
	assert.Equal(t, "Password: ", out.String())
}
