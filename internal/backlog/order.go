package backlog

import (
	"sort"
	"strings"

	"github.com/idilsaglam/backlog/internal/model"
)

// Move removes the element at from and reinserts it at to, shifting the elements
// in between by one. to is clamped to the valid range. The input is not modified.
func Move[T any](s []T, from, to int) []T {
	out := make([]T, len(s))
	copy(out, s)
	if from < 0 || from >= len(s) {
		return out
	}
	to = clamp(to, 0, len(s)-1)
	if from == to {
		return out
	}
	v := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = v
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Partition splits a fetched backlog into the ranked active list and the history
// (finished, not replaying) with the most recent first.
func Partition(items []model.BacklogItem) (active, history []model.BacklogItem) {
	for _, it := range items {
		if it.Active() {
			active = append(active, it)
		} else {
			history = append(history, it)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].OrderRank != active[j].OrderRank {
			return active[i].OrderRank < active[j].OrderRank
		}
		return active[i].ID < active[j].ID
	})
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return active, history
}

// Matches reports whether the game title contains query, ignoring case.
// An empty query matches everything.
func Matches(title, query string) bool {
	q := strings.TrimSpace(query)
	return q == "" || strings.Contains(strings.ToLower(title), strings.ToLower(q))
}

// FilterGames returns the catalog entries whose title matches query.
func FilterGames(games []model.Game, query string) []model.Game {
	out := make([]model.Game, 0, len(games))
	for _, g := range games {
		if Matches(g.Title, query) {
			out = append(out, g)
		}
	}
	return out
}

func ids(items []model.BacklogItem) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func indexOf(items []model.BacklogItem, id int64) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
