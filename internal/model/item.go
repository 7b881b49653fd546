package model

import (
	"errors"
	"fmt"
)

// ErrInvalid marks a payload that decoded but is missing required fields.
var ErrInvalid = errors.New("invalid payload")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Game is a catalog entry.
type Game struct {
	ID          int64    `json:"id"`
	Title       string   `json:"titulo"`
	Icon        string   `json:"icone,omitempty"`
	ReleaseDate string   `json:"dataLancamento,omitempty"`
	Developer   string   `json:"desenvolvedora,omitempty"`
	Publisher   string   `json:"distribuidora,omitempty"`
	HoursToBeat float64  `json:"horasParaZerar"`
	Synopsis    string   `json:"sinopse,omitempty"`
	Genres      []string `json:"generos,omitempty"`
}

func (g Game) Validate() error {
	if g.Title == "" {
		return invalid("game %d: missing title", g.ID)
	}
	if g.HoursToBeat < 0 {
		return invalid("game %d: negative hours to beat", g.ID)
	}
	return nil
}

// BacklogItem is a user's association with a catalog game plus personal progress.
// OrderRank is assigned by the backend and only changes through a reorder.
type BacklogItem struct {
	ID            int64   `json:"id"`
	GameID        int64   `json:"jogoId,omitempty"`
	UserID        int64   `json:"usuarioId,omitempty"`
	OrderRank     int     `json:"ordemId"`
	Finished      bool    `json:"finalizado"`
	Replaying     bool    `json:"rejogando"`
	HoursPlayed   float64 `json:"horasJogadas"`
	TimesFinished int     `json:"vezesFinalizado"`
	Game          Game    `json:"jogo"`
}

// Active reports whether the item belongs to the ranked backlog.
func (i BacklogItem) Active() bool { return !i.Finished || i.Replaying }

func (i BacklogItem) Validate() error {
	if i.ID <= 0 {
		return invalid("backlog item: missing id")
	}
	if i.HoursPlayed < 0 || i.TimesFinished < 0 {
		return invalid("backlog item %d: negative progress", i.ID)
	}
	if err := i.Game.Validate(); err != nil {
		return fmt.Errorf("backlog item %d: %w", i.ID, err)
	}
	return nil
}

// NewBacklogItem is the creation payload. New items enter at rank 1 with zero progress.
type NewBacklogItem struct {
	GameID        int64   `json:"jogoId"`
	UserID        int64   `json:"usuarioId"`
	OrderRank     int     `json:"ordemId"`
	Finished      bool    `json:"finalizado"`
	Replaying     bool    `json:"rejogando"`
	HoursPlayed   float64 `json:"horasJogadas"`
	TimesFinished int     `json:"vezesFinalizado"`
}

// ItemUpdate is the full-replace payload for a backlog item.
type ItemUpdate struct {
	ID            int64   `json:"id"`
	GameID        int64   `json:"jogoId"`
	UserID        int64   `json:"usuarioId"`
	OrderRank     int     `json:"ordemId"`
	Finished      bool    `json:"finalizado"`
	Replaying     bool    `json:"rejogando"`
	HoursPlayed   float64 `json:"horasJogadas"`
	TimesFinished int     `json:"vezesFinalizado"`
}

// UpdateOf copies the mutable fields of it into an update payload.
func UpdateOf(it BacklogItem) ItemUpdate {
	return ItemUpdate{
		ID:            it.ID,
		GameID:        it.GameID,
		UserID:        it.UserID,
		OrderRank:     it.OrderRank,
		Finished:      it.Finished,
		Replaying:     it.Replaying,
		HoursPlayed:   it.HoursPlayed,
		TimesFinished: it.TimesFinished,
	}
}

// ReorderRequest carries the full ordered id list; the backend assigns ranks.
type ReorderRequest struct {
	ItemIDs []int64 `json:"itemIds"`
}
