package model

// SteamGame is one entry of a user's public Steam library.
type SteamGame struct {
	SteamID     int64   `json:"steamId"`
	Title       string  `json:"titulo"`
	HoursPlayed float64 `json:"horasJogadas"`
	IconURL     string  `json:"iconeUrl,omitempty"`
}

func (g SteamGame) Validate() error {
	if g.SteamID <= 0 {
		return invalid("steam game: missing steam id")
	}
	return nil
}

type SteamImportGame struct {
	SteamID     int64   `json:"steamId"`
	HoursPlayed float64 `json:"horasJogadas"`
	IconURL     *string `json:"iconeUrl"`
}

type SteamImport struct {
	UserID int64             `json:"usuarioId"`
	Games  []SteamImportGame `json:"jogos"`
}

// ImportOf builds the batch payload for the selected steam ids. Ids missing
// from library are still sent with zero hours and no icon.
func ImportOf(userID int64, library []SteamGame, selected []int64) SteamImport {
	byID := make(map[int64]SteamGame, len(library))
	for _, g := range library {
		byID[g.SteamID] = g
	}
	out := SteamImport{UserID: userID, Games: make([]SteamImportGame, 0, len(selected))}
	for _, id := range selected {
		g := SteamImportGame{SteamID: id}
		if src, ok := byID[id]; ok {
			g.HoursPlayed = src.HoursPlayed
			if src.IconURL != "" {
				icon := src.IconURL
				g.IconURL = &icon
			}
		}
		out.Games = append(out.Games, g)
	}
	return out
}
