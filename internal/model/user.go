package model

import "strings"

type Gender int

const (
	GenderMale Gender = iota
	GenderFemale
	GenderOther
)

func (g Gender) Valid() bool { return g >= GenderMale && g <= GenderOther }

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	case GenderOther:
		return "other"
	}
	return "not informed"
}

// User is the backend's detailed user record.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"nome"`
	Email        string `json:"email,omitempty"`
	BirthDate    string `json:"dataNascimento,omitempty"`
	Gender       Gender `json:"genero"`
	Phone        string `json:"telefone,omitempty"`
	SteamID      string `json:"steamId,omitempty"`
	ProfileImage string `json:"imagemPerfil,omitempty"`
}

func (u User) Validate() error {
	if u.ID <= 0 {
		return invalid("user: missing id")
	}
	if strings.TrimSpace(u.Name) == "" {
		return invalid("user %d: missing name", u.ID)
	}
	return nil
}

// BirthDay returns the date part of BirthDate formatted dd/mm/yyyy, or "-".
func (u User) BirthDay() string {
	d, _, _ := strings.Cut(u.BirthDate, "T")
	parts := strings.Split(d, "-")
	if len(parts) != 3 {
		return "-"
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

type NewUser struct {
	Name         string `json:"nome"`
	Email        string `json:"email"`
	Password     string `json:"senha"`
	BirthDate    string `json:"dataNascimento"`
	Gender       Gender `json:"genero"`
	Phone        string `json:"telefone,omitempty"`
	SteamID      string `json:"steamId,omitempty"`
	ProfileImage string `json:"imagemPerfil,omitempty"`
}

type ProfileUpdate struct {
	Name         string `json:"nome"`
	Phone        string `json:"telefone"`
	SteamID      string `json:"steamId"`
	ProfileImage string `json:"imagemPerfil"`
}

type PasswordChange struct {
	Current string `json:"senhaAtual"`
	New     string `json:"novaSenha"`
}

// PhotoUpload is the response of a profile picture upload.
type PhotoUpload struct {
	URL string `json:"url"`
}

func (p PhotoUpload) Validate() error {
	if p.URL == "" {
		return invalid("photo upload: missing url")
	}
	return nil
}

// Session is the locally cached identity of the logged in user.
// PersistLogin is stored under its own key, never inside the serialized value.
type Session struct {
	UserID       int64  `json:"id"`
	DisplayName  string `json:"nome"`
	PersistLogin bool   `json:"-"`
}

func (s Session) Validate() error {
	if s.UserID <= 0 {
		return invalid("session: missing user id")
	}
	return nil
}

// SessionOf copies the identity fields of u.
func SessionOf(u User, persist bool) Session {
	return Session{UserID: u.ID, DisplayName: u.Name, PersistLogin: persist}
}
