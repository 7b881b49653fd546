// Package forms validates and normalizes user input before it reaches the API.
package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/idilsaglam/backlog/internal/model"
)

const minPasswordLen = 6

// ValidationError names the first field that failed.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Msg }

func fieldErr(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Login trims both fields and lowercases the email.
func Login(email, password string) (model.Credentials, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return model.Credentials{}, fieldErr("credentials", "email and password are required")
	}
	return model.Credentials{Email: email, Password: password}, nil
}

type Registration struct {
	Name      string
	Email     string
	Password  string
	BirthDate string // YYYY-MM-DD
	Gender    int
	Phone     string
	SteamID   string
}

func Register(r Registration) (model.NewUser, error) {
	u := model.NewUser{
		Name:      strings.TrimSpace(r.Name),
		Email:     strings.ToLower(strings.TrimSpace(r.Email)),
		Password:  r.Password,
		BirthDate: strings.TrimSpace(r.BirthDate),
		Gender:    model.Gender(r.Gender),
		Phone:     strings.TrimSpace(r.Phone),
		SteamID:   strings.TrimSpace(r.SteamID),
	}
	switch {
	case u.Name == "":
		return model.NewUser{}, fieldErr("name", "required")
	case u.Email == "":
		return model.NewUser{}, fieldErr("email", "required")
	case u.Password == "":
		return model.NewUser{}, fieldErr("password", "required")
	case u.BirthDate == "":
		return model.NewUser{}, fieldErr("birth date", "required")
	case !u.Gender.Valid():
		return model.NewUser{}, fieldErr("gender", "must be 0 (male), 1 (female) or 2 (other)")
	}
	if _, err := time.Parse(time.DateOnly, u.BirthDate); err != nil {
		return model.NewUser{}, fieldErr("birth date", "use YYYY-MM-DD")
	}
	return u, nil
}

func PasswordChange(current, next, confirm string) (model.PasswordChange, error) {
	switch {
	case current == "" || next == "" || confirm == "":
		return model.PasswordChange{}, fieldErr("password", "all fields are required")
	case next != confirm:
		return model.PasswordChange{}, fieldErr("confirmation", "passwords do not match")
	case len(next) < minPasswordLen:
		return model.PasswordChange{}, fieldErr("new password", fmt.Sprintf("at least %d characters", minPasswordLen))
	}
	return model.PasswordChange{Current: current, New: next}, nil
}

// Profile validates an edit of the current profile. Empty optional fields clear
// the stored value.
func Profile(name, phone, steamID, image string) (model.ProfileUpdate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.ProfileUpdate{}, fieldErr("name", "cannot be empty")
	}
	return model.ProfileUpdate{
		Name:         name,
		Phone:        strings.TrimSpace(phone),
		SteamID:      strings.TrimSpace(steamID),
		ProfileImage: strings.TrimSpace(image),
	}, nil
}

// Hours parses hours played. Anything that is not a non-negative number counts as 0.
func Hours(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// Times parses a finish count the same lenient way as Hours.
func Times(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// Progress is an edit of a backlog item's personal fields. Nil fields are left alone.
type Progress struct {
	Hours     *string
	Times     *string
	Finished  *bool
	Replaying *bool
}

// Apply returns the update payload for it after applying p. Marking an item
// finished that was not finished before bumps its finish count.
func (p Progress) Apply(it model.BacklogItem) model.ItemUpdate {
	up := model.UpdateOf(it)
	if p.Hours != nil {
		up.HoursPlayed = Hours(*p.Hours)
	}
	if p.Times != nil {
		up.TimesFinished = Times(*p.Times)
	}
	if p.Replaying != nil {
		up.Replaying = *p.Replaying
	}
	if p.Finished != nil {
		if *p.Finished && !it.Finished {
			up.TimesFinished++
		}
		up.Finished = *p.Finished
	}
	return up
}
