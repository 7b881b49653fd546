package forms

import (
	"testing"

	"github.com/idilsaglam/backlog/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	c, err := Login("  Ana@Example.COM ", " secret ")
	require.NoError(t, err)
	assert.Equal(t, model.Credentials{Email: "ana@example.com", Password: "secret"}, c)

	_, err = Login("   ", "x")
	assert.True(t, IsValidation(err))
	_, err = Login("a@b.c", "  ")
	assert.True(t, IsValidation(err))
}

func TestRegister(t *testing.T) {
	valid := Registration{Name: " Ana ", Email: "ANA@x.io", Password: "pw", BirthDate: "2000-02-29", Gender: 1}
	u, err := Register(valid)
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "ana@x.io", u.Email)
	assert.Equal(t, model.GenderFemale, u.Gender)

	tests := []struct {
		name  string
		edit  func(*Registration)
		field string
	}{
		{"missing name", func(r *Registration) { r.Name = "" }, "name"},
		{"missing email", func(r *Registration) { r.Email = " " }, "email"},
		{"missing password", func(r *Registration) { r.Password = "" }, "password"},
		{"missing birth date", func(r *Registration) { r.BirthDate = "" }, "birth date"},
		{"bad birth date", func(r *Registration) { r.BirthDate = "29/02/2000" }, "birth date"},
		{"bad gender", func(r *Registration) { r.Gender = 3 }, "gender"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.edit(&r)
			_, err := Register(r)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestPasswordChange(t *testing.T) {
	pc, err := PasswordChange("old", "newpass", "newpass")
	require.NoError(t, err)
	assert.Equal(t, model.PasswordChange{Current: "old", New: "newpass"}, pc)

	_, err = PasswordChange("", "newpass", "newpass")
	assert.EqualError(t, err, "password: all fields are required")
	_, err = PasswordChange("old", "newpass", "newpasz")
	assert.EqualError(t, err, "confirmation: passwords do not match")
	_, err = PasswordChange("old", "short", "short")
	assert.EqualError(t, err, "new password: at least 6 characters")
}

func TestProfile(t *testing.T) {
	p, err := Profile(" Ana ", "", " 7656 ", "")
	require.NoError(t, err)
	assert.Equal(t, model.ProfileUpdate{Name: "Ana", SteamID: "7656"}, p)

	_, err = Profile("  ", "", "", "")
	assert.True(t, IsValidation(err))
}

func TestLenientNumbers(t *testing.T) {
	assert.Equal(t, 12.5, Hours("12.5"))
	assert.Equal(t, 0.0, Hours("abc"))
	assert.Equal(t, 0.0, Hours("-3"))
	assert.Equal(t, 4, Times(" 4 "))
	assert.Equal(t, 0, Times("4.5"))
}

func TestProgressApply(t *testing.T) {
	it := model.BacklogItem{ID: 2, GameID: 5, UserID: 1, OrderRank: 3, TimesFinished: 1, HoursPlayed: 3}
	yes, no := true, false
	hours := "10"

	up := Progress{Hours: &hours, Finished: &yes}.Apply(it)
	assert.Equal(t, 10.0, up.HoursPlayed)
	assert.True(t, up.Finished)
	assert.Equal(t, 2, up.TimesFinished, "finishing counts one more run")
	assert.Equal(t, 3, up.OrderRank)

	it.Finished = true
	up = Progress{Finished: &yes, Replaying: &yes}.Apply(it)
	assert.Equal(t, 1, up.TimesFinished, "already finished")
	assert.True(t, up.Replaying)

	up = Progress{Finished: &no}.Apply(it)
	assert.False(t, up.Finished)
	assert.Equal(t, 1, up.TimesFinished)
}
