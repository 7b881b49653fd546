package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/idilsaglam/backlog/internal/forms"
	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/ui"
	"github.com/spf13/cobra"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
	}
	cmd.AddCommand(newProfileShowCmd(a), newProfileEditCmd(a))
	return cmd
}

func newProfileShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, s, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			u, err := a.client.GetUser(ctx, s.UserID)
			if err != nil {
				return friendly(err, "could not load your profile")
			}
			fmt.Fprintln(a.out, ui.Panel(profileLines(u)))
			return nil
		},
	}
}

func profileLines(u model.User) []string {
	t := ui.Current()
	orDash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	return []string{
		t.Title.Render(u.Name),
		"email:  " + orDash(u.Email),
		"born:   " + u.BirthDay(),
		"gender: " + u.Gender.String(),
		"phone:  " + orDash(u.Phone),
		"steam:  " + orDash(u.SteamID),
		"photo:  " + orDash(u.ProfileImage),
	}
}

func newProfileEditCmd(a *app) *cobra.Command {
	var name, phone, steamID, photo string
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit your name, phone, Steam id or photo",
		Long: `Edit your profile. Only the flags you pass change; an empty value clears
an optional field. --photo uploads an image file and uses it as your picture.

Examples:
  backlog profile edit --name "Ana Lima"
  backlog profile edit --photo ~/me.jpg`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, s, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			u, err := a.client.GetUser(ctx, s.UserID)
			if err != nil {
				return friendly(err, "could not load your profile")
			}

			f := cmd.Flags()
			if f.Changed("name") {
				u.Name = name
			}
			if f.Changed("phone") {
				u.Phone = phone
			}
			if f.Changed("steam") {
				u.SteamID = steamID
			}
			if photo != "" {
				url, err := a.uploadPhoto(cmd, s.UserID, photo)
				if err != nil {
					return err
				}
				u.ProfileImage = url
			}

			p, err := forms.Profile(u.Name, u.Phone, u.SteamID, u.ProfileImage)
			if err != nil {
				return err
			}
			if err := a.client.UpdateProfile(ctx, s.UserID, p); err != nil {
				return friendly(err, "could not save your profile")
			}
			if err := a.sessions.Rename(ctx, p.Name); err != nil {
				return err
			}
			a.ok("profile updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&steamID, "steam", "", "Steam id")
	cmd.Flags().StringVar(&photo, "photo", "", "image file to upload as profile picture")
	return cmd
}

func (a *app) uploadPhoto(cmd *cobra.Command, userID int64, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", usagef("open photo: %v", err)
	}
	defer f.Close()
	url, err := a.client.UploadPhoto(cmd.Context(), userID, filepath.Base(path), f)
	if err != nil {
		return "", friendly(err, "could not upload the photo")
	}
	return url, nil
}

func newSteamCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steam",
		Short: "Browse and import your Steam library",
	}
	cmd.AddCommand(newSteamListCmd(a), newSteamImportCmd(a))
	return cmd
}

// steamLibrary loads the library of the profile's Steam id, or of override when set.
func (a *app) steamLibrary(cmd *cobra.Command, override string) ([]model.SteamGame, *model.Session, error) {
	ctx, s, err := a.requireSession(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	steamID := override
	if steamID == "" {
		u, err := a.client.GetUser(ctx, s.UserID)
		if err != nil {
			return nil, nil, friendly(err, "could not load your profile")
		}
		steamID = u.SteamID
	}
	if steamID == "" {
		return nil, nil, usagef("no Steam id on your profile. Run: backlog profile edit --steam <id>")
	}
	games, err := a.client.SteamLibrary(ctx, steamID)
	if err != nil {
		return nil, nil, friendly(err, "could not load the Steam library, check that it is public")
	}
	return games, s, nil
}

func newSteamListCmd(a *app) *cobra.Command {
	var steamID string
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the games in your Steam library",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			games, _, err := a.steamLibrary(cmd, steamID)
			if err != nil {
				return err
			}
			if len(games) == 0 {
				a.muted("the Steam library is empty")
				return nil
			}
			t := ui.Current()
			for _, g := range games {
				fmt.Fprintf(a.out, "%10d  %s  %s\n", g.SteamID, g.Title, t.Muted.Render(fmt.Sprintf("%.1fh", g.HoursPlayed)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&steamID, "steam-id", "", "Steam id to read instead of the profile's")
	return cmd
}

func newSteamImportCmd(a *app) *cobra.Command {
	var steamID string
	var all bool
	cmd := &cobra.Command{
		Use:   "import [steamGameID...]",
		Short: "Import Steam games into your backlog",
		Long: `Import the given Steam games, or the whole library with --all.
Hours played come along with each game.

Examples:
  backlog steam import 620 400
  backlog steam import --all`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return usagef("pass Steam game ids or --all")
			}
			selected := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil || id <= 0 {
					return usagef("steam game id must be a positive number, got %q", arg)
				}
				selected = append(selected, id)
			}

			games, s, err := a.steamLibrary(cmd, steamID)
			if err != nil {
				return err
			}
			if all {
				for _, g := range games {
					selected = append(selected, g.SteamID)
				}
			}
			if len(selected) == 0 {
				a.muted("nothing to import")
				return nil
			}
			ctx := cmd.Context()
			if err := a.client.ImportSteam(ctx, model.ImportOf(s.UserID, games, selected)); err != nil {
				return friendly(err, "could not import the games")
			}
			a.ok(fmt.Sprintf("imported %d game(s)", len(selected)))
			return nil
		},
	}
	cmd.Flags().StringVar(&steamID, "steam-id", "", "Steam id to read instead of the profile's")
	cmd.Flags().BoolVar(&all, "all", false, "import the whole library")
	return cmd
}
