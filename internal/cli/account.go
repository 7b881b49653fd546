package cli

import (
	"fmt"

	"github.com/idilsaglam/backlog/internal/forms"
	"github.com/idilsaglam/backlog/internal/model"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	var stay bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email, err = a.prompt("Email", email); err != nil {
				return err
			}
			if password, err = a.promptSecret("Password", password); err != nil {
				return err
			}
			cred, err := forms.Login(email, password)
			if err != nil {
				return err
			}
			u, err := a.client.Login(cmd.Context(), cred)
			if err != nil {
				return friendly(err, "login failed, check your email and password")
			}
			if err := a.sessions.Save(cmd.Context(), model.SessionOf(u, stay)); err != nil {
				return err
			}
			a.ok("logged in as " + u.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().BoolVar(&stay, "stay", false, "stay logged in: open the backlog directly next time")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the logged in user and all local data",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.sessions.Clear(cmd.Context()); err != nil {
				return err
			}
			a.ok("logged out")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is logged in",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.sessions.Current(cmd.Context())
			if err != nil {
				return err
			}
			if s == nil {
				a.muted("not logged in")
				fmt.Fprintln(a.out, "Run: backlog login")
				return nil
			}
			fmt.Fprintf(a.out, "user: %s (id %d)\n", s.DisplayName, s.UserID)
			fmt.Fprintf(a.out, "stay logged in: %t\n", s.PersistLogin)
			fmt.Fprintf(a.out, "backend: %s\n", a.cfg.API.BaseURL)
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var r forms.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account. Name, email, password and birth date are required.

Examples:
  backlog register --name Ana --email ana@example.com --birth 1999-04-23 --gender 1`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if r.Password, err = a.promptSecret("Password", r.Password); err != nil {
				return err
			}
			u, err := forms.Register(r)
			if err != nil {
				return err
			}
			if err := a.client.Register(cmd.Context(), u); err != nil {
				return friendly(err, "could not create the account")
			}
			a.ok("account created")
			a.muted("Run: backlog login --email " + u.Email)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&r.Name, "name", "", "display name (required)")
	f.StringVar(&r.Email, "email", "", "email (required)")
	f.StringVar(&r.Password, "password", "", "password (prompted when omitted)")
	f.StringVar(&r.BirthDate, "birth", "", "birth date YYYY-MM-DD (required)")
	f.IntVar(&r.Gender, "gender", 0, "0 male, 1 female, 2 other")
	f.StringVar(&r.Phone, "phone", "", "phone number")
	f.StringVar(&r.SteamID, "steam", "", "Steam id, used by steam ls/import")
	return cmd
}

func newPasswordCmd(a *app) *cobra.Command {
	var current, next, confirm string
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, s, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if current, err = a.promptSecret("Current password", current); err != nil {
				return err
			}
			if next, err = a.promptSecret("New password", next); err != nil {
				return err
			}
			if confirm, err = a.promptSecret("Confirm new password", confirm); err != nil {
				return err
			}
			pc, err := forms.PasswordChange(current, next, confirm)
			if err != nil {
				return err
			}
			if err := a.client.ChangePassword(ctx, s.UserID, pc); err != nil {
				return friendly(err, "could not change the password")
			}
			a.ok("password changed")
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password, at least 6 characters")
	cmd.Flags().StringVar(&confirm, "confirm", "", "new password again")
	return cmd
}
