// Package cli is the backlog command line: request/response commands for the
// account, catalog and items, plus the interactive backlog screen.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

// NewRootCommand builds the command tree around a.
func NewRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "backlog",
		Short: "Track and rank the games you want to play",
		Long: `backlog is a terminal client for the game backlog tracker.

Run it without a subcommand to open your ranked backlog. Move games with
K/J (or shift+up/shift+down), T sends a game to the top, / filters, r reloads.

Examples:
  backlog login --stay
  backlog catalog zelda
  backlog add 42
  backlog move 17 1
  backlog steam import --all`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.sessions.LoadAndValidate(ctx)
			if err != nil {
				return err
			}
			if s == nil {
				a.muted("not logged in")
				a.muted("Run: backlog login --stay")
				return nil
			}
			l, err := a.loadList(ctx, s)
			if err != nil {
				return err
			}
			return a.runTUI(ctx, l, s)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/backlog/config.yaml)")
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newRegisterCmd(a),
		newPasswordCmd(a),
		newListCmd(a),
		newMoveCmd(a),
		newHistoryCmd(a),
		newCatalogCmd(a),
		newAddCmd(a),
		newItemCmd(a),
		newSteamCmd(a),
		newProfileCmd(a),
	)
	return root
}

// exactArgs is cobra.ExactArgs reported as a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
