package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/idilsaglam/backlog/internal/backlog"
	"github.com/idilsaglam/backlog/internal/forms"
	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/ui"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var plain, group bool
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List your backlog (interactive on a terminal)",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, s, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			l, err := a.loadList(ctx, s)
			if err != nil {
				return friendly(err, "could not load your backlog")
			}
			switch {
			case group:
				a.printGrouped(l)
			case plain || !isTerminal(a.out):
				a.printItems(l.Items(), 0)
			default:
				return a.runTUI(ctx, l, s)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print the list instead of opening the interactive view")
	cmd.Flags().BoolVar(&group, "group", false, "print grouped into playing now and queue")
	return cmd
}

func (a *app) printItems(items []model.BacklogItem, offset int) {
	t := ui.Current()
	for i, it := range items {
		line := fmt.Sprintf("%3d. %s", offset+i+1, it.Game.Title)
		if it.Replaying {
			line += t.Pending.Render(" (replaying)")
		}
		meta := []string{fmt.Sprintf("#%d", it.ID)}
		if it.Game.Developer != "" {
			meta = append(meta, it.Game.Developer)
		}
		if it.Game.HoursToBeat > 0 {
			meta = append(meta, fmt.Sprintf("~%.0fh", it.Game.HoursToBeat))
		}
		fmt.Fprintln(a.out, line+"  "+t.Muted.Render(strings.Join(meta, " · ")))
	}
}

func (a *app) printGrouped(l *backlog.List) {
	t := ui.Current()
	playing, queue := l.PlayingNow(), l.Queue()
	if len(playing) == 0 {
		a.muted("your backlog is empty. Run: backlog catalog")
		return
	}
	fmt.Fprintln(a.out, t.Title.Render(t.SymPlaying+" Playing now"))
	a.printItems(playing, 0)
	if len(queue) > 0 {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, t.Title.Render("Queue"))
		a.printItems(queue, len(playing))
	}
}

func newMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <itemID> <position>",
		Short: "Move a backlog item to a 1-based position",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("item id", args[0])
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[1])
			if err != nil || pos < 1 {
				return usagef("position must be a number >= 1, got %q", args[1])
			}
			ctx, s, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			l, err := a.loadList(ctx, s)
			if err != nil {
				return friendly(err, "could not load your backlog")
			}
			defer l.Close()

			schedule, err := l.MoveTo(id, pos-1)
			if err != nil {
				if errors.Is(err, backlog.ErrOutOfRange) {
					a.muted("Hint: run `backlog ls --plain` to see item ids")
					return usagef("item %d is not in your backlog", id)
				}
				return err
			}
			if !schedule {
				a.ok("already there")
				return nil
			}
			if err := l.Persist(ctx); err != nil {
				a.printItems(l.Items(), 0)
				return &friendlyError{msg: backlog.ErrOrderNotSaved.Error(), err: err}
			}
			a.ok("moved")
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List finished games, most recent first",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, s, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			l, err := a.loadList(ctx, s)
			if err != nil {
				return friendly(err, "could not load your history")
			}
			history := l.History()
			if len(history) == 0 {
				a.muted("nothing finished yet")
				return nil
			}
			t := ui.Current()
			total := len(history) + len(l.Items())
			fmt.Fprintln(a.out, t.Title.Render("Finished")+"  "+t.Muted.Render(ui.ProgressBar(len(history), total, 20)))
			for _, it := range history {
				runs := "finished once"
				if it.TimesFinished > 1 {
					runs = fmt.Sprintf("finished %d times", it.TimesFinished)
				}
				fmt.Fprintf(a.out, "%s %s  %s\n", t.Success.Render(t.SymFinished), t.Done.Render(it.Game.Title),
					t.Muted.Render(fmt.Sprintf("#%d · %.1fh · %s", it.ID, it.HoursPlayed, runs)))
			}
			return nil
		},
	}
}

func newCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [query]",
		Short: "Search the game catalog by title",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			games, err := a.client.ListGames(cmd.Context())
			if err != nil {
				return friendly(err, "could not load the catalog")
			}
			games = backlog.FilterGames(games, strings.Join(args, " "))
			if len(games) == 0 {
				a.muted("no games found")
				return nil
			}
			t := ui.Current()
			for _, g := range games {
				meta := g.Developer
				if g.HoursToBeat > 0 {
					meta = strings.TrimSpace(fmt.Sprintf("%s ~%.0fh", meta, g.HoursToBeat))
				}
				fmt.Fprintf(a.out, "%5d  %s  %s\n", g.ID, g.Title, t.Muted.Render(meta))
			}
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <gameID>",
		Short: "Add a catalog game to the top of your backlog",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := parseID("game id", args[0])
			if err != nil {
				return err
			}
			ctx, s, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.client.AddItem(ctx, s.UserID, gameID); err != nil {
				return friendly(err, "could not add the game")
			}
			a.ok("added to your backlog")
			return nil
		},
	}
}

func newItemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Show or update one backlog item",
	}
	cmd.AddCommand(newItemShowCmd(a), newItemUpdateCmd(a))
	return cmd
}

func newItemShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <itemID>",
		Short: "Show game details and your progress",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("item id", args[0])
			if err != nil {
				return err
			}
			ctx, _, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			it, err := a.client.GetItem(ctx, id)
			if err != nil {
				return friendly(err, "could not load the item")
			}
			fmt.Fprintln(a.out, ui.Panel(itemLines(it)))
			return nil
		},
	}
}

func itemLines(it model.BacklogItem) []string {
	t := ui.Current()
	g := it.Game
	lines := []string{t.Title.Render(g.Title)}
	if g.Developer != "" || g.Publisher != "" {
		lines = append(lines, t.Muted.Render(strings.Trim(g.Developer+" / "+g.Publisher, " /")))
	}
	if len(g.Genres) > 0 {
		lines = append(lines, strings.Join(g.Genres, ", "))
	}
	if g.Synopsis != "" {
		lines = append(lines, "", g.Synopsis)
	}
	status := "in backlog"
	switch {
	case it.Finished && it.Replaying:
		status = "replaying"
	case it.Finished:
		status = "finished"
	}
	lines = append(lines, "",
		"status:   "+status,
		"progress: "+ui.HoursBar(it.HoursPlayed, g.HoursToBeat, 20),
		fmt.Sprintf("finished: %d time(s)", it.TimesFinished),
	)
	return lines
}

func newItemUpdateCmd(a *app) *cobra.Command {
	var hours, times string
	var finished, replaying bool
	cmd := &cobra.Command{
		Use:   "update <itemID>",
		Short: "Update hours played, finish count and status",
		Long: `Update your progress on a backlog item. Only the flags you pass change.
Marking an unfinished item as finished also counts one more finish.

Examples:
  backlog item update 17 --hours 12.5
  backlog item update 17 --finished`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("item id", args[0])
			if err != nil {
				return err
			}
			ctx, _, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			it, err := a.client.GetItem(ctx, id)
			if err != nil {
				return friendly(err, "could not load the item")
			}

			var p forms.Progress
			f := cmd.Flags()
			if f.Changed("hours") {
				p.Hours = &hours
			}
			if f.Changed("times") {
				p.Times = &times
			}
			if f.Changed("finished") {
				p.Finished = &finished
			}
			if f.Changed("replaying") {
				p.Replaying = &replaying
			}
			if err := a.client.UpdateItem(ctx, p.Apply(it)); err != nil {
				return friendly(err, "could not save the item")
			}
			a.ok("saved")
			return nil
		},
	}
	cmd.Flags().StringVar(&hours, "hours", "", "hours played")
	cmd.Flags().StringVar(&times, "times", "", "times finished")
	cmd.Flags().BoolVar(&finished, "finished", false, "mark finished (--finished=false to undo)")
	cmd.Flags().BoolVar(&replaying, "replaying", false, "mark as replaying")
	return cmd
}

func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("%s must be a positive number, got %q", what, s)
	}
	return id, nil
}
