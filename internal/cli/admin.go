package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Staff-only management commands",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List user accounts",
	RunE: run(func(ctx context.Context, a *app, w io.Writer) error {
		if err := a.requireSession(ctx); err != nil {
			return err
		}
		users, err := a.admin().Users(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(w, users)
		}
		for _, u := range users {
			staff := ""
			if u.IsStaff {
				staff = "\t[staff]"
			}
			fmt.Fprintf(w, "%d\t%s\t%s%s\n", u.ID, u.Username, u.Email, staff)
		}
		return nil
	}),
}

var adminDeleteUserCmd = &cobra.Command{
	Use:   "delete-user <id>",
	Short: "Delete a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return run(func(ctx context.Context, a *app, w io.Writer) error {
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			if err := a.admin().DeleteUser(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(w, "Deleted user %d\n", id)
			return nil
		})(cmd, args)
	},
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show site-wide counters",
	RunE: run(func(ctx context.Context, a *app, w io.Writer) error {
		if err := a.requireSession(ctx); err != nil {
			return err
		}
		stats, err := a.admin().Stats(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(w, stats)
		}
		fmt.Fprintf(w, "Users:    %d\nArticles: %d\nComments: %d\n",
			stats.TotalUsers, stats.TotalArticles, stats.TotalComments)
		return nil
	}),
}

var adminActivityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the recent activity feed",
	RunE: run(func(ctx context.Context, a *app, w io.Writer) error {
		if err := a.requireSession(ctx); err != nil {
			return err
		}
		entries, err := a.admin().Activity(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(w, entries)
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Timestamp.Format("2006-01-02 15:04"), e.User, e.Action)
		}
		return nil
	}),
}

var adminGroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List permission groups",
	RunE: run(func(ctx context.Context, a *app, w io.Writer) error {
		if err := a.requireSession(ctx); err != nil {
			return err
		}
		groups, err := a.admin().Groups(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(w, groups)
		}
		for _, g := range groups {
			fmt.Fprintf(w, "%d\t%s\n", g.ID, g.Name)
		}
		return nil
	}),
}

func init() {
	adminCmd.AddCommand(adminUsersCmd, adminDeleteUserCmd, adminStatsCmd, adminActivityCmd, adminGroupsCmd)
	rootCmd.AddCommand(adminCmd)
}
