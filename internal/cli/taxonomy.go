package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doronEilam/blog/internal/api"
)

var categoryDescription string

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage tags",
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags",
	RunE: run(func(ctx context.Context, a *app, w io.Writer) error {
		_, _ = a.restore(ctx)
		items, err := a.tags().List(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(w, items)
		}
		for _, tag := range items {
			fmt.Fprintf(w, "%d\t%s\n", tag.ID, tag.Name)
		}
		return nil
	}),
}

var tagsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		return run(func(ctx context.Context, a *app, w io.Writer) error {
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			tag, err := a.tags().Create(ctx, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Created tag %d\n", tag.ID)
			return nil
		})(cmd, args)
	},
}

var tagsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a tag",
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
			if err := a.tags().Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(w, "Deleted tag %d\n", id)
			return nil
		})(cmd, args)
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Manage categories",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	RunE: run(func(ctx context.Context, a *app, w io.Writer) error {
		_, _ = a.restore(ctx)
		items, err := a.categories().List(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(w, items)
		}
		for _, cat := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\n", cat.ID, cat.Name, cat.Description)
		}
		return nil
	}),
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		return run(func(ctx context.Context, a *app, w io.Writer) error {
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			cat, err := a.categories().Create(ctx, api.CategoryInput{
				Name:        name,
				Description: categoryDescription,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Created category %d\n", cat.ID)
			return nil
		})(cmd, args)
	},
}

var categoriesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a category",
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
			if err := a.categories().Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(w, "Deleted category %d\n", id)
			return nil
		})(cmd, args)
	},
}

func init() {
	categoriesAddCmd.Flags().StringVarP(&categoryDescription, "description", "d", "", "Category description")
	tagsCmd.AddCommand(tagsListCmd, tagsAddCmd, tagsDeleteCmd)
	categoriesCmd.AddCommand(categoriesListCmd, categoriesAddCmd, categoriesDeleteCmd)
	rootCmd.AddCommand(tagsCmd, categoriesCmd)
}
