package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/doronEilam/blog/internal/api"
)

var (
	articleTitle      string
	articleContent    string
	articleCategories []int64
	articleTags       []int64
)

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Manage blog articles",
}

var articlesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all articles",
	RunE: run(func(ctx context.Context, a *app, w io.Writer) error {
		_, _ = a.restore(ctx)
		items, err := a.articles().List(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(w, items)
		}
		for _, art := range items {
			fmt.Fprintf(w, "%d\t%s\tby %s\n", art.ID, art.Title, art.AuthorName)
		}
		return nil
	}),
}

var articlesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return run(func(ctx context.Context, a *app, w io.Writer) error {
			_, _ = a.restore(ctx)
			art, err := a.articles().Get(ctx, id)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(w, art)
			}
			fmt.Fprintf(w, "%s\nby %s\n\n%s\n", art.Title, art.AuthorName, art.Content)
			return nil
		})(cmd, args)
	},
}

var articlesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a new article",
	RunE: run(func(ctx context.Context, a *app, w io.Writer) error {
		if err := a.requireSession(ctx); err != nil {
			return err
		}
		art, err := a.articles().Create(ctx, api.ArticleInput{
			Title:      articleTitle,
			Content:    articleContent,
			Categories: articleCategories,
			Tags:       articleTags,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Created article %d\n", art.ID)
		return nil
	}),
}

var articlesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit an article",
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
			art, err := a.articles().Update(ctx, id, api.ArticleInput{
				Title:      articleTitle,
				Content:    articleContent,
				Categories: articleCategories,
				Tags:       articleTags,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Updated article %d\n", art.ID)
			return nil
		})(cmd, args)
	},
}

var articlesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an article",
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
			if err := a.articles().Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(w, "Deleted article %d\n", id)
			return nil
		})(cmd, args)
	},
}

var articlesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search articles by text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := args[0]
		return run(func(ctx context.Context, a *app, w io.Writer) error {
			_, _ = a.restore(ctx)
			items, err := a.articles().Search(ctx, query)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(w, items)
			}
			for _, art := range items {
				fmt.Fprintf(w, "%d\t%s\n", art.ID, art.Title)
			}
			return nil
		})(cmd, args)
	},
}

func init() {
	for _, c := range []*cobra.Command{articlesCreateCmd, articlesUpdateCmd} {
		c.Flags().StringVarP(&articleTitle, "title", "t", "", "Article title")
		c.Flags().StringVarP(&articleContent, "content", "c", "", "Article body")
		c.Flags().Int64SliceVar(&articleCategories, "category", nil, "Category id (repeatable)")
		c.Flags().Int64SliceVar(&articleTags, "tag", nil, "Tag id (repeatable)")
	}
	articlesCreateCmd.MarkFlagRequired("title")
	articlesCmd.AddCommand(articlesListCmd, articlesGetCmd, articlesCreateCmd,
		articlesUpdateCmd, articlesDeleteCmd, articlesSearchCmd)
	rootCmd.AddCommand(articlesCmd)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
