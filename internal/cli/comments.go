package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doronEilam/blog/internal/api"
)

var (
	commentArticle int64
	commentContent string
)

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Manage comments",
}

var commentsListCmd = &cobra.Command{
	Use:   "list [article-id]",
	Short: "List comments, optionally scoped to one article",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, a *app, w io.Writer) error {
			_, _ = a.restore(ctx)
			var items []api.Comment
			var err error
			if len(args) == 1 {
				var id int64
				if id, err = parseID(args[0]); err != nil {
					return err
				}
				items, err = a.articles().Comments(ctx, id)
			} else {
				items, err = a.comments().List(ctx)
			}
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(w, items)
			}
			printCommentTree(w, items, "")
			return nil
		})(cmd, args)
	},
}

var commentsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Comment on an article",
	RunE: run(func(ctx context.Context, a *app, w io.Writer) error {
		if err := a.requireSession(ctx); err != nil {
			return err
		}
		c, err := a.comments().Create(ctx, api.CommentInput{
			Article: commentArticle,
			Content: commentContent,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Created comment %d\n", c.ID)
		return nil
	}),
}

var commentsReplyCmd = &cobra.Command{
	Use:   "reply <comment-id>",
	Short: "Reply to an existing comment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parentID, err := parseID(args[0])
		if err != nil {
			return err
		}
		return run(func(ctx context.Context, a *app, w io.Writer) error {
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			c, err := a.comments().Reply(ctx, parentID, commentContent)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Created reply %d\n", c.ID)
			return nil
		})(cmd, args)
	},
}

var commentsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a comment",
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
			if err := a.comments().Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(w, "Deleted comment %d\n", id)
			return nil
		})(cmd, args)
	},
}

func printCommentTree(w io.Writer, items []api.Comment, indent string) {
	for _, c := range items {
		fmt.Fprintf(w, "%s%d\t%s: %s\n", indent, c.ID, c.AuthorName, c.Content)
		if len(c.Replies) > 0 {
			printCommentTree(w, c.Replies, indent+"  ")
		}
	}
}

func init() {
	commentsAddCmd.Flags().Int64VarP(&commentArticle, "article", "a", 0, "Article id")
	commentsAddCmd.Flags().StringVarP(&commentContent, "content", "c", "", "Comment text")
	commentsAddCmd.MarkFlagRequired("article")
	commentsAddCmd.MarkFlagRequired("content")
	commentsReplyCmd.Flags().StringVarP(&commentContent, "content", "c", "", "Reply text")
	commentsReplyCmd.MarkFlagRequired("content")
	commentsCmd.AddCommand(commentsListCmd, commentsAddCmd, commentsReplyCmd, commentsDeleteCmd)
	rootCmd.AddCommand(commentsCmd)
}
