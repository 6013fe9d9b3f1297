package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-climb-client/board"
)

func newBoardCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Read and write the community board",
	}

	var page, size int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, err := a.board.List(cmd.Context(), board.ListParams{Page: page, Size: size})
			if err != nil {
				return err
			}
			for _, p := range posts {
				fmt.Printf("%-12s %-40s %s  ♥%d ✎%d\n",
					p.ID, p.Title, p.Author.DisplayName(), p.LikeCount, p.CommentCount)
			}
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 0, "page number")
	list.Flags().IntVar(&size, "size", 20, "page size")

	show := &cobra.Command{
		Use:   "show <post-id>",
		Short: "Show a post and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.board.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s\nby %s on %s\n\n%s\n", p.Title, p.Author.DisplayName(),
				p.CreatedAt.Local().Format("2006-01-02 15:04"), p.Content)

			comments, err := a.board.Comments(cmd.Context(), p.ID)
			if err != nil {
				return err
			}
			if len(comments) > 0 {
				fmt.Println("\nComments:")
				for _, c := range comments {
					fmt.Printf("  %s: %s\n", c.Author.DisplayName(), c.Content)
				}
			}
			return nil
		},
	}

	var title, content, gymID string
	post := &cobra.Command{
		Use:   "post",
		Short: "Publish a new post",
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := a.board.Create(cmd.Context(), board.PostDraft{
				Title:   title,
				Content: content,
				GymID:   gymID,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Posted %s\n", created.ID)
			return nil
		},
	}
	post.Flags().StringVar(&title, "title", "", "post title")
	post.Flags().StringVar(&content, "content", "", "post body")
	post.Flags().StringVar(&gymID, "gym", "", "gym the post is about")
	_ = post.MarkFlagRequired("title")
	_ = post.MarkFlagRequired("content")

	like := &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.board.Like(cmd.Context(), args[0])
		},
	}

	bookmark := &cobra.Command{
		Use:   "bookmark <post-id>",
		Short: "Bookmark a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.board.Bookmark(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(list, show, post, like, bookmark)
	return cmd
}
