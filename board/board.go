package board

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/go-climb-client/httpclient"
	"github.com/jrsteele09/go-climb-client/users"
)

// Post is a community board post.
type Post struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	Author       users.Profile `json:"author"`
	GymID        string        `json:"gymId,omitempty"` // Optional gym the post is about
	LikeCount    int           `json:"likeCount"`
	CommentCount int           `json:"commentCount"`
	Liked        bool          `json:"liked"`      // Whether the current user liked it
	Bookmarked   bool          `json:"bookmarked"` // Whether the current user bookmarked it
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt,omitempty"`
}

// Comment is a comment on a board post.
type Comment struct {
	ID        string        `json:"id"`
	PostID    string        `json:"postId"`
	Content   string        `json:"content"`
	Author    users.Profile `json:"author"`
	CreatedAt time.Time     `json:"createdAt"`
}

// PostDraft is the writable part of a post.
type PostDraft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	GymID   string `json:"gymId,omitempty"`
}

// ListParams pages through the board.
type ListParams struct {
	Page int
	Size int
}

// Service is the typed wrapper over the community board endpoints.
type Service struct {
	client *httpclient.Client
}

// NewService initializes a board Service.
func NewService(client *httpclient.Client) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("[board NewService] client is required")
	}
	return &Service{client: client}, nil
}

// List returns a page of posts, newest first.
func (s *Service) List(ctx context.Context, params ListParams) ([]Post, error) {
	q := url.Values{}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.Size > 0 {
		q.Set("size", strconv.Itoa(params.Size))
	}
	path := "/board/posts"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var out []Post
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return out, nil
}

// Get returns a single post.
func (s *Service) Get(ctx context.Context, postID string) (*Post, error) {
	var out Post
	if err := s.client.Get(ctx, s.postPath(postID), &out); err != nil {
		return nil, fmt.Errorf("fetching post %s: %w", postID, err)
	}
	return &out, nil
}

// Create publishes a new post.
func (s *Service) Create(ctx context.Context, draft PostDraft) (*Post, error) {
	var out Post
	if err := s.client.Post(ctx, "/board/posts", draft, &out); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	return &out, nil
}

// Update replaces a post's writable fields.
func (s *Service) Update(ctx context.Context, postID string, draft PostDraft) (*Post, error) {
	var out Post
	if err := s.client.Put(ctx, s.postPath(postID), draft, &out); err != nil {
		return nil, fmt.Errorf("updating post %s: %w", postID, err)
	}
	return &out, nil
}

// Delete removes a post.
func (s *Service) Delete(ctx context.Context, postID string) error {
	if err := s.client.Delete(ctx, s.postPath(postID)); err != nil {
		return fmt.Errorf("deleting post %s: %w", postID, err)
	}
	return nil
}

// Comments returns a post's comments, oldest first.
func (s *Service) Comments(ctx context.Context, postID string) ([]Comment, error) {
	var out []Comment
	if err := s.client.Get(ctx, s.postPath(postID)+"/comments", &out); err != nil {
		return nil, fmt.Errorf("listing comments for post %s: %w", postID, err)
	}
	return out, nil
}

// AddComment appends a comment to a post.
func (s *Service) AddComment(ctx context.Context, postID, content string) (*Comment, error) {
	body := struct {
		Content string `json:"content"`
	}{Content: content}
	var out Comment
	if err := s.client.Post(ctx, s.postPath(postID)+"/comments", body, &out); err != nil {
		return nil, fmt.Errorf("adding comment to post %s: %w", postID, err)
	}
	return &out, nil
}

// DeleteComment removes a comment.
func (s *Service) DeleteComment(ctx context.Context, postID, commentID string) error {
	path := s.postPath(postID) + "/comments/" + url.PathEscape(commentID)
	if err := s.client.Delete(ctx, path); err != nil {
		return fmt.Errorf("deleting comment %s: %w", commentID, err)
	}
	return nil
}

// Like marks a post as liked by the current user.
func (s *Service) Like(ctx context.Context, postID string) error {
	if err := s.client.Post(ctx, s.postPath(postID)+"/like", nil, nil); err != nil {
		return fmt.Errorf("liking post %s: %w", postID, err)
	}
	return nil
}

// Unlike removes the current user's like.
func (s *Service) Unlike(ctx context.Context, postID string) error {
	if err := s.client.Delete(ctx, s.postPath(postID)+"/like"); err != nil {
		return fmt.Errorf("unliking post %s: %w", postID, err)
	}
	return nil
}

// Bookmark saves a post to the current user's bookmarks.
func (s *Service) Bookmark(ctx context.Context, postID string) error {
	if err := s.client.Post(ctx, s.postPath(postID)+"/bookmark", nil, nil); err != nil {
		return fmt.Errorf("bookmarking post %s: %w", postID, err)
	}
	return nil
}

// Unbookmark removes a post from the current user's bookmarks.
func (s *Service) Unbookmark(ctx context.Context, postID string) error {
	if err := s.client.Delete(ctx, s.postPath(postID)+"/bookmark"); err != nil {
		return fmt.Errorf("removing bookmark on post %s: %w", postID, err)
	}
	return nil
}

func (s *Service) postPath(postID string) string {
	return "/board/posts/" + url.PathEscape(postID)
}
