package server

import (
	"context"
	"time"

	"strider/internal/concepts/commenting"
	"strider/internal/concepts/friending"
	"strider/internal/concepts/posting"

	"github.com/google/uuid"
)

// PostView is a post with its author shown by username.
type PostView struct {
	ID          uuid.UUID           `json:"_id"`
	Author      string              `json:"author"`
	Content     string              `json:"content"`
	Options     posting.PostOptions `json:"options"`
	Photo       string              `json:"photo,omitempty"`
	DateCreated time.Time           `json:"dateCreated"`
	DateUpdated time.Time           `json:"dateUpdated"`
}

// CommentView is a comment with its author shown by username.
type CommentView struct {
	ID          uuid.UUID `json:"_id"`
	Author      string    `json:"author"`
	PostID      uuid.UUID `json:"postId"`
	Content     string    `json:"content"`
	DateCreated time.Time `json:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated"`
}

// FriendRequestView is a pending request with both ends shown by username.
type FriendRequestView struct {
	ID          uuid.UUID `json:"_id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Status      string    `json:"status"`
	DateCreated time.Time `json:"dateCreated"`
}

func (s *Server) postViews(ctx context.Context, posts []posting.PostDoc) ([]PostView, error) {
	ids := make([]uuid.UUID, len(posts))
	for i := range posts {
		ids[i] = posts[i].Author
	}
	names, err := s.users.IDsToUsernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]PostView, len(posts))
	for i, p := range posts {
		views[i] = PostView{
			ID:          p.ID,
			Author:      names[i],
			Content:     p.Content,
			Options:     p.Options,
			Photo:       p.Photo,
			DateCreated: p.CreatedAt,
			DateUpdated: p.UpdatedAt,
		}
	}
	return views, nil
}

func (s *Server) postView(ctx context.Context, post *posting.PostDoc) (*PostView, error) {
	views, err := s.postViews(ctx, []posting.PostDoc{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Server) commentViews(ctx context.Context, comments []commenting.CommentDoc) ([]CommentView, error) {
	ids := make([]uuid.UUID, len(comments))
	for i := range comments {
		ids[i] = comments[i].Author
	}
	names, err := s.users.IDsToUsernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, len(comments))
	for i, cm := range comments {
		views[i] = CommentView{
			ID:          cm.ID,
			Author:      names[i],
			PostID:      cm.PostID,
			Content:     cm.Content,
			DateCreated: cm.CreatedAt,
			DateUpdated: cm.UpdatedAt,
		}
	}
	return views, nil
}

func (s *Server) commentView(ctx context.Context, comment *commenting.CommentDoc) (*CommentView, error) {
	views, err := s.commentViews(ctx, []commenting.CommentDoc{*comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// friendRequestViews resolves from and to in a single lookup.
func (s *Server) friendRequestViews(ctx context.Context, requests []friending.FriendRequestDoc) ([]FriendRequestView, error) {
	ids := make([]uuid.UUID, 0, 2*len(requests))
	for _, r := range requests {
		ids = append(ids, r.From, r.To)
	}
	names, err := s.users.IDsToUsernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]FriendRequestView, len(requests))
	for i, r := range requests {
		views[i] = FriendRequestView{
			ID:          r.ID,
			From:        names[2*i],
			To:          names[2*i+1],
			Status:      r.Status,
			DateCreated: r.CreatedAt,
		}
	}
	return views, nil
}
