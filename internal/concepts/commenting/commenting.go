// Package commenting owns comments attached to posts.
package commenting

import (
	"context"

	"strider/internal/models"
	"strider/internal/store"
	"strider/internal/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentDoc is a stored comment. PostID is a plain identifier; whether the post exists is
// checked by the caller.
type CommentDoc struct {
	models.BaseDoc
	Author  uuid.UUID `gorm:"type:uuid;index;not null" json:"author"`
	PostID  uuid.UUID `gorm:"type:uuid;index;not null" json:"postId"`
	Content string    `gorm:"type:text;not null" json:"content"`
}

func (CommentDoc) TableName() string { return "comments" }

type Concept struct {
	comments *store.Collection[CommentDoc]
}

func New(db *gorm.DB) *Concept {
	return &Concept{comments: store.NewCollection[CommentDoc](db, "comments")}
}

func (c *Concept) Create(ctx context.Context, author, postID uuid.UUID, content string) (*CommentDoc, error) {
	if err := validation.ValidateContent(content, false); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	comment := &CommentDoc{Author: author, PostID: postID, Content: content}
	if err := c.comments.CreateOne(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (c *Concept) GetComments(ctx context.Context) ([]CommentDoc, error) {
	return c.comments.ReadMany(ctx, nil)
}

func (c *Concept) GetByPost(ctx context.Context, postID uuid.UUID) ([]CommentDoc, error) {
	return c.comments.ReadMany(ctx, store.Filter{"post_id": postID})
}

func (c *Concept) GetByAuthor(ctx context.Context, author uuid.UUID) ([]CommentDoc, error) {
	return c.comments.ReadMany(ctx, store.Filter{"author": author})
}

// Update replaces the text when content is non-nil.
func (c *Concept) Update(ctx context.Context, id uuid.UUID, content *string) error {
	if content != nil {
		if err := validation.ValidateContent(*content, false); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	matched, err := c.comments.PartialUpdateOne(ctx, store.Filter{"id": id}, store.Fields{"content": content})
	if err != nil {
		return err
	}
	if !matched {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}

func (c *Concept) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := c.comments.DeleteOne(ctx, store.Filter{"id": id})
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}

// DeleteByPost removes every comment on postID and reports how many went.
func (c *Concept) DeleteByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	return c.comments.DeleteMany(ctx, store.Filter{"post_id": postID})
}

func (c *Concept) AssertAuthorIsUser(ctx context.Context, id, user uuid.UUID) error {
	comment, err := c.comments.ReadOne(ctx, store.Filter{"id": id})
	if err != nil {
		return err
	}
	if comment == nil {
		return models.NewNotFoundError("Comment", id)
	}
	if comment.Author != user {
		return models.NewNotAuthorError(user, "comment", id)
	}
	return nil
}
