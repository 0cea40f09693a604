// Package autocaptioning owns generated captions, at most one per post.
package autocaptioning

import (
	"context"
	"fmt"

	"strider/internal/models"
	"strider/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AutoCaptionDoc is the caption generated for a post's photo.
type AutoCaptionDoc struct {
	models.BaseDoc
	PostID  uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"postId"`
	Caption string    `gorm:"type:text;not null" json:"caption"`
}

func (AutoCaptionDoc) TableName() string { return "auto_captions" }

type Concept struct {
	captions *store.Collection[AutoCaptionDoc]
}

func New(db *gorm.DB) *Concept {
	return &Concept{captions: store.NewCollection[AutoCaptionDoc](db, "auto_captions")}
}

// Create stores the caption unless the post already has one. The existence check and the
// insert are one conditional write, so of two concurrent calls exactly one succeeds.
func (c *Concept) Create(ctx context.Context, postID uuid.UUID, caption string) (*AutoCaptionDoc, error) {
	doc := &AutoCaptionDoc{PostID: postID, Caption: caption}
	created, err := c.captions.CreateOneIfAbsent(ctx, doc)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, alreadyCaptioned(postID)
	}
	return doc, nil
}

func (c *Concept) GetAllCaptions(ctx context.Context) ([]AutoCaptionDoc, error) {
	return c.captions.ReadMany(ctx, nil)
}

// GetByPost returns the post's caption as a list of zero or one entries.
func (c *Concept) GetByPost(ctx context.Context, postID uuid.UUID) ([]AutoCaptionDoc, error) {
	return c.captions.ReadMany(ctx, store.Filter{"post_id": postID})
}

// Update overwrites the caption of postID.
func (c *Concept) Update(ctx context.Context, postID uuid.UUID, caption string) error {
	matched, err := c.captions.PartialUpdateOne(ctx, store.Filter{"post_id": postID}, store.Fields{"caption": caption})
	if err != nil {
		return err
	}
	if !matched {
		return noCaption(postID)
	}
	return nil
}

func (c *Concept) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := c.captions.DeleteOne(ctx, store.Filter{"id": id})
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("AutoCaption", id)
	}
	return nil
}

// DeleteByPost removes the post's caption if there is one and reports whether there was.
func (c *Concept) DeleteByPost(ctx context.Context, postID uuid.UUID) (bool, error) {
	n, err := c.captions.DeleteMany(ctx, store.Filter{"post_id": postID})
	return n > 0, err
}

func (c *Concept) AssertNoCaptionYet(ctx context.Context, postID uuid.UUID) error {
	existing, err := c.captions.ReadOne(ctx, store.Filter{"post_id": postID})
	if err != nil {
		return err
	}
	if existing != nil {
		return alreadyCaptioned(postID)
	}
	return nil
}

func (c *Concept) AssertHasCaption(ctx context.Context, postID uuid.UUID) error {
	existing, err := c.captions.ReadOne(ctx, store.Filter{"post_id": postID})
	if err != nil {
		return err
	}
	if existing == nil {
		return noCaption(postID)
	}
	return nil
}

func alreadyCaptioned(postID uuid.UUID) error {
	return models.NewAlreadyExistsError(fmt.Sprintf("Post %s already has a caption", postID))
}

func noCaption(postID uuid.UUID) error {
	return models.NewNotFoundError("Caption for post", postID)
}
