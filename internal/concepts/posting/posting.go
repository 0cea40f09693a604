// Package posting owns posts: text content, display options and an optional photo.
package posting

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"strider/internal/models"
	"strider/internal/store"
	"strider/internal/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostOptions are display preferences stored alongside a post.
type PostOptions struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
}

// Value stores options as a JSON text column.
func (o PostOptions) Value() (driver.Value, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads options back from the JSON text column.
func (o *PostOptions) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*o = PostOptions{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), o)
	case []byte:
		return json.Unmarshal(v, o)
	default:
		return fmt.Errorf("unsupported post options type %T", src)
	}
}

// PostDoc is a stored post. Photo holds the uploaded image payload as sent, usually a
// base64 data URL.
type PostDoc struct {
	models.BaseDoc
	Author  uuid.UUID   `gorm:"type:uuid;index;not null" json:"author"`
	Content string      `gorm:"type:text" json:"content"`
	Options PostOptions `gorm:"type:text" json:"options"`
	Photo   string      `gorm:"type:text" json:"photo,omitempty"`
}

func (PostDoc) TableName() string { return "posts" }

// Concept manages posts. It never checks that an author exists.
type Concept struct {
	posts *store.Collection[PostDoc]
}

func New(db *gorm.DB) *Concept {
	return &Concept{posts: store.NewCollection[PostDoc](db, "posts")}
}

// Create stores a post. A post needs text, a photo, or both.
func (c *Concept) Create(ctx context.Context, author uuid.UUID, content string, options *PostOptions, photo string) (*PostDoc, error) {
	if err := validation.ValidateContent(content, photo != ""); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	post := &PostDoc{Author: author, Content: content, Photo: photo}
	if options != nil {
		if err := validation.ValidateBackgroundColor(options.BackgroundColor); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		post.Options = *options
	}
	if err := c.posts.CreateOne(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (c *Concept) GetPosts(ctx context.Context) ([]PostDoc, error) {
	return c.posts.ReadMany(ctx, nil)
}

func (c *Concept) GetByAuthor(ctx context.Context, author uuid.UUID) ([]PostDoc, error) {
	return c.posts.ReadMany(ctx, store.Filter{"author": author})
}

func (c *Concept) GetByID(ctx context.Context, id uuid.UUID) (*PostDoc, error) {
	return c.AssertPostExists(ctx, id)
}

// Update applies the non-nil fields. A nil content or options leaves the stored value
// alone; a pointer to the empty string clears the text.
func (c *Concept) Update(ctx context.Context, id uuid.UUID, content *string, options *PostOptions) error {
	fields := store.Fields{}
	if content != nil {
		if err := validation.ValidateContent(*content, true); err != nil {
			return models.NewValidationError(err.Error())
		}
		fields["content"] = *content
	}
	if options != nil {
		if err := validation.ValidateBackgroundColor(options.BackgroundColor); err != nil {
			return models.NewValidationError(err.Error())
		}
		fields["options"] = *options
	}

	matched, err := c.posts.PartialUpdateOne(ctx, store.Filter{"id": id}, fields)
	if err != nil {
		return err
	}
	if !matched {
		return notFound(id)
	}
	return nil
}

func (c *Concept) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := c.posts.DeleteOne(ctx, store.Filter{"id": id})
	if err != nil {
		return err
	}
	if !deleted {
		return notFound(id)
	}
	return nil
}

// AssertAuthorIsUser fails NotFound for a missing post and NotAuthor when user did not write it.
func (c *Concept) AssertAuthorIsUser(ctx context.Context, id, user uuid.UUID) error {
	post, err := c.AssertPostExists(ctx, id)
	if err != nil {
		return err
	}
	if post.Author != user {
		return models.NewNotAuthorError(user, "post", id)
	}
	return nil
}

// AssertPostExists returns the post so callers can skip a second read.
func (c *Concept) AssertPostExists(ctx context.Context, id uuid.UUID) (*PostDoc, error) {
	post, err := c.posts.ReadOne(ctx, store.Filter{"id": id})
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, notFound(id)
	}
	return post, nil
}

func notFound(id uuid.UUID) error {
	return models.NewNotFoundError("Post", id)
}
