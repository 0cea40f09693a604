// Package store provides the document-store adapter every concept persists through.
// A Collection owns one document kind; concepts never share a Collection.
package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"strider/internal/models"
	"strider/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filter selects documents by column equality. An empty Filter matches every document.
type Filter map[string]any

// Fields is a partial update. Entries holding nil (including typed nil pointers) are absent
// and leave the stored value untouched.
type Fields map[string]any

// Sort orders a ReadMany result.
type Sort struct {
	Column string
	Desc   bool
}

// NewestFirst is the default ordering for ReadMany.
var NewestFirst = []Sort{{Column: "created_at", Desc: true}, {Column: "id", Desc: true}}

// Document is implemented by every type embedding models.BaseDoc.
type Document interface {
	DocID() uuid.UUID
}

// Collection is a typed handle on one document kind.
type Collection[T any] struct {
	db   *gorm.DB
	name string
}

// NewCollection binds a collection of T to db. name labels metrics and spans.
func NewCollection[T any](db *gorm.DB, name string) *Collection[T] {
	return &Collection[T]{db: db, name: name}
}

// Name returns the collection label.
func (c *Collection[T]) Name() string {
	return c.name
}

// WithTx returns a copy of the collection bound to an open transaction.
func (c *Collection[T]) WithTx(tx *gorm.DB) *Collection[T] {
	return &Collection[T]{db: tx, name: c.name}
}

// Transaction runs fn inside a database transaction on the collection's connection.
func (c *Collection[T]) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.db.WithContext(ctx).Transaction(fn)
}

// CreateOne inserts doc. A uniqueness violation is reported as AlreadyExists.
func (c *Collection[T]) CreateOne(ctx context.Context, doc *T) (err error) {
	ctx, done := c.track(ctx, "create")
	defer func() { done(err) }()

	if err := c.db.WithContext(ctx).Create(doc).Error; err != nil {
		if IsUniqueViolation(err) {
			return models.NewAlreadyExistsError(fmt.Sprintf("%s document already exists", c.name))
		}
		return models.NewInternalError(fmt.Errorf("create %s: %w", c.name, err))
	}
	return nil
}

// CreateOneIfAbsent inserts doc unless a uniqueness constraint already holds a matching
// document. The check and the insert are a single statement, so concurrent callers cannot
// both succeed.
func (c *Collection[T]) CreateOneIfAbsent(ctx context.Context, doc *T) (created bool, err error) {
	ctx, done := c.track(ctx, "create_if_absent")
	defer func() { done(err) }()

	res := c.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(doc)
	if res.Error != nil {
		return false, models.NewInternalError(fmt.Errorf("conditional create %s: %w", c.name, res.Error))
	}
	return res.RowsAffected > 0, nil
}

// ReadOne returns the first document matching filter, or nil when there is none.
func (c *Collection[T]) ReadOne(ctx context.Context, filter Filter) (_ *T, err error) {
	ctx, done := c.track(ctx, "read_one")
	defer func() { done(err) }()

	var doc T
	err = c.db.WithContext(ctx).Where(map[string]any(filter)).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("read %s: %w", c.name, err))
	}
	return &doc, nil
}

// ReadMany returns every document matching filter, NewestFirst unless sorts are given.
func (c *Collection[T]) ReadMany(ctx context.Context, filter Filter, sorts ...Sort) (_ []T, err error) {
	ctx, done := c.track(ctx, "read_many")
	defer func() { done(err) }()

	if len(sorts) == 0 {
		sorts = NewestFirst
	}

	q := c.db.WithContext(ctx)
	if len(filter) > 0 {
		q = q.Where(map[string]any(filter))
	}
	for _, s := range sorts {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: s.Column}, Desc: s.Desc})
	}

	docs := make([]T, 0)
	if err := q.Find(&docs).Error; err != nil {
		return nil, models.NewInternalError(fmt.Errorf("list %s: %w", c.name, err))
	}
	return docs, nil
}

// ReadManyOr returns every document matching at least one of filters, NewestFirst.
func (c *Collection[T]) ReadManyOr(ctx context.Context, filters ...Filter) (_ []T, err error) {
	ctx, done := c.track(ctx, "read_many")
	defer func() { done(err) }()

	q := c.db.WithContext(ctx)
	for i, f := range filters {
		if i == 0 {
			q = q.Where(map[string]any(f))
		} else {
			q = q.Or(map[string]any(f))
		}
	}
	for _, s := range NewestFirst {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: s.Column}, Desc: s.Desc})
	}

	docs := make([]T, 0)
	if err := q.Find(&docs).Error; err != nil {
		return nil, models.NewInternalError(fmt.Errorf("list %s: %w", c.name, err))
	}
	return docs, nil
}

// ReadIn returns every document whose column value is one of values.
func (c *Collection[T]) ReadIn(ctx context.Context, column string, values any) (_ []T, err error) {
	ctx, done := c.track(ctx, "read_in")
	defer func() { done(err) }()

	docs := make([]T, 0)
	if err := c.db.WithContext(ctx).Where(clause.IN{Column: clause.Column{Name: column}, Values: toAnySlice(values)}).Find(&docs).Error; err != nil {
		return nil, models.NewInternalError(fmt.Errorf("list %s by %s: %w", c.name, column, err))
	}
	return docs, nil
}

// PartialUpdateOne applies the present entries of fields to the document matching filter
// and refreshes its modification time. It reports whether a document matched.
func (c *Collection[T]) PartialUpdateOne(ctx context.Context, filter Filter, fields Fields) (matched bool, err error) {
	ctx, done := c.track(ctx, "update")
	defer func() { done(err) }()

	updates := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		if isAbsent(v) {
			continue
		}
		updates[k] = v
	}
	updates["updated_at"] = time.Now()

	res := c.db.WithContext(ctx).Model(new(T)).Where(map[string]any(filter)).Updates(updates)
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return false, models.NewAlreadyExistsError(fmt.Sprintf("%s document already exists", c.name))
		}
		return false, models.NewInternalError(fmt.Errorf("update %s: %w", c.name, res.Error))
	}
	return res.RowsAffected > 0, nil
}

// DeleteOne removes the document matching filter and reports whether one matched.
func (c *Collection[T]) DeleteOne(ctx context.Context, filter Filter) (bool, error) {
	n, err := c.delete(ctx, "delete", filter)
	return n > 0, err
}

// DeleteMany removes every document matching filter and returns how many went.
func (c *Collection[T]) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	return c.delete(ctx, "delete_many", filter)
}

func (c *Collection[T]) delete(ctx context.Context, op string, filter Filter) (_ int64, err error) {
	ctx, done := c.track(ctx, op)
	defer func() { done(err) }()

	if len(filter) == 0 {
		return 0, models.NewBadRequestError("refusing to delete without a filter")
	}
	res := c.db.WithContext(ctx).Where(map[string]any(filter)).Delete(new(T))
	if res.Error != nil {
		return 0, models.NewInternalError(fmt.Errorf("delete %s: %w", c.name, res.Error))
	}
	return res.RowsAffected, nil
}

// track opens a span and a latency observation for one store operation.
func (c *Collection[T]) track(ctx context.Context, op string) (context.Context, func(error)) {
	return observability.TrackStoreOp(ctx, c.name, op)
}

func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func toAnySlice(values any) []any {
	rv := reflect.ValueOf(values)
	if rv.Kind() != reflect.Slice {
		return []any{values}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
