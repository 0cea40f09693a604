package autocaptioning_test

import (
	"context"
	"sync"
	"testing"

	"strider/internal/concepts/autocaptioning"
	"strider/internal/models"
	"strider/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAutoCaptioning(t *testing.T) *autocaptioning.Concept {
	t.Helper()
	return autocaptioning.New(testutil.NewDB(t, &autocaptioning.AutoCaptionDoc{}))
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.HasCode(err, code), "want %s, got %v", code, err)
}

func TestCreateIsOncePerPost(t *testing.T) {
	ctx := context.Background()
	captions := newAutoCaptioning(t)
	post := uuid.New()

	require.NoError(t, captions.AssertNoCaptionYet(ctx, post))
	assertCode(t, captions.AssertHasCaption(ctx, post), models.CodeNotFound)

	_, err := captions.Create(ctx, post, "a photo")
	require.NoError(t, err)

	_, err = captions.Create(ctx, post, "another photo")
	assertCode(t, err, models.CodeAlreadyExists)
	assertCode(t, captions.AssertNoCaptionYet(ctx, post), models.CodeAlreadyExists)
	assert.NoError(t, captions.AssertHasCaption(ctx, post))

	got, err := captions.GetByPost(ctx, post)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a photo", got[0].Caption)
}

func TestConcurrentCreateLeavesOneCaption(t *testing.T) {
	ctx := context.Background()
	captions := newAutoCaptioning(t)
	post := uuid.New()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = captions.Create(ctx, post, "caption")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assertCode(t, err, models.CodeAlreadyExists)
		}
	}
	assert.Equal(t, 1, succeeded)

	got, err := captions.GetByPost(ctx, post)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestUpdateByPost(t *testing.T) {
	ctx := context.Background()
	captions := newAutoCaptioning(t)
	post := uuid.New()

	assertCode(t, captions.Update(ctx, post, "x"), models.CodeNotFound)

	_, err := captions.Create(ctx, post, "old")
	require.NoError(t, err)
	require.NoError(t, captions.Update(ctx, post, "new"))

	got, err := captions.GetByPost(ctx, post)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Caption)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	captions := newAutoCaptioning(t)
	p1, p2 := uuid.New(), uuid.New()

	c1, err := captions.Create(ctx, p1, "one")
	require.NoError(t, err)
	_, err = captions.Create(ctx, p2, "two")
	require.NoError(t, err)

	require.NoError(t, captions.Delete(ctx, c1.ID))
	assertCode(t, captions.Delete(ctx, c1.ID), models.CodeNotFound)

	removed, err := captions.DeleteByPost(ctx, p2)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = captions.DeleteByPost(ctx, p2)
	require.NoError(t, err)
	assert.False(t, removed)

	all, err := captions.GetAllCaptions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
