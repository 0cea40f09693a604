package commenting_test

import (
	"context"
	"testing"

	"strider/internal/concepts/commenting"
	"strider/internal/models"
	"strider/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommenting(t *testing.T) *commenting.Concept {
	t.Helper()
	return commenting.New(testutil.NewDB(t, &commenting.CommentDoc{}))
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.HasCode(err, code), "want %s, got %v", code, err)
}

func TestCreateAndFilter(t *testing.T) {
	ctx := context.Background()
	comments := newCommenting(t)
	alice, bob := uuid.New(), uuid.New()
	post, other := uuid.New(), uuid.New()

	_, err := comments.Create(ctx, alice, post, "first")
	require.NoError(t, err)
	_, err = comments.Create(ctx, bob, post, "second")
	require.NoError(t, err)
	_, err = comments.Create(ctx, alice, other, "elsewhere")
	require.NoError(t, err)

	onPost, err := comments.GetByPost(ctx, post)
	require.NoError(t, err)
	require.Len(t, onPost, 2)
	assert.Equal(t, "second", onPost[0].Content)

	byAlice, err := comments.GetByAuthor(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, byAlice, 2)

	all, err := comments.GetComments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = comments.Create(ctx, alice, post, "  ")
	assertCode(t, err, models.CodeValidation)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	comments := newCommenting(t)

	c, err := comments.Create(ctx, uuid.New(), uuid.New(), "draft")
	require.NoError(t, err)

	require.NoError(t, comments.Update(ctx, c.ID, nil))
	got, err := comments.GetByPost(ctx, c.PostID)
	require.NoError(t, err)
	assert.Equal(t, "draft", got[0].Content)

	final := "final"
	require.NoError(t, comments.Update(ctx, c.ID, &final))
	got, err = comments.GetByPost(ctx, c.PostID)
	require.NoError(t, err)
	assert.Equal(t, "final", got[0].Content)

	assertCode(t, comments.Update(ctx, uuid.New(), &final), models.CodeNotFound)
}

func TestDeleteAndDeleteByPost(t *testing.T) {
	ctx := context.Background()
	comments := newCommenting(t)
	post := uuid.New()

	c1, err := comments.Create(ctx, uuid.New(), post, "a")
	require.NoError(t, err)
	_, err = comments.Create(ctx, uuid.New(), post, "b")
	require.NoError(t, err)
	_, err = comments.Create(ctx, uuid.New(), post, "c")
	require.NoError(t, err)

	require.NoError(t, comments.Delete(ctx, c1.ID))
	assertCode(t, comments.Delete(ctx, c1.ID), models.CodeNotFound)

	n, err := comments.DeleteByPost(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := comments.GetByPost(ctx, post)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestAssertAuthorIsUser(t *testing.T) {
	ctx := context.Background()
	comments := newCommenting(t)
	alice := uuid.New()

	c, err := comments.Create(ctx, alice, uuid.New(), "hi")
	require.NoError(t, err)

	assert.NoError(t, comments.AssertAuthorIsUser(ctx, c.ID, alice))
	assertCode(t, comments.AssertAuthorIsUser(ctx, c.ID, uuid.New()), models.CodeNotAuthor)
	assertCode(t, comments.AssertAuthorIsUser(ctx, uuid.New(), alice), models.CodeNotFound)
}
