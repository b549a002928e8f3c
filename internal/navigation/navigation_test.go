package navigation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hungpv1995/postboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostQuery(t *testing.T) {
	q := PostQuery(models.Post{ID: 4, UserID: 2, Title: "Hello & bye", Body: "a b"})

	assert.Equal(t, "4", q.Get("id"))
	assert.Equal(t, "2", q.Get("userId"))
	assert.Equal(t, "Hello & bye", q.Get("title"))
	assert.Equal(t, "a b", q.Get("body"))

	q = PostQuery(models.Post{ID: 1, Title: "t"})
	assert.False(t, q.Has("userId"))
	assert.True(t, q.Has("body"))
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "post/3", Location(CommentsPath(3), nil))

	loc := Location(CommentsPath(3), url.Values{"title": {"a b"}, "id": {"3"}})
	assert.Equal(t, "post/3?id=3&title=a+b", loc)
}

func TestRedirectorPush(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/posts/3/comments", nil)
	ctx := WithResponse(req.Context(), rec, req)

	err := NewRedirector("/").Push(ctx, CommentsPath(3), url.Values{"id": {"3"}})
	require.NoError(t, err)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/post/3?id=3", rec.Header().Get("Location"))
}

func TestRedirectorWithoutResponse(t *testing.T) {
	err := NewRedirector("/app").Push(context.Background(), "post/1", nil)
	assert.ErrorIs(t, err, ErrNoResponse)
}
