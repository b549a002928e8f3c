// Package navigation moves the client to other views, such as the comments
// page of a post.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hungpv1995/postboard/internal/models"
)

// Navigator transitions to path with the given query parameters.
type Navigator interface {
	Push(ctx context.Context, path string, query url.Values) error
}

// ErrNoResponse is returned by Redirector when ctx carries no HTTP response.
var ErrNoResponse = errors.New("no http response bound to context")

// CommentsPath is the per-post comments view.
func CommentsPath(id int) string {
	return fmt.Sprintf("post/%d", id)
}

// PostQuery serializes every field of the post as query parameters.
func PostQuery(p models.Post) url.Values {
	q := url.Values{}
	q.Set("id", strconv.Itoa(p.ID))
	if p.UserID != 0 {
		q.Set("userId", strconv.Itoa(p.UserID))
	}
	q.Set("title", p.Title)
	q.Set("body", p.Body)
	return q
}

// Location renders path and query as a relative URL.
func Location(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

type responseKey struct{}

type response struct {
	w http.ResponseWriter
	r *http.Request
}

// WithResponse binds an HTTP exchange to ctx so a Redirector can answer it.
func WithResponse(ctx context.Context, w http.ResponseWriter, r *http.Request) context.Context {
	return context.WithValue(ctx, responseKey{}, response{w: w, r: r})
}

// Redirector navigates by answering the bound request with 303 See Other.
type Redirector struct {
	base string
}

// NewRedirector returns a Redirector resolving locations under base, e.g. "/".
func NewRedirector(base string) *Redirector {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Redirector{base: base}
}

func (n *Redirector) Push(ctx context.Context, path string, query url.Values) error {
	resp, ok := ctx.Value(responseKey{}).(response)
	if !ok {
		return ErrNoResponse
	}
	http.Redirect(resp.w, resp.r, n.base+Location(path, query), http.StatusSeeOther)
	return nil
}
