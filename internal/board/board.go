// Package board owns the post collection, the edit session and the view
// state, and keeps the persisted snapshot in step with the collection.
//
// All state changes go through a Board; every method is safe for concurrent
// use and mutations are serialized behind a single mutex.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hungpv1995/postboard/internal/models"
	"github.com/hungpv1995/postboard/internal/navigation"
	"github.com/hungpv1995/postboard/internal/snapshot"
	"github.com/hungpv1995/postboard/internal/storage"
	"go.uber.org/zap"
)

var (
	ErrNotReady           = errors.New("board is not ready")
	ErrAlreadyInitialized = errors.New("board already initialized")
	ErrDuplicateID        = errors.New("post id already exists")
	ErrNotFound           = errors.New("post not found")
)

// Fetcher supplies the initial posts when nothing has been stored yet.
type Fetcher interface {
	FetchPosts(ctx context.Context) ([]models.Post, error)
}

// Indexer mirrors the collection into a secondary index. Its failures are
// logged and never fail a board operation. Calls run outside the board lock.
type Indexer interface {
	Replace(ctx context.Context, posts []models.Post) error
	IndexPost(ctx context.Context, post models.Post) error
	DeletePost(ctx context.Context, id int) error
}

// DefaultMirrorTimeout bounds each Indexer call when Options.MirrorTimeout is
// unset.
const DefaultMirrorTimeout = 5 * time.Second

// Options selects board policies and optional collaborators.
type Options struct {
	// PersistEmpty writes an empty snapshot when the last post is deleted.
	PersistEmpty bool
	// ResetPageOnSearch returns to page 1 on every query change.
	ResetPageOnSearch bool

	Indexer       Indexer
	MirrorTimeout time.Duration
	Logger        *zap.Logger
}

type Board struct {
	store   storage.Store
	fetcher Fetcher
	nav     navigation.Navigator
	opts    Options
	logger  *zap.Logger

	mu      sync.Mutex
	started bool
	state   State
	initErr error
	posts   []models.Post
	edit    models.EditSession
	query   string
	page    int
}

func New(store storage.Store, fetcher Fetcher, nav navigation.Navigator, opts Options) *Board {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MirrorTimeout <= 0 {
		opts.MirrorTimeout = DefaultMirrorTimeout
	}
	return &Board{
		store:   store,
		fetcher: fetcher,
		nav:     nav,
		opts:    opts,
		logger:  logger,
		state:   StateLoading,
		posts:   []models.Post{},
		page:    1,
	}
}

// Initialize seeds the collection from the stored snapshot, or from the
// fetcher when no usable snapshot exists. It runs once per Board; later
// calls return ErrAlreadyInitialized. On failure the board moves to
// StateFailed and Retry may be used.
func (b *Board) Initialize(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return ErrAlreadyInitialized
	}
	b.started = true
	b.mu.Unlock()

	return b.load(ctx)
}

// Retry re-runs a failed initialization.
func (b *Board) Retry(ctx context.Context) error {
	b.mu.Lock()
	switch b.state {
	case StateReady:
		b.mu.Unlock()
		return ErrAlreadyInitialized
	case StateLoading:
		b.mu.Unlock()
		return ErrNotReady
	}
	b.state = StateLoading
	b.initErr = nil
	b.mu.Unlock()

	return b.load(ctx)
}

func (b *Board) load(ctx context.Context) error {
	posts, fetched, err := b.seed(ctx)

	b.mu.Lock()
	if err == nil && fetched {
		err = b.persistLocked(ctx, posts)
	}
	if err != nil {
		b.state = StateFailed
		b.initErr = err
		b.mu.Unlock()
		b.logger.Error("Board initialization failed", zap.Error(err))
		return err
	}

	b.posts = posts
	b.state = StateReady
	b.mu.Unlock()

	b.logger.Info("Board ready",
		zap.Int("posts", len(posts)),
		zap.Bool("fetched", fetched))

	b.mirror(ctx, "Failed to mirror posts to index", func(ctx context.Context, idx Indexer) error {
		return idx.Replace(ctx, posts)
	})
	return nil
}

// mirror runs fn against the indexer, if any, with a bounded context. It must
// be called without b.mu held.
func (b *Board) mirror(ctx context.Context, msg string, fn func(context.Context, Indexer) error, fields ...zap.Field) {
	if b.opts.Indexer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, b.opts.MirrorTimeout)
	defer cancel()

	if err := fn(ctx, b.opts.Indexer); err != nil {
		b.logger.Warn(msg, append(fields, zap.Error(err))...)
	}
}

// seed reads the snapshot, falling back to the fetcher when it is absent or
// unusable. fetched reports whether the posts came from the fetcher.
func (b *Board) seed(ctx context.Context) (posts []models.Post, fetched bool, err error) {
	data, ok, err := b.store.Get(ctx, snapshot.Key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if ok {
		stored, err := snapshot.Decode(data)
		if err == nil {
			b.logger.Debug("Loaded posts from snapshot", zap.Int("posts", len(stored)))
			return stored, false, nil
		}
		b.logger.Warn("Stored snapshot is unusable, fetching from remote", zap.Error(err))
	}

	remote, err := b.fetcher.FetchPosts(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch posts: %w", err)
	}
	return b.uniqueByID(remote), true, nil
}

// uniqueByID drops posts whose id was already seen, keeping the first.
func (b *Board) uniqueByID(posts []models.Post) []models.Post {
	seen := make(map[int]struct{}, len(posts))
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if _, dup := seen[p.ID]; dup {
			b.logger.Warn("Dropping fetched post with duplicate id", zap.Int("id", p.ID))
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// persistLocked overwrites the snapshot with posts.
func (b *Board) persistLocked(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 && !b.opts.PersistEmpty {
		b.logger.Debug("Skipping persist of empty collection")
		return nil
	}

	data, err := snapshot.Encode(posts)
	if err != nil {
		return err
	}
	if err := b.store.Set(ctx, snapshot.Key, data); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}

// commitLocked persists next and only then makes it the collection, so a
// failed write leaves the board unchanged.
func (b *Board) commitLocked(ctx context.Context, next []models.Post) error {
	if err := b.persistLocked(ctx, next); err != nil {
		return err
	}
	b.posts = next
	return nil
}

func (b *Board) readyLocked() error {
	if b.state != StateReady {
		return ErrNotReady
	}
	return nil
}

func (b *Board) indexOfLocked(id int) int {
	for i, p := range b.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Create saves post. Without an edit session the post is prepended. With
// one, the post replaces the edit target in place and the session ends. A
// target that no longer exists is treated as a fresh create.
func (b *Board) Create(ctx context.Context, post models.Post) error {
	replaced, edited, err := b.create(ctx, post)
	if err != nil {
		return err
	}

	if edited && replaced != post.ID {
		b.mirror(ctx, "Failed to remove post from index", func(ctx context.Context, idx Indexer) error {
			return idx.DeletePost(ctx, replaced)
		}, zap.Int("id", replaced))
	}
	b.mirror(ctx, "Failed to index post", func(ctx context.Context, idx Indexer) error {
		return idx.IndexPost(ctx, post)
	}, zap.Int("id", post.ID))
	return nil
}

// create applies post under the lock. When it overwrote the edit target,
// edited is set and replaced holds the target's id.
func (b *Board) create(ctx context.Context, post models.Post) (replaced int, edited bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.readyLocked(); err != nil {
		return 0, false, err
	}

	var next []models.Post
	editing := b.edit.Active
	idx := -1
	if editing {
		idx = b.indexOfLocked(b.edit.Target.ID)
	}

	if idx >= 0 {
		if other := b.indexOfLocked(post.ID); other >= 0 && other != idx {
			return 0, false, fmt.Errorf("%w: %d", ErrDuplicateID, post.ID)
		}
		replaced, edited = b.posts[idx].ID, true
		next = make([]models.Post, len(b.posts))
		copy(next, b.posts)
		next[idx] = post
	} else {
		if editing {
			b.logger.Info("Edit target no longer exists, saving as new post",
				zap.Int("target", b.edit.Target.ID))
		}
		if b.indexOfLocked(post.ID) >= 0 {
			return 0, false, fmt.Errorf("%w: %d", ErrDuplicateID, post.ID)
		}
		next = make([]models.Post, 0, len(b.posts)+1)
		next = append(next, post)
		next = append(next, b.posts...)
	}

	if err := b.commitLocked(ctx, next); err != nil {
		return 0, false, err
	}
	if editing {
		b.edit = models.EditSession{}
	}
	return replaced, edited, nil
}

// BeginEdit makes post the edit target.
func (b *Board) BeginEdit(post models.Post) {
	b.mu.Lock()
	defer b.mu.Unlock()

	target := post
	b.edit = models.EditSession{Active: true, Target: &target}
}

// CancelEdit ends the edit session without touching the collection.
func (b *Board) CancelEdit() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.edit = models.EditSession{}
}

// Delete removes the post with id. An unknown id is a no-op.
func (b *Board) Delete(ctx context.Context, id int) error {
	removed, err := b.remove(ctx, id)
	if err != nil || !removed {
		return err
	}

	b.mirror(ctx, "Failed to remove post from index", func(ctx context.Context, idx Indexer) error {
		return idx.DeletePost(ctx, id)
	}, zap.Int("id", id))
	return nil
}

func (b *Board) remove(ctx context.Context, id int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.readyLocked(); err != nil {
		return false, err
	}

	idx := b.indexOfLocked(id)
	if idx < 0 {
		return false, nil
	}

	next := make([]models.Post, 0, len(b.posts)-1)
	next = append(next, b.posts[:idx]...)
	next = append(next, b.posts[idx+1:]...)

	if err := b.commitLocked(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// NavigateToComments hands the post to the navigator for its comments view.
func (b *Board) NavigateToComments(ctx context.Context, post models.Post) error {
	return b.nav.Push(ctx, navigation.CommentsPath(post.ID), navigation.PostQuery(post))
}

func (b *Board) SetSearchQuery(query string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.query = query
	if b.opts.ResetPageOnSearch {
		b.page = 1
	}
}

// SetPage moves to page n; values below 1 become 1.
func (b *Board) SetPage(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n < 1 {
		n = 1
	}
	b.page = n
}

// Posts returns a copy of the full collection.
func (b *Board) Posts() []models.Post {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.Post, len(b.posts))
	copy(out, b.posts)
	return out
}

// NextID returns one above the largest id in use.
func (b *Board) NextID() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	highest := 0
	for _, p := range b.posts {
		if p.ID > highest {
			highest = p.ID
		}
	}
	return highest + 1
}

// Post looks a post up by id.
func (b *Board) Post(id int) (models.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if idx := b.indexOfLocked(id); idx >= 0 {
		return b.posts[idx], nil
	}
	return models.Post{}, fmt.Errorf("%w: %d", ErrNotFound, id)
}

func (b *Board) EditSession() models.EditSession {
	b.mu.Lock()
	defer b.mu.Unlock()

	session := b.edit
	if session.Target != nil {
		target := *session.Target
		session.Target = &target
	}
	return session
}

// View computes the current page from the collection and the view state.
func (b *Board) View() models.Page {
	b.mu.Lock()
	defer b.mu.Unlock()

	filtered := Filter(b.posts, b.query)
	totalPages := TotalPages(len(filtered), PageSize)
	return models.Page{
		Query:      b.query,
		Page:       b.page,
		PageSize:   PageSize,
		Total:      len(filtered),
		TotalPages: totalPages,
		Pages:      PageNumbers(totalPages),
		Posts:      Paginate(filtered, b.page, PageSize),
	}
}

// Status reports the lifecycle state and, when failed, the cause.
func (b *Board) Status() (State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, b.initErr
}
