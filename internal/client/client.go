// Package client keeps a local view of the signed-in user's data consistent
// with the FitConnect API. A presentation layer reads State and calls the
// action methods; everything else happens in the background.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"fitconnect/internal/appstate"
	"fitconnect/internal/backend"
	"fitconnect/internal/backend/httpbackend"
	"fitconnect/internal/booking"
	"fitconnect/internal/config"
	"fitconnect/internal/favorite"
	"fitconnect/internal/logger"
	"fitconnect/internal/metrics"
	"fitconnect/internal/mirror"
	"fitconnect/internal/user"
)

// Policy decides what a mutation does when the API cannot be reached.
type Policy int

const (
	// FailOpen applies the change locally anyway and still returns the error.
	FailOpen Policy = iota
	// FailClosed leaves the cache untouched.
	FailClosed
)

const (
	DefaultLogoutTimeout = 3 * time.Second
	DefaultReadTimeout   = 5 * time.Second
)

var (
	ErrTimeout     = errors.New("request timed out")
	ErrNotSignedIn = errors.New("sign in required")
	ErrClosed      = errors.New("client closed")
)

type Options struct {
	Policy        Policy
	LogoutTimeout time.Duration
	ReadTimeout   time.Duration
}

// FromConfig maps the YAML client config onto Options.
func FromConfig(cfg *config.ClientConfig) Options {
	opts := Options{
		LogoutTimeout: cfg.Sync.LogoutTimeout,
		ReadTimeout:   cfg.Sync.ReadTimeout,
	}
	if cfg.Sync.FailurePolicy == config.PolicyFailClosed {
		opts.Policy = FailClosed
	}
	return opts
}

type Client struct {
	backend backend.Backend
	mirror  mirror.Store
	opts    Options
	store   *appstate.Store

	// syncMu runs initialization and auth events one at a time.
	syncMu sync.Mutex

	qmu     sync.Mutex
	pending []backend.SessionEvent
	wake    chan struct{}

	mirrorMu      sync.Mutex
	mirrorVersion uint64

	localID atomic.Int64

	startOnce   sync.Once
	closeOnce   sync.Once
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	unsubscribe []func()
	started     atomic.Bool
	closed      atomic.Bool
}

func New(b backend.Backend, m mirror.Store, opts Options) *Client {
	if opts.LogoutTimeout <= 0 {
		opts.LogoutTimeout = DefaultLogoutTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		backend: b,
		mirror:  m,
		opts:    opts,
		store:   appstate.NewStore(appstate.Initial()),
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Open builds a client over the REST API and a SQLite mirror as described by
// cfg. The caller still has to Start it.
func Open(cfg *config.ClientConfig) (*Client, error) {
	api, err := httpbackend.New(httpbackend.Options{
		BaseURL:       cfg.Backend.BaseURL,
		Timeout:       cfg.Backend.RequestTimeout,
		OAuthRedirect: cfg.Backend.OAuthRedirect,
		Watch:         cfg.Backend.WatchEvents,
	})
	if err != nil {
		return nil, err
	}

	store, err := mirror.OpenSQLite(cfg.Mirror.Path)
	if err != nil {
		api.Close()
		return nil, err
	}

	return New(api, store, FromConfig(cfg)), nil
}

// Start loads the current session, if any, and begins following session
// changes. Only the first call does anything. Failures end up in State().Err.
func (c *Client) Start(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.startOnce.Do(func() {
		c.unsubscribe = append(c.unsubscribe,
			c.store.Subscribe(c.writeMirror),
			c.backend.OnAuthStateChange(c.enqueue),
		)
		c.started.Store(true)
		go c.loop()

		c.syncMu.Lock()
		c.initialize(ctx)
		c.syncMu.Unlock()
	})
	return nil
}

// Close stops following session changes and releases the backend and the
// mirror.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		// waits for a Start in progress and keeps later ones from running
		c.startOnce.Do(func() {})

		for _, unsubscribe := range c.unsubscribe {
			unsubscribe()
		}
		c.cancel()
		if c.started.Load() {
			<-c.done
		}

		err = errors.Join(c.backend.Close(), c.mirror.Close())
	})
	return err
}

func (c *Client) State() appstate.State {
	return c.store.State()
}

// Subscribe calls l after every state change until the returned function is
// called.
func (c *Client) Subscribe(l appstate.Listener) (unsubscribe func()) {
	return c.store.Subscribe(l)
}

func (c *Client) IsStudioFavorited(id int) bool {
	return c.store.State().IsStudioFavorited(id)
}

func (c *Client) IsClassFavorited(id int) bool {
	return c.store.State().IsClassFavorited(id)
}

// enqueue may be called from inside a backend call made by the loop itself,
// so it never blocks.
func (c *Client) enqueue(ev backend.SessionEvent) {
	c.qmu.Lock()
	c.pending = append(c.pending, ev)
	c.qmu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Client) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.wake:
		}

		for {
			c.qmu.Lock()
			if len(c.pending) == 0 {
				c.qmu.Unlock()
				break
			}
			ev := c.pending[0]
			c.pending = c.pending[1:]
			c.qmu.Unlock()

			if c.ctx.Err() != nil {
				return
			}
			c.handle(ev)
		}
	}
}

func (c *Client) handle(ev backend.SessionEvent) {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	logger.Debug("Session event", "event", ev.Type)

	switch ev.Type {
	case backend.EventSignedIn, backend.EventTokenRefreshed:
		c.initialize(c.ctx)
	case backend.EventSignedOut:
		if err := c.signOutLocal(c.ctx); err != nil {
			logger.Warn("Failed to clear local mirror", "error", err)
		}
	}
}

// initialize pulls the session, profile, bookings and favorites and lands
// them with one Hydrate.
func (c *Client) initialize(ctx context.Context) {
	gen := c.store.State().Generation

	sess, err := c.backend.GetSession(ctx)
	if err != nil {
		c.fail(fmt.Errorf("load session: %w", err))
		return
	}
	if sess == nil {
		if c.store.State().SignedIn() {
			if err := c.signOutLocal(ctx); err != nil {
				logger.Warn("Failed to clear local mirror", "error", err)
			}
			return
		}
		c.store.Dispatch(appstate.SetLoading{Loading: false})
		return
	}

	profile, err := c.loadProfile(ctx, sess)
	if err != nil {
		c.fail(fmt.Errorf("load profile: %w", err))
		return
	}

	var (
		wg       sync.WaitGroup
		bookings []booking.Booking
		favs     favorite.Set
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		bookings = c.loadBookings(ctx)
	}()
	go func() {
		defer wg.Done()
		favs = c.loadFavorites(ctx)
	}()
	wg.Wait()

	s := c.store.Dispatch(appstate.Hydrate{
		User:      profile,
		Session:   sess,
		Bookings:  bookings,
		Favorites: favs,
		Gen:       gen,
	})
	if s.User != profile {
		logger.Info("Signed out while loading, client state dropped", "user_id", profile.ID)
		return
	}
	logger.Info("Client state loaded", "user_id", profile.ID, "bookings", len(bookings))
}

func (c *Client) fail(err error) {
	logger.Error("Client initialization failed", "error", err)
	// mirror keys survive a failed start
	c.store.Dispatch(appstate.SignedOut{})
	c.store.Dispatch(appstate.SetError{Err: err})
}

// loadProfile falls back to a profile built from the sign-in identity when
// no profile row exists yet.
func (c *Client) loadProfile(ctx context.Context, sess *backend.Session) (*user.User, error) {
	profile, err := c.backend.Profile(ctx, sess.User.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, backend.ErrNotFound) {
		return nil, err
	}

	name := sess.User.FullName
	if name == "" {
		name = "User"
	}
	return &user.User{
		ID:          sess.User.ID,
		Email:       sess.User.Email,
		FullName:    name,
		AvatarURL:   user.DefaultAvatarURL,
		Role:        sess.User.Role,
		MemberSince: sess.User.CreatedAt,
	}, nil
}

func (c *Client) loadBookings(ctx context.Context) []booking.Booking {
	bookings, err := c.backend.Bookings(ctx)
	if err == nil {
		return bookings
	}

	logger.Warn("Falling back to mirrored bookings", "error", err)
	metrics.RecordLocalFallback("load_bookings")
	bookings, err = mirror.LoadBookings(ctx, c.mirror)
	if err != nil && !errors.Is(err, mirror.ErrNotFound) {
		logger.Warn("Mirrored bookings unreadable", "error", err)
	}
	return bookings
}

func (c *Client) loadFavorites(ctx context.Context) favorite.Set {
	set, err := c.backend.Favorites(ctx)
	if err == nil {
		return *set
	}

	logger.Warn("Falling back to mirrored favorites", "error", err)
	metrics.RecordLocalFallback("load_favorites")
	studios, err := mirror.LoadIDs(ctx, c.mirror, mirror.KeyFavoriteStudios)
	if err != nil && !errors.Is(err, mirror.ErrNotFound) {
		logger.Warn("Mirrored favorite studios unreadable", "error", err)
	}
	classes, err := mirror.LoadIDs(ctx, c.mirror, mirror.KeyFavoriteClasses)
	if err != nil && !errors.Is(err, mirror.ErrNotFound) {
		logger.Warn("Mirrored favorite classes unreadable", "error", err)
	}
	return favorite.Set{Studios: studios, Classes: classes}
}

// signOutLocal resets the cache and drops every mirrored key.
func (c *Client) signOutLocal(ctx context.Context) error {
	c.mirrorMu.Lock()
	defer c.mirrorMu.Unlock()

	c.store.Dispatch(appstate.SignedOut{})
	c.mirrorVersion = c.store.Version()
	return c.mirror.Delete(ctx, mirror.Keys...)
}

// writeMirror overwrites the mirror with the signed-in user's bookings and
// favorites. A state older than the last one written is dropped.
func (c *Client) writeMirror(version uint64, s appstate.State) {
	if !s.SignedIn() {
		return
	}

	c.mirrorMu.Lock()
	defer c.mirrorMu.Unlock()
	if version <= c.mirrorVersion {
		return
	}
	c.mirrorVersion = version

	err := errors.Join(
		mirror.SaveBookings(c.ctx, c.mirror, s.Bookings),
		mirror.SaveIDs(c.ctx, c.mirror, mirror.KeyFavoriteStudios, s.FavoriteStudios.Sorted()),
		mirror.SaveIDs(c.ctx, c.mirror, mirror.KeyFavoriteClasses, s.FavoriteClasses.Sorted()),
	)
	if err != nil {
		logger.Warn("Failed to write local mirror", "error", err)
	}
}

// fallback reports whether a failed mutation should still be applied
// locally.
func (c *Client) fallback(op string, err error) bool {
	if c.opts.Policy != FailOpen || !backend.IsUnavailable(err) {
		return false
	}
	logger.Warn("API unreachable, applying change locally", "operation", op, "error", err)
	metrics.RecordLocalFallback(op)
	return true
}

// signedIn returns the current state, or ErrNotSignedIn. Actions stamp what
// they dispatch with its Generation so a result that lands after a sign-out
// is dropped.
func (c *Client) signedIn() (appstate.State, error) {
	s := c.store.State()
	if !s.SignedIn() {
		return s, ErrNotSignedIn
	}
	return s, nil
}

type guarded[T any] struct {
	v   T
	err error
}

// guard runs fn with a deadline and gives up with ErrTimeout when the
// deadline passes, even if fn ignores its context.
func guard[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	ch := make(chan guarded[T], 1)
	go func() {
		v, err := fn(ctx)
		ch <- guarded[T]{v, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			var zero T
			return zero, ErrTimeout
		}
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}
