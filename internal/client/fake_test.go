package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fitconnect/internal/backend"
	"fitconnect/internal/booking"
	"fitconnect/internal/favorite"
	"fitconnect/internal/offering"
	"fitconnect/internal/studio"
	"fitconnect/internal/user"
)

const testPassword = "secret123"

// fakeBackend is an in-process stand-in for the API with just enough
// behaviour for the client: capacity checks, toggles and auth events.
type fakeBackend struct {
	mu sync.Mutex

	session    *backend.Session
	account    user.AuthUser
	profile    *user.User
	profileErr error
	bookings   []booking.Booking
	favorites  favorite.Set
	classes    map[int]*offering.Offering
	nextID     int

	// authDown and dataDown make the matching calls fail as unreachable.
	authDown bool
	dataDown bool

	signOut          func(ctx context.Context) error
	classesFn        func(ctx context.Context, q offering.Query) ([]offering.Offering, error)
	createProfileErr error
	profilesCreated  int
	remoteCalls      int

	lmu       sync.Mutex
	listeners map[int]func(backend.SessionEvent)
	nextL     int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		account: user.AuthUser{
			ID:        1,
			Email:     "ada@example.com",
			Role:      "user",
			FullName:  "Ada Lovelace",
			CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		classes:   map[int]*offering.Offering{},
		favorites: favorite.Set{Studios: []int{}, Classes: []int{}},
		nextID:    100,
		listeners: map[int]func(backend.SessionEvent){},
	}
}

func unavailable(op string) error {
	return fmt.Errorf("%w: %s: connection refused", backend.ErrUnavailable, op)
}

// signIn puts a session in place without announcing it.
func (f *fakeBackend) signIn() *backend.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = &backend.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(15 * time.Minute),
		User:         f.account,
	}
	return f.session
}

// endSession is a server-side sign-out.
func (f *fakeBackend) endSession() {
	f.mu.Lock()
	f.session = nil
	f.mu.Unlock()
	f.emit(backend.SessionEvent{Type: backend.EventSignedOut})
}

func (f *fakeBackend) emit(ev backend.SessionEvent) {
	f.lmu.Lock()
	fns := make([]func(backend.SessionEvent), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.lmu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remoteCalls
}

func (f *fakeBackend) class(id int) offering.Offering {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.classes[id]
}

func (f *fakeBackend) GetSession(_ context.Context) (*backend.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.authDown {
		return nil, unavailable("GET /auth/session")
	}
	if f.session == nil {
		return nil, nil
	}
	s := *f.session
	return &s, nil
}

func (f *fakeBackend) SignUp(_ context.Context, p backend.SignUpParams) (*backend.AuthResult, error) {
	f.mu.Lock()
	f.remoteCalls++
	f.account.Email = p.Email
	f.account.FullName = p.FullName
	f.mu.Unlock()

	sess := f.signIn()
	f.emit(backend.SessionEvent{Type: backend.EventSignedIn, Session: sess})
	return &backend.AuthResult{User: sess.User, Session: sess}, nil
}

func (f *fakeBackend) SignInWithPassword(_ context.Context, email, password string) (*backend.AuthResult, error) {
	f.mu.Lock()
	f.remoteCalls++
	ok := email == f.account.Email && password == testPassword
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: invalid email or password", backend.ErrUnauthorized)
	}

	sess := f.signIn()
	f.emit(backend.SessionEvent{Type: backend.EventSignedIn, Session: sess})
	return &backend.AuthResult{User: sess.User, Session: sess}, nil
}

func (f *fakeBackend) SignInWithOAuth(_ context.Context, provider string) (string, error) {
	return "https://auth.example.com/" + provider, nil
}

func (f *fakeBackend) SignOut(ctx context.Context) error {
	if f.signOut != nil {
		return f.signOut(ctx)
	}
	f.endSession()
	return nil
}

func (f *fakeBackend) ResetPasswordForEmail(_ context.Context, _ string) error {
	f.mu.Lock()
	f.remoteCalls++
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) OnAuthStateChange(fn func(backend.SessionEvent)) func() {
	f.lmu.Lock()
	id := f.nextL
	f.nextL++
	f.listeners[id] = fn
	f.lmu.Unlock()
	return func() {
		f.lmu.Lock()
		delete(f.listeners, id)
		f.lmu.Unlock()
	}
}

func (f *fakeBackend) Profile(_ context.Context, _ int) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.profile == nil {
		return nil, fmt.Errorf("%w: profile", backend.ErrNotFound)
	}
	p := *f.profile
	return &p, nil
}

func (f *fakeBackend) CreateProfile(_ context.Context, req user.CreateProfileRequest) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createProfileErr != nil {
		return nil, f.createProfileErr
	}
	f.profilesCreated++
	f.profile = &user.User{ID: f.account.ID, Email: f.account.Email, FullName: req.FullName, AvatarURL: req.AvatarURL}
	return f.profile, nil
}

func (f *fakeBackend) UpdateProfile(_ context.Context, req user.UpdateProfileRequest) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dataDown {
		return nil, unavailable("PATCH /api/v1/profile")
	}
	p := *f.profile
	if req.FullName != nil {
		p.FullName = *req.FullName
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
	f.profile = &p
	return &p, nil
}

func (f *fakeBackend) Studios(_ context.Context) ([]studio.StudioWithDistance, error) {
	return []studio.StudioWithDistance{}, nil
}

func (f *fakeBackend) Classes(ctx context.Context, q offering.Query) ([]offering.Offering, error) {
	if f.classesFn != nil {
		return f.classesFn(ctx, q)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	list := make([]offering.Offering, 0, len(f.classes))
	for _, o := range f.classes {
		list = append(list, *o)
	}
	return offering.Apply(list, q), nil
}

func (f *fakeBackend) Class(_ context.Context, id int) (*offering.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.classes[id]
	if !ok {
		return nil, fmt.Errorf("%w: class %d", backend.ErrNotFound, id)
	}
	return &offering.Detail{Offering: *o}, nil
}

func (f *fakeBackend) Bookings(_ context.Context) ([]booking.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dataDown {
		return nil, unavailable("GET /api/v1/bookings")
	}
	return append([]booking.Booking(nil), f.bookings...), nil
}

func (f *fakeBackend) CreateBooking(_ context.Context, classID int) (*booking.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remoteCalls++
	if f.dataDown {
		return nil, unavailable("POST /api/v1/bookings")
	}

	o, ok := f.classes[classID]
	if !ok {
		return nil, fmt.Errorf("%w: class not found", backend.ErrNotFound)
	}
	if o.CurrentCapacity >= o.MaxCapacity {
		return nil, fmt.Errorf("%w: class full", backend.ErrClassFull)
	}
	o.CurrentCapacity++

	f.nextID++
	b := booking.Booking{
		ID:            f.nextID,
		UserID:        f.account.ID,
		ClassID:       classID,
		Status:        booking.StatusConfirmed,
		PaymentStatus: booking.PaymentPaid,
		AmountCents:   o.PriceCents,
		ReferenceCode: booking.NewReferenceCode(),
	}
	f.bookings = append(f.bookings, b)
	return &b, nil
}

func (f *fakeBackend) CancelBooking(_ context.Context, bookingID int) (*booking.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remoteCalls++
	if f.dataDown {
		return nil, unavailable("POST /api/v1/bookings/cancel")
	}

	for i := range f.bookings {
		b := &f.bookings[i]
		if b.ID != bookingID {
			continue
		}
		if b.Status != booking.StatusConfirmed {
			return nil, fmt.Errorf("%w: booking already cancelled", backend.ErrConflict)
		}
		b.Status = booking.StatusCancelled
		if o, ok := f.classes[b.ClassID]; ok && o.CurrentCapacity > 0 {
			o.CurrentCapacity--
		}
		cp := *b
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: booking not found", backend.ErrNotFound)
}

func (f *fakeBackend) Favorites(_ context.Context) (*favorite.Set, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dataDown {
		return nil, unavailable("GET /api/v1/favorites")
	}
	set := favorite.Set{
		Studios: append([]int{}, f.favorites.Studios...),
		Classes: append([]int{}, f.favorites.Classes...),
	}
	return &set, nil
}

func (f *fakeBackend) ToggleFavorite(_ context.Context, kind string, id int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remoteCalls++
	if f.dataDown {
		return false, unavailable("POST /api/v1/favorites/toggle")
	}

	list := &f.favorites.Classes
	if kind == favorite.TypeStudio {
		list = &f.favorites.Studios
	}
	for i, v := range *list {
		if v == id {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return false, nil
		}
	}
	*list = append(*list, id)
	return true, nil
}

func (f *fakeBackend) Close() error { return nil }

var _ backend.Backend = (*fakeBackend)(nil)

// gatedBackend holds mutating calls until release is closed, so a test can
// sign out while they are in flight.
type gatedBackend struct {
	*fakeBackend
	entered chan struct{}
	release chan struct{}
}

func newGatedBackend(fb *fakeBackend) *gatedBackend {
	return &gatedBackend{
		fakeBackend: fb,
		entered:     make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
}

func (g *gatedBackend) hold() {
	g.entered <- struct{}{}
	<-g.release
}

func (g *gatedBackend) UpdateProfile(ctx context.Context, req user.UpdateProfileRequest) (*user.User, error) {
	g.hold()
	return g.fakeBackend.UpdateProfile(ctx, req)
}

func (g *gatedBackend) CreateBooking(ctx context.Context, classID int) (*booking.Booking, error) {
	g.hold()
	return g.fakeBackend.CreateBooking(ctx, classID)
}

func (g *gatedBackend) CancelBooking(ctx context.Context, bookingID int) (*booking.Booking, error) {
	g.hold()
	return g.fakeBackend.CancelBooking(ctx, bookingID)
}

func (g *gatedBackend) ToggleFavorite(ctx context.Context, kind string, id int) (bool, error) {
	g.hold()
	return g.fakeBackend.ToggleFavorite(ctx, kind, id)
}
