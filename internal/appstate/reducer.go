package appstate

import (
	"fitconnect/internal/backend"
	"fitconnect/internal/booking"
	"fitconnect/internal/favorite"
	"fitconnect/internal/user"
)

// Action is a state transition request. The set of actions is closed.
type Action interface {
	isAction()
}

type (
	SetLoading struct{ Loading bool }
	SetError   struct{ Err error }
	SetSession struct{ Session *backend.Session }
	// SetUser also clears the error.
	SetUser struct {
		User *user.User
		Gen  uint64
	}
	// Hydrate lands everything a sign-in fetches at once. Gen is the
	// generation the fetch started under.
	Hydrate struct {
		User      *user.User
		Session   *backend.Session
		Bookings  []booking.Booking
		Favorites favorite.Set
		Gen       uint64
	}
	SignedOut  struct{}
	AddBooking struct {
		Booking booking.Booking
		Gen     uint64
	}
	CancelBooking struct {
		ID  int
		Gen uint64
	}
	SetBookings struct{ Bookings []booking.Booking }
	// ToggleFavorite flips membership of one studio or class.
	ToggleFavorite struct {
		Kind string
		ID   int
		Gen  uint64
	}
	// SetFavorite pins membership to what the API reported.
	SetFavorite struct {
		Kind      string
		ID        int
		Favorited bool
		Gen       uint64
	}
	SetFavorites struct{ Favorites favorite.Set }
)

func (SetLoading) isAction()     {}
func (SetError) isAction()       {}
func (SetSession) isAction()     {}
func (SetUser) isAction()        {}
func (Hydrate) isAction()        {}
func (SignedOut) isAction()      {}
func (AddBooking) isAction()     {}
func (CancelBooking) isAction()  {}
func (SetBookings) isAction()    {}
func (ToggleFavorite) isAction() {}
func (SetFavorite) isAction()    {}
func (SetFavorites) isAction()   {}

// sessionScoped actions carry the generation they were issued under. They
// only apply to a signed-in state of that same generation.
type sessionScoped interface {
	generation() uint64
}

func (a SetUser) generation() uint64        { return a.Gen }
func (a AddBooking) generation() uint64     { return a.Gen }
func (a CancelBooking) generation() uint64  { return a.Gen }
func (a ToggleFavorite) generation() uint64 { return a.Gen }
func (a SetFavorite) generation() uint64    { return a.Gen }

// Reduce returns the state after a. It never mutates s: slices and sets that
// change are copied first. Session-scoped actions from an earlier generation
// are ignored.
func Reduce(s State, a Action) State {
	if scoped, ok := a.(sessionScoped); ok {
		if !s.SignedIn() || scoped.generation() != s.Generation {
			return s
		}
	}

	switch a := a.(type) {
	case SetLoading:
		s.Loading = a.Loading

	case SetError:
		s.Err = a.Err
		s.Loading = false

	case SetSession:
		s.Session = a.Session
		s.Loading = false

	case SetUser:
		s.User = a.User
		s.Err = nil
		s.Loading = false

	case Hydrate:
		if a.Gen != s.Generation {
			return s
		}
		if s.User == nil || a.User == nil || s.User.ID != a.User.ID {
			s.Generation++
		}
		s.User = a.User
		s.Session = a.Session
		s.Bookings = copyBookings(a.Bookings)
		s.FavoriteStudios = NewIDSet(a.Favorites.Studios...)
		s.FavoriteClasses = NewIDSet(a.Favorites.Classes...)
		s.Err = nil
		s.Loading = false

	case SignedOut:
		next := Initial()
		next.Loading = false
		next.Generation = s.Generation + 1
		return next

	case AddBooking:
		bookings := make([]booking.Booking, 0, len(s.Bookings)+1)
		bookings = append(bookings, s.Bookings...)
		s.Bookings = append(bookings, a.Booking)

	case CancelBooking:
		bookings := copyBookings(s.Bookings)
		for i := range bookings {
			if bookings[i].ID == a.ID {
				bookings[i].Status = booking.StatusCancelled
			}
		}
		s.Bookings = bookings

	case SetBookings:
		s.Bookings = copyBookings(a.Bookings)

	case ToggleFavorite:
		return withFavorite(s, a.Kind, a.ID, !favoriteSet(s, a.Kind).Has(a.ID))

	case SetFavorite:
		return withFavorite(s, a.Kind, a.ID, a.Favorited)

	case SetFavorites:
		s.FavoriteStudios = NewIDSet(a.Favorites.Studios...)
		s.FavoriteClasses = NewIDSet(a.Favorites.Classes...)
	}

	return s
}

func copyBookings(in []booking.Booking) []booking.Booking {
	out := make([]booking.Booking, len(in))
	copy(out, in)
	return out
}

func favoriteSet(s State, kind string) IDSet {
	if kind == favorite.TypeStudio {
		return s.FavoriteStudios
	}
	return s.FavoriteClasses
}

func withFavorite(s State, kind string, id int, on bool) State {
	if kind != favorite.TypeStudio && kind != favorite.TypeClass {
		return s
	}

	set := favoriteSet(s, kind).clone()
	if on {
		set[id] = struct{}{}
	} else {
		delete(set, id)
	}

	if kind == favorite.TypeStudio {
		s.FavoriteStudios = set
	} else {
		s.FavoriteClasses = set
	}
	return s
}
