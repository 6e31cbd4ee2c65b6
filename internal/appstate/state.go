// Package appstate holds the client-side cache: the signed-in user, the
// session and the user's bookings and favorites. State only changes through
// Reduce.
package appstate

import (
	"sort"

	"fitconnect/internal/backend"
	"fitconnect/internal/booking"
	"fitconnect/internal/favorite"
	"fitconnect/internal/user"
)

// IDSet is a set of studio or class ids.
type IDSet map[int]struct{}

func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order, never nil.
func (s IDSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s IDSet) clone() IDSet {
	c := make(IDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

type State struct {
	User            *user.User
	Session         *backend.Session
	Loading         bool
	Bookings        []booking.Booking
	FavoriteStudios IDSet
	FavoriteClasses IDSet
	Err             error

	// Generation counts sign-ins and sign-outs. Actions stamped with an
	// older generation are dropped by Reduce.
	Generation uint64
}

// Initial is the signed-out state the client starts from.
func Initial() State {
	return State{
		Loading:         true,
		Bookings:        []booking.Booking{},
		FavoriteStudios: IDSet{},
		FavoriteClasses: IDSet{},
	}
}

func (s State) SignedIn() bool {
	return s.User != nil
}

func (s State) IsStudioFavorited(id int) bool {
	return s.FavoriteStudios.Has(id)
}

func (s State) IsClassFavorited(id int) bool {
	return s.FavoriteClasses.Has(id)
}

func (s State) Favorites() favorite.Set {
	return favorite.Set{
		Studios: s.FavoriteStudios.Sorted(),
		Classes: s.FavoriteClasses.Sorted(),
	}
}

// Booking returns the cached booking with the given id.
func (s State) Booking(id int) (booking.Booking, bool) {
	for _, b := range s.Bookings {
		if b.ID == id {
			return b, true
		}
	}
	return booking.Booking{}, false
}
