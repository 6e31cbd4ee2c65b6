// Package mirror keeps a local copy of the signed-in user's bookings and
// favorites so the client can still show them when the API is unreachable.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fitconnect/internal/booking"
)

const (
	KeyBookings        = "fitconnect_bookings"
	KeyFavoriteStudios = "fitconnect_favorite_studios"
	KeyFavoriteClasses = "fitconnect_favorite_classes"
)

// Keys lists every key the client writes.
var Keys = []string{KeyBookings, KeyFavoriteStudios, KeyFavoriteClasses}

var ErrNotFound = errors.New("mirror key not found")

// Store is a string-keyed blob store. Set overwrites.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

func SaveBookings(ctx context.Context, s Store, bookings []booking.Booking) error {
	if bookings == nil {
		bookings = []booking.Booking{}
	}
	return saveJSON(ctx, s, KeyBookings, bookings)
}

func LoadBookings(ctx context.Context, s Store) ([]booking.Booking, error) {
	var bookings []booking.Booking
	if err := loadJSON(ctx, s, KeyBookings, &bookings); err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []booking.Booking{}
	}
	return bookings, nil
}

func SaveIDs(ctx context.Context, s Store, key string, ids []int) error {
	if ids == nil {
		ids = []int{}
	}
	return saveJSON(ctx, s, key, ids)
}

func LoadIDs(ctx context.Context, s Store, key string) ([]int, error) {
	var ids []int
	if err := loadJSON(ctx, s, key, &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int{}
	}
	return ids, nil
}

func saveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

func loadJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
