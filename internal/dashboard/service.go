package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"fitconnect/internal/auth"
	"fitconnect/internal/booking"
	"fitconnect/internal/offering"
	"fitconnect/internal/studio"
	"fitconnect/internal/user"
)

var ErrForbidden = errors.New("no access to this studio")

type Studios interface {
	GetStudio(ctx context.Context, id int) (*studio.Studio, error)
}

type Classes interface {
	Upcoming(ctx context.Context, studioID, limit int) ([]offering.Offering, error)
}

type Bookings interface {
	StudioBookings(ctx context.Context, studioID int, status string) ([]booking.BookingWithDetails, error)
	RecentForStudio(ctx context.Context, studioID, limit int) ([]booking.BookingWithDetails, error)
}

type Profiles interface {
	GetProfile(ctx context.Context, id int) (*user.User, error)
}

type Service interface {
	Authorize(ctx context.Context, userID int, role string, studioID int) error
	Overview(ctx context.Context, studioID int) (*Overview, error)
	Bookings(ctx context.Context, studioID int, status string) ([]booking.BookingWithDetails, error)
	Export(ctx context.Context, studioID int, status string) (*bytes.Buffer, error)
}

type service struct {
	studios  Studios
	classes  Classes
	bookings Bookings
	profiles Profiles
	now      func() time.Time
}

func NewService(studios Studios, classes Classes, bookings Bookings, profiles Profiles) Service {
	return &service{
		studios:  studios,
		classes:  classes,
		bookings: bookings,
		profiles: profiles,
		now:      time.Now,
	}
}

// Authorize lets admins into every studio and owners into their own.
func (s *service) Authorize(ctx context.Context, userID int, role string, studioID int) error {
	switch role {
	case auth.RoleAdmin:
		return nil
	case auth.RoleStudioOwner:
	default:
		return ErrForbidden
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrProfileNotFound) {
			return ErrForbidden
		}
		return fmt.Errorf("load owner profile: %w", err)
	}

	if profile.StudioID == nil || *profile.StudioID != studioID {
		return ErrForbidden
	}
	return nil
}

func (s *service) Overview(ctx context.Context, studioID int) (*Overview, error) {
	st, err := s.studios.GetStudio(ctx, studioID)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.classes.Upcoming(ctx, studioID, upcomingLimit)
	if err != nil {
		return nil, fmt.Errorf("upcoming classes: %w", err)
	}

	recent, err := s.bookings.RecentForStudio(ctx, studioID, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent bookings: %w", err)
	}

	if upcoming == nil {
		upcoming = []offering.Offering{}
	}
	if recent == nil {
		recent = []booking.BookingWithDetails{}
	}

	return &Overview{
		Studio:          st,
		Stats:           fixedStats,
		UpcomingClasses: upcoming,
		RecentBookings:  recent,
	}, nil
}

func (s *service) Bookings(ctx context.Context, studioID int, status string) ([]booking.BookingWithDetails, error) {
	if _, err := s.studios.GetStudio(ctx, studioID); err != nil {
		return nil, err
	}
	return s.bookings.StudioBookings(ctx, studioID, status)
}

func (s *service) Export(ctx context.Context, studioID int, status string) (*bytes.Buffer, error) {
	st, err := s.studios.GetStudio(ctx, studioID)
	if err != nil {
		return nil, err
	}

	rows, err := s.bookings.StudioBookings(ctx, studioID, status)
	if err != nil {
		return nil, err
	}

	return BuildReport(st.Name, rows, s.now())
}
