package httpbackend

import (
	"context"
	"net/http"
	"strconv"

	"fitconnect/internal/booking"
	"fitconnect/internal/favorite"
	"fitconnect/internal/offering"
	"fitconnect/internal/studio"
	"fitconnect/internal/user"
)

func (c *Client) Profile(ctx context.Context, id int) (*user.User, error) {
	var u user.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/profile/"+strconv.Itoa(id), nil, nil, &u, true); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) CreateProfile(ctx context.Context, req user.CreateProfileRequest) (*user.User, error) {
	var u user.User
	if err := c.do(ctx, http.MethodPost, "/api/v1/profile", nil, req, &u, true); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req user.UpdateProfileRequest) (*user.User, error) {
	var u user.User
	if err := c.do(ctx, http.MethodPatch, "/api/v1/profile", nil, req, &u, true); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Studios(ctx context.Context) ([]studio.StudioWithDistance, error) {
	var list []studio.StudioWithDistance
	if err := c.do(ctx, http.MethodGet, "/api/v1/studios", nil, nil, &list, false); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) Classes(ctx context.Context, q offering.Query) ([]offering.Offering, error) {
	var list []offering.Offering
	if err := c.do(ctx, http.MethodGet, "/api/v1/classes", q.Values(), nil, &list, false); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) Class(ctx context.Context, id int) (*offering.Detail, error) {
	var d offering.Detail
	if err := c.do(ctx, http.MethodGet, "/api/v1/classes/"+strconv.Itoa(id), nil, nil, &d, false); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) Bookings(ctx context.Context) ([]booking.Booking, error) {
	var list []booking.Booking
	if err := c.do(ctx, http.MethodGet, "/api/v1/bookings", nil, nil, &list, true); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) CreateBooking(ctx context.Context, classID int) (*booking.Booking, error) {
	var b booking.Booking
	if err := c.do(ctx, http.MethodPost, "/api/v1/bookings", nil, booking.BookRequest{ClassID: classID}, &b, true); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) CancelBooking(ctx context.Context, bookingID int) (*booking.Booking, error) {
	var b booking.Booking
	path := "/api/v1/bookings/" + strconv.Itoa(bookingID) + "/cancel"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &b, true); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) Favorites(ctx context.Context) (*favorite.Set, error) {
	var set favorite.Set
	if err := c.do(ctx, http.MethodGet, "/api/v1/favorites", nil, nil, &set, true); err != nil {
		return nil, err
	}
	return &set, nil
}

func (c *Client) ToggleFavorite(ctx context.Context, kind string, id int) (bool, error) {
	var resp favorite.ToggleResponse
	req := favorite.ToggleRequest{Type: kind, ID: id}
	if err := c.do(ctx, http.MethodPost, "/api/v1/favorites/toggle", nil, req, &resp, true); err != nil {
		return false, err
	}
	return resp.Favorited, nil
}
