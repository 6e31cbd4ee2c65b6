package dashboard

import (
	"fitconnect/internal/booking"
	"fitconnect/internal/offering"
	"fitconnect/internal/studio"
)

const (
	upcomingLimit = 5
	recentLimit   = 10
)

// Stats are placeholder figures until bookings feed a real analytics store.
type Stats struct {
	TodayClasses         int    `json:"today_classes"`
	WeekBookings         int    `json:"week_bookings"`
	MonthRevenueCents    int64  `json:"month_revenue_cents"`
	MonthRevenue         string `json:"month_revenue"`
	AverageAttendancePct int    `json:"average_attendance_pct"`
}

var fixedStats = Stats{
	TodayClasses:         5,
	WeekBookings:         142,
	MonthRevenueCents:    1245000,
	MonthRevenue:         "$12,450",
	AverageAttendancePct: 87,
}

type Overview struct {
	Studio          *studio.Studio               `json:"studio"`
	Stats           Stats                        `json:"stats"`
	UpcomingClasses []offering.Offering          `json:"upcoming_classes"`
	RecentBookings  []booking.BookingWithDetails `json:"recent_bookings"`
}
