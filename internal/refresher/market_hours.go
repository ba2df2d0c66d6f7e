package refresher

import (
	"fmt"
	"time"
)

// MarketHours is an hour-granular trading window [Open, Close) in a fixed
// UTC offset. Minutes inside the boundary hours are not checked. A window
// with Open > Close wraps past midnight.
type MarketHours struct {
	Open     int
	Close    int
	Location *time.Location
}

func NewMarketHours(open, close, utcOffsetHours int) MarketHours {
	name := "UTC"
	if utcOffsetHours != 0 {
		name = fmt.Sprintf("UTC%+d", utcOffsetHours)
	}
	return MarketHours{
		Open:     open,
		Close:    close,
		Location: time.FixedZone(name, utcOffsetHours*3600),
	}
}

func (m MarketHours) local(now time.Time) time.Time {
	if m.Location == nil {
		return now.UTC()
	}
	return now.In(m.Location)
}

func (m MarketHours) IsOpen(now time.Time) bool {
	h := m.local(now).Hour()
	if m.Open <= m.Close {
		return m.Open <= h && h < m.Close
	}
	return h >= m.Open || h < m.Close
}

// SessionDay identifies the trading day now belongs to, in market time. In a
// window that wraps midnight the hours after midnight belong to the session
// that opened the day before.
func (m MarketHours) SessionDay(now time.Time) string {
	l := m.local(now)
	if m.Open > m.Close && l.Hour() < m.Close {
		l = l.AddDate(0, 0, -1)
	}
	return l.Format("2006-01-02")
}

func (m MarketHours) Hour(now time.Time) int {
	return m.local(now).Hour()
}
