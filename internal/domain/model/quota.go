package model

import "time"

type QuotaStatus struct {
	Used      int           `json:"used"`
	Limit     int           `json:"limit"`
	Available int           `json:"available"`
	ResetsIn  time.Duration `json:"-"`
}

// ResetsInSeconds is the JSON form of ResetsIn.
func (q QuotaStatus) ResetsInSeconds() int64 {
	return int64(q.ResetsIn / time.Second)
}

// UTCDay returns the YYYY-MM-DD key for t in UTC.
func UTCDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// NextUTCMidnight returns the start of the UTC day following t.
func NextUTCMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day()+1, 0, 0, 0, 0, time.UTC)
}
