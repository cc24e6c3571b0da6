package domain

import (
	"math"
	"time"
)

// Aging bucket labels. BucketNA is for invoices without a due date.
const (
	Bucket0To30  = "0-30"
	Bucket31To60 = "31-60"
	Bucket61To90 = "61-90"
	Bucket90Plus = "90+"
	BucketNA     = "n/a"
)

// AgingDays returns whole days elapsed since the due date, negative when the
// due date is still ahead, nil without a due date.
func AgingDays(due *time.Time, now time.Time) *int {
	if due == nil {
		return nil
	}
	days := int(math.Floor(now.Sub(*due).Hours() / 24))
	return &days
}

// AgingBucket maps elapsed days to a report bucket.
func AgingBucket(days *int) string {
	switch {
	case days == nil:
		return BucketNA
	case *days <= 30:
		return Bucket0To30
	case *days <= 60:
		return Bucket31To60
	case *days <= 90:
		return Bucket61To90
	default:
		return Bucket90Plus
	}
}

// IsOverdue reports whether an invoice is past due and still collectible.
func (i Invoice) IsOverdue(now time.Time) bool {
	days := AgingDays(i.DueDate, now)
	return days != nil && *days > 0 && i.Status != StatusPaid && i.Status != StatusVoid
}

// IsAtRisk reports whether an open invoice falls due within the window.
func (i Invoice) IsAtRisk(now time.Time, window time.Duration) bool {
	if i.Status != StatusOpen || i.DueDate == nil {
		return false
	}
	until := i.DueDate.Sub(now)
	return until > 0 && until <= window
}
