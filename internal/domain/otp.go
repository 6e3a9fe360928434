package domain

import "time"

// OTPValidity is how long a code stays usable after creation.
const OTPValidity = 300 * time.Second

// OTP is a one-time code issued to a user. A code is valid only within
// OTPValidity of creation and only once; the first successful
// verification wins.
type OTP struct {
	ID        string
	UserID    string
	Code      string
	Used      bool
	CreatedAt time.Time
}

// ValidAt reports whether the code is usable at the given instant.
func (o OTP) ValidAt(now time.Time) bool {
	return !o.Used && now.Sub(o.CreatedAt) < OTPValidity
}
