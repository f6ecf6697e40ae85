package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/config"
)

func IsProd() bool {
	return os.Getenv("API_ENV") == "prod"
}

var ErrInvalidDate = errors.New("invalid date")

// ParseBookingDate accepts an RFC3339 timestamp or a plain yyyy-mm-dd date (UTC midnight).
func ParseBookingDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(config.DATE_PARSE_FORMAT, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, value)
}

// ReceiptToken builds the gateway receipt for a booking. Razorpay caps
// receipts at 40 characters, so only the first 12 hex digits of the id are used.
func ReceiptToken(bookingID uuid.UUID, now time.Time) string {
	compact := strings.ReplaceAll(bookingID.String(), "-", "")
	return fmt.Sprintf("bk_%s_%d", compact[:12], now.Unix())
}

// ToMinorUnits converts an amount to paise.
func ToMinorUnits(amount float64) int64 {
	return int64(roundHalfUp(amount * 100))
}
