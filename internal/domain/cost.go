package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var minutesPerHour = decimal.NewFromInt(60)

// costScale is the number of decimal places a price carries. Quotients
// that do not terminate, like 50 minutes at 101/h, round half-up to it.
const costScale = 2

// ReservationCost derives the total price of an interval from a court's
// hourly rate. Duration is treated as an exact decimal number of hours,
// so 90 minutes at 2000/h is exactly 3000, never 2999.99.
func ReservationCost(start, end time.Time, hourlyRate decimal.Decimal) decimal.Decimal {
	minutes := decimal.NewFromInt(int64(end.Sub(start) / time.Minute))
	return hourlyRate.Mul(minutes).DivRound(minutesPerHour, costScale)
}
