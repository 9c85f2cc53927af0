package domain

import (
	"math"
	"time"
)

const storageDay = 24 * time.Hour

// PickupQuote is the advisory charge shown before a pickup is confirmed.
type PickupQuote struct {
	BasePrice  int64
	DaysStored int
	FinalPrice int64
}

// DaysStored returns ceil(|now - receivedAt| / 24h) with a floor of one day.
func DaysStored(receivedAt, now time.Time) int {
	elapsed := now.Sub(receivedAt)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	days := int(math.Ceil(float64(elapsed) / float64(storageDay)))
	if days < 1 {
		days = 1
	}
	return days
}

func Quote(basePrice int64, receivedAt, now time.Time) PickupQuote {
	days := DaysStored(receivedAt, now)
	return PickupQuote{
		BasePrice:  basePrice,
		DaysStored: days,
		FinalPrice: basePrice * int64(days),
	}
}
