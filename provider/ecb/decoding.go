package ecb

import (
	"errors"
	"time"

	"github.com/robotomize/ratewatch/label"
)

var (
	errDecodeToken       = errors.New("decoding of the markup failed")
	errAttributeNotValid = errors.New("attr is not valid")
	errMissingIterFunc   = errors.New("missing iter function")
	errNoReferenceRates  = errors.New("no reference rates")
	errUSDRateMissing    = errors.New("USD reference rate missing")
)

// decodeFunc for parsing data and processing it in streaming mode
type decodeFunc func([]byte, func(rates euroDailyRates) error) error

// euroDailyRates holds units of currency per one euro for a single publication day
type euroDailyRates struct {
	time  time.Time
	rates map[label.Symbol]float64
}
