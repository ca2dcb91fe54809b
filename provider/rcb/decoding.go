package rcb

import (
	"errors"
	"time"

	"github.com/robotomize/ratewatch/label"
)

var (
	errDecodeToken       = errors.New("decoding of the markup failed")
	errAttributeNotValid = errors.New("attr is not valid")
	errNoReferenceRates  = errors.New("no reference rates")
	errUSDRateMissing    = errors.New("USD reference rate missing")
)

// rubDailyRates holds roubles per one unit of currency for a single publication day
type rubDailyRates struct {
	time  time.Time
	rates map[label.Symbol]float64
}
