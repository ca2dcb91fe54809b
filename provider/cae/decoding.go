package cae

import (
	"errors"
	"time"

	"github.com/robotomize/ratewatch/label"
)

var (
	errHTMLNotValid      = errors.New("html not valid")
	errParseAttrNotValid = errors.New("attr is not valid")
	errUSDRateMissing    = errors.New("USD rate missing")
)

// aedLatestRates holds dirhams per one unit of currency for a single publication day
type aedLatestRates struct {
	time  time.Time
	rates map[label.Symbol]float64
}
