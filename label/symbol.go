package label

import (
	"strings"

	"github.com/robotomize/ratewatch/internal/strutil"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Symbol is a currency code such as EUR or BTC
type Symbol string

func (s Symbol) String() string {
	return string(s)
}

const (
	EUR Symbol = "EUR"
	GBP Symbol = "GBP"
	CNY Symbol = "CNY"
	JPY Symbol = "JPY"
	USD Symbol = "USD"
	RUB Symbol = "RUB"
	AED Symbol = "AED"

	BTC Symbol = "BTC"
	ETH Symbol = "ETH"
	XRP Symbol = "XRP"
	BCH Symbol = "BCH"
)

// DefaultFiat is the fiat symbol set polled when nothing else is configured
var DefaultFiat = []Symbol{EUR, GBP, CNY, JPY}

// DefaultCrypto is the crypto symbol set polled when nothing else is configured
var DefaultCrypto = []Symbol{BTC, ETH, XRP, BCH}

// Normalize turns raw input like " eur " or "btc\n" into a Symbol. The result is empty when nothing usable is left
func Normalize(s string) Symbol {
	s = strutil.RemoveNonAlphaNum(s)
	s = strings.Join(strings.Fields(s), "")

	// a Caser keeps state between calls and must not be shared across goroutines
	return Symbol(cases.Upper(language.Und).String(s))
}

// Parse normalizes every raw value, drops empty results and duplicates and keeps the input order
func Parse(raw ...string) []Symbol {
	seen := make(map[Symbol]struct{}, len(raw))
	list := make([]Symbol, 0, len(raw))
	for _, r := range raw {
		sym := Normalize(r)
		if sym == "" {
			continue
		}

		if _, ok := seen[sym]; ok {
			continue
		}

		seen[sym] = struct{}{}
		list = append(list, sym)
	}

	return list
}

// Strings converts symbols back into plain strings
func Strings(symbols []Symbol) []string {
	list := make([]string, len(symbols))
	for i, s := range symbols {
		list[i] = string(s)
	}

	return list
}
