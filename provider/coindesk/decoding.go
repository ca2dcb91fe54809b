package coindesk

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/robotomize/ratewatch/label"
	"github.com/robotomize/ratewatch/provider"
)

const quoteCurrency = "USD"

var (
	errShapeNotValid = errors.New("ticker shape is not valid")
	errPriceNotValid = errors.New("price is not valid")
)

type tickerResponse struct {
	Data *struct {
		Currency map[string]tickerCurrency `json:"currency"`
	} `json:"data"`
}

type tickerCurrency struct {
	Quotes map[string]struct {
		Price *float64 `json:"price"`
	} `json:"quotes"`
}

type usdQuote struct {
	symbol label.Symbol
	price  float64
}

// decodeTicker extracts data.currency[SYM].quotes.USD.price for the wanted symbols
func decodeTicker(b []byte, wanted provider.Wanted) ([]usdQuote, error) {
	var resp tickerResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil, fmt.Errorf("%w: json: %v", provider.ErrParse, err)
	}

	if resp.Data == nil || resp.Data.Currency == nil {
		return nil, fmt.Errorf("%w: %w: missing data.currency", provider.ErrParse, errShapeNotValid)
	}

	quotes := make([]usdQuote, 0, len(resp.Data.Currency))
	for key, ccy := range resp.Data.Currency {
		symbol := label.Normalize(key)
		if !wanted.Has(symbol) {
			continue
		}

		q, ok := ccy.Quotes[quoteCurrency]
		if !ok || q.Price == nil {
			continue
		}

		price := *q.Price
		if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			return nil, fmt.Errorf("%w: %s %v: %w", provider.ErrParse, symbol, price, errPriceNotValid)
		}

		quotes = append(quotes, usdQuote{symbol: symbol, price: price})
	}

	return quotes, nil
}
