package xe

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/robotomize/ratewatch/internal/strutil"
	"github.com/robotomize/ratewatch/label"
	"github.com/robotomize/ratewatch/provider"
	"golang.org/x/net/html"
)

const (
	tableSelector = "#historicalRateTbl"
	rowSelector   = "tr"
	cellSelector  = "th, td"
)

// column positions inside a table row: code, name, units per USD, USD per unit
const (
	codeColumn       = 0
	usdPerUnitColumn = 3
)

var (
	errTableNotFound = errors.New("rates table not found")
	errCellNotValid  = errors.New("rate cell is not valid")
)

type usdRate struct {
	symbol label.Symbol
	price  float64
}

// parseHTML walks the currency table and returns USD per unit prices for the wanted symbols
func parseHTML(b []byte, wanted provider.Wanted) ([]usdRate, error) {
	root, err := html.Parse(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: html parse: %v", provider.ErrParse, err)
	}

	doc := goquery.NewDocumentFromNode(root)

	table := doc.Find(tableSelector)
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: %w", provider.ErrParse, errTableNotFound)
	}

	var (
		rates   []usdRate
		rowErr  error
		matched = make(map[label.Symbol]struct{}, len(wanted))
	)

	table.Find(rowSelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find(cellSelector)
		if cells.Length() <= usdPerUnitColumn {
			return true
		}

		symbol := label.Normalize(strutil.RemoveExtraSpaces(cells.Eq(codeColumn).Text()))
		if !wanted.Has(symbol) {
			return true
		}

		if _, ok := matched[symbol]; ok {
			return true
		}

		raw := strutil.NumericField(strutil.RemoveExtraSpaces(cells.Eq(usdPerUnitColumn).Text()))
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price < 0 || math.IsInf(price, 0) || math.IsNaN(price) {
			rowErr = fmt.Errorf("%w: %s %q: %w", provider.ErrParse, symbol, raw, errCellNotValid)
			return false
		}

		matched[symbol] = struct{}{}
		rates = append(rates, usdRate{symbol: symbol, price: price})

		return true
	})

	if rowErr != nil {
		return nil, rowErr
	}

	return rates, nil
}
