package cae

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/robotomize/ratewatch/label"
	"golang.org/x/net/html"
)

const (
	dateSelector = "#ratesDatePicker > h3 > span > span"
	cellSelector = "#ratesDateTable tbody tr td"
	datePrefix   = "Date"
	dateLayout   = "02-01-2006"
)

// parseHTML reads the fx-rates table. Cells come in name, rate pairs; unknown currency names are skipped
func parseHTML(b []byte) (aedLatestRates, error) {
	var daily aedLatestRates

	root, err := html.Parse(bytes.NewReader(b))
	if err != nil {
		return daily, fmt.Errorf("%w: html parse: %v", errHTMLNotValid, err)
	}

	doc := goquery.NewDocumentFromNode(root)

	date := strings.TrimSpace(doc.Find(dateSelector).Text())
	date = strings.TrimSpace(strings.TrimPrefix(date, datePrefix))
	if date == "" {
		return daily, fmt.Errorf("%w: publication date not found", errParseAttrNotValid)
	}

	dt, err := time.Parse(dateLayout, date)
	if err != nil {
		return daily, fmt.Errorf("%w: date %q", errParseAttrNotValid, date)
	}

	daily.time = dt
	daily.rates = make(map[label.Symbol]float64)

	cells := doc.Find(cellSelector)
	if cells.Length()%2 != 0 {
		return aedLatestRates{}, fmt.Errorf("%w: odd number of rate cells", errHTMLNotValid)
	}

	for i := 0; i < cells.Length(); i += 2 {
		name := strings.TrimSpace(cells.Eq(i).Text())
		if name == "" {
			return aedLatestRates{}, fmt.Errorf("%w: empty currency name", errParseAttrNotValid)
		}

		symbol, ok := label.Names[name]
		if !ok {
			continue
		}

		raw := strings.TrimSpace(cells.Eq(i + 1).Text())
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate <= 0 {
			return aedLatestRates{}, fmt.Errorf("%w: rate %q for %s", errParseAttrNotValid, raw, symbol)
		}

		daily.rates[symbol] = rate
	}

	return daily, nil
}
