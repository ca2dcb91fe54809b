package ecb

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/robotomize/ratewatch/label"
)

const (
	xmlCubeElement = "Cube"
	xmlTimeAttr    = "time"
)

// decodeXML returns the decoding function. decodeXML parses xml in streaming mode and hands out
// every dated Cube as one euroDailyRates
func decodeXML() decodeFunc {
	return func(b []byte, iterFunc func(rates euroDailyRates) error) error {
		if iterFunc == nil {
			return errMissingIterFunc
		}

		decoder := xml.NewDecoder(bytes.NewReader(b))
		for {
			token, err := decoder.Token()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}

				var syntaxErr *xml.SyntaxError
				if errors.As(err, &syntaxErr) {
					return fmt.Errorf("%w: %v", errDecodeToken, syntaxErr.Error())
				}

				return fmt.Errorf("decode token: %w", err)
			}

			start, ok := token.(xml.StartElement)
			if !ok || !isDailyCube(start) {
				continue
			}

			var node XMLNode
			if err := decoder.DecodeElement(&node, &start); err != nil {
				var syntaxErr *xml.SyntaxError
				switch {
				case errors.As(err, &syntaxErr):
					return fmt.Errorf("%w: %v", errDecodeToken, syntaxErr.Error())
				case errors.Is(err, errAttributeNotValid):
					return err
				default:
					return fmt.Errorf("decode element: %w", err)
				}
			}

			daily := euroDailyRates{
				time:  time.Time(node.Time),
				rates: make(map[label.Symbol]float64, len(node.Rates)),
			}

			for _, r := range node.Rates {
				symbol := label.Normalize(r.Currency)
				if symbol == "" || r.Rate <= 0 {
					continue
				}

				daily.rates[symbol] = r.Rate.Float64()
			}

			if err := iterFunc(daily); err != nil {
				return fmt.Errorf("handle func: %w", err)
			}
		}
	}
}

// isDailyCube reports whether the element is a <Cube time="..."> wrapper
func isDailyCube(el xml.StartElement) bool {
	if el.Name.Local != xmlCubeElement {
		return false
	}

	for _, attr := range el.Attr {
		if attr.Name.Local == xmlTimeAttr {
			return true
		}
	}

	return false
}

type XMLAttrTime time.Time

func (x *XMLAttrTime) UnmarshalXMLAttr(attr xml.Attr) error {
	t, err := time.Parse("2006-01-02", attr.Value)
	if err != nil {
		return fmt.Errorf("%w: %v", errAttributeNotValid, err)
	}

	*x = XMLAttrTime(t)

	return nil
}

var _ xml.UnmarshalerAttr = (*XMLRateAttr)(nil)

type XMLRateAttr float64

func (i XMLRateAttr) Float64() float64 {
	return float64(i)
}

func (i *XMLRateAttr) UnmarshalXMLAttr(attr xml.Attr) error {
	rate, err := strconv.ParseFloat(attr.Value, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", errAttributeNotValid, err)
	}

	if rate <= 0 {
		return errAttributeNotValid
	}

	*i = XMLRateAttr(rate)

	return nil
}

type XMLNode struct {
	Time  XMLAttrTime `xml:"time,attr"`
	Rates []struct {
		Currency string      `xml:"currency,attr"`
		Rate     XMLRateAttr `xml:"rate,attr"`
	} `xml:"Cube"`
}
