package rcb

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/robotomize/ratewatch/label"
	"golang.org/x/text/encoding/charmap"
)

const charsetWindows1251 = "windows-1251"

// decodeXML parses the daily ValCurs document. The bank publishes it in windows-1251
func decodeXML(b []byte) (rubDailyRates, error) {
	var (
		node       XMLNode
		charsetErr error
	)

	decoder := xml.NewDecoder(bytes.NewReader(b))
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, charsetWindows1251) {
			return charmap.Windows1251.NewDecoder().Reader(input), nil
		}

		charsetErr = fmt.Errorf("%w: charset %q is not supported", errDecodeToken, charset)

		return nil, charsetErr
	}

	if err := decoder.Decode(&node); err != nil {
		var syntaxErr *xml.SyntaxError
		switch {
		case charsetErr != nil:
			return rubDailyRates{}, charsetErr
		case errors.As(err, &syntaxErr):
			return rubDailyRates{}, fmt.Errorf("%w: %v", errDecodeToken, syntaxErr.Error())
		case errors.Is(err, errAttributeNotValid), errors.Is(err, errDecodeToken):
			return rubDailyRates{}, err
		default:
			return rubDailyRates{}, fmt.Errorf("decode document: %w", err)
		}
	}

	daily := rubDailyRates{
		time:  time.Time(node.Time),
		rates: make(map[label.Symbol]float64, len(node.Rates)),
	}

	for _, r := range node.Rates {
		sym := label.Normalize(r.Currency)
		if sym == "" {
			continue
		}

		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(r.Value), ",", "."), 64)
		if err != nil {
			return rubDailyRates{}, fmt.Errorf("%w: %s value %q", errAttributeNotValid, sym, r.Value)
		}

		nominal := r.Nominal
		if nominal == 0 {
			nominal = 1
		}

		if v <= 0 || nominal < 0 {
			return rubDailyRates{}, fmt.Errorf("%w: %s value %v per %d", errAttributeNotValid, sym, v, nominal)
		}

		daily.rates[sym] = v / float64(nominal)
	}

	return daily, nil
}

type XMLAttrTime time.Time

func (x *XMLAttrTime) UnmarshalXMLAttr(attr xml.Attr) error {
	t, err := time.Parse("02.01.2006", attr.Value)
	if err != nil {
		return fmt.Errorf("%w: date %q", errAttributeNotValid, attr.Value)
	}

	*x = XMLAttrTime(t)

	return nil
}

// XMLValute is the price of Nominal units of Currency in roubles. Value uses a decimal comma
type XMLValute struct {
	Currency string `xml:"CharCode"`
	Nominal  int    `xml:"Nominal"`
	Value    string `xml:"Value"`
}

type XMLNode struct {
	XMLName xml.Name    `xml:"ValCurs"`
	Time    XMLAttrTime `xml:"Date,attr"`
	Rates   []XMLValute `xml:"Valute"`
}
