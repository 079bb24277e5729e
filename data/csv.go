// Package data loads historical daily price files.
package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/evdnx/gosafe/types"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DateLayout is the day-month-year layout of the Date column.
const DateLayout = "02-01-2006"

// defaultColumns is the positional layout used when a file has no header:
// Date,Low,Open,Volume,High,Close[,Adjusted Close].
var defaultColumns = map[string]int{
	"date": 0, "low": 1, "open": 2, "volume": 3, "high": 4, "close": 5,
}

var required = []string{"date", "low", "open", "volume", "high", "close"}

// ParseError reports a malformed row.
type ParseError struct {
	Source string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReadBars parses a price file and returns the bars with from <= Time <= to.
// A zero from or to leaves that side open. Any malformed row is fatal.
func ReadBars(r io.Reader, source string, from, to time.Time) ([]types.PriceBar, error) {
	// UTF-8 and UTF-16 files with a BOM are decoded transparently.
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		cols = defaultColumns
		bars []types.PriceBar
		last time.Time
		line int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &ParseError{Source: source, Line: line, Err: err}
		}
		if line == 1 && isHeader(rec) {
			if cols, err = headerColumns(rec); err != nil {
				return nil, &ParseError{Source: source, Line: line, Err: err}
			}
			continue
		}
		bar, err := parseRow(rec, cols)
		if err != nil {
			return nil, &ParseError{Source: source, Line: line, Err: err}
		}
		if !last.IsZero() && !bar.Time.After(last) {
			return nil, &ParseError{Source: source, Line: line,
				Err: fmt.Errorf("date %s is not after %s", bar.Time.Format(DateLayout), last.Format(DateLayout))}
		}
		last = bar.Time
		if !from.IsZero() && bar.Time.Before(from) {
			continue
		}
		if !to.IsZero() && bar.Time.After(to) {
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func isHeader(rec []string) bool {
	return len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "date")
}

func headerColumns(rec []string) (map[string]int, error) {
	cols := make(map[string]int, len(rec))
	for i, name := range rec {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

func parseRow(rec []string, cols map[string]int) (types.PriceBar, error) {
	field := func(name string) (string, error) {
		i := cols[name]
		if i >= len(rec) {
			return "", fmt.Errorf("missing %s field", name)
		}
		return strings.TrimSpace(rec[i]), nil
	}
	num := func(name string) (float64, error) {
		s, err := field(name)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", name, err)
		}
		return v, nil
	}

	var bar types.PriceBar
	ds, err := field("date")
	if err != nil {
		return bar, err
	}
	if bar.Time, err = time.Parse(DateLayout, ds); err != nil {
		return bar, fmt.Errorf("date: %w", err)
	}
	if bar.Low, err = num("low"); err != nil {
		return bar, err
	}
	if bar.Open, err = num("open"); err != nil {
		return bar, err
	}
	if bar.Volume, err = num("volume"); err != nil {
		return bar, err
	}
	if bar.High, err = num("high"); err != nil {
		return bar, err
	}
	if bar.Close, err = num("close"); err != nil {
		return bar, err
	}
	return bar, nil
}
