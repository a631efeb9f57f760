package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"zhigulbot/models"

	"github.com/shopspring/decimal"
)

// Files names the three seed inputs
type Files struct {
	// State holds one line: previous,current,predicted
	State string
	// History holds one past price per line, oldest first
	History string
	// Future holds one upcoming price per line, in settlement order
	Future string
}

// Load reads and validates all three files
func Load(files Files) (*models.SeedData, error) {
	state, err := readFile(files.State, ParseState)
	if err != nil {
		return nil, err
	}
	history, err := readFile(files.History, ParsePrices)
	if err != nil {
		return nil, err
	}
	future, err := readFile(files.Future, ParsePrices)
	if err != nil {
		return nil, err
	}

	snapshots := make([]*models.PriceSnapshot, len(history))
	for i, p := range history {
		snapshots[i] = &models.PriceSnapshot{CurrentPrice: p, PredictedPrice: decimal.Zero}
	}

	return &models.SeedData{
		State:   state,
		History: snapshots,
		Future:  future,
	}, nil
}

func readFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	out, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// ParseState reads the single previous,current,predicted record
func ParseState(r io.Reader) (*models.PriceState, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	record, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("initial state is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read initial state: %w", err)
	}

	values := make([]decimal.Decimal, len(record))
	for i, field := range record {
		if values[i], err = parsePrice(field); err != nil {
			return nil, fmt.Errorf("initial state field %d: %w", i+1, err)
		}
	}

	if _, err := reader.Read(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("initial state must contain a single line")
	}

	return &models.PriceState{
		PreviousPrice:  values[0],
		CurrentPrice:   values[1],
		PredictedPrice: values[2],
	}, nil
}

// ParsePrices reads one price per line. Blank lines are skipped.
func ParsePrices(r io.Reader) ([]decimal.Decimal, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 1
	reader.TrimLeadingSpace = true

	var prices []decimal.Decimal
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read prices: %w", err)
		}
		line, _ := reader.FieldPos(0)
		price, err := parsePrice(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		prices = append(prices, price)
	}
	return prices, nil
}

func parsePrice(field string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(field))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", field)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("price must be positive, got %s", price)
	}
	return price, nil
}
