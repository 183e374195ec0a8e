package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gestacom/go-stock-orders/internal/money"
)

// Record is one well-formed feed entry:
// $reference$description$quantity$purchase_price$sale_price$...
type Record struct {
	Reference     string
	Name          string
	Stock         int
	PurchaseCents int64
	SaleCents     int64
}

// SkipError describes a single malformed record. Skips are per-record and
// non-fatal; the rest of the feed keeps processing.
type SkipError struct {
	Line   int
	Raw    string
	Reason string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("feed record %d skipped: %s", e.Line, e.Reason)
}

// ParseFeed splits the response on CRLF and parses each record, collecting
// skips instead of failing.
func ParseFeed(raw string) ([]Record, []*SkipError) {
	lines := strings.Split(strings.TrimSpace(raw), "\r\n")
	var (
		records []Record
		skips   []*SkipError
	)
	for i, line := range lines {
		rec, err := ParseRecord(line)
		if err != nil {
			skips = append(skips, &SkipError{Line: i + 1, Raw: line, Reason: err.Error()})
			continue
		}
		records = append(records, rec)
	}
	return records, skips
}

// ParseRecord consumes the first five '$'-separated fields positionally as
// [reference, description, quantity, purchase_price, sale_price]; extra
// fields are ignored.
func ParseRecord(line string) (Record, error) {
	fields := strings.Split(strings.Trim(line, "$"), "$")
	if len(fields) < 5 {
		return Record{}, fmt.Errorf("want at least 5 fields, got %d", len(fields))
	}

	stock, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil || stock < 0 {
		return Record{}, fmt.Errorf("bad quantity %q", fields[2])
	}
	purchase, err := money.ParseDecimal(fields[3])
	if err != nil {
		return Record{}, fmt.Errorf("bad purchase price %q", fields[3])
	}
	sale, err := money.ParseDecimal(fields[4])
	if err != nil {
		return Record{}, fmt.Errorf("bad sale price %q", fields[4])
	}

	return Record{
		Reference:     strings.TrimSpace(fields[0]),
		Name:          strings.ReplaceAll(strings.TrimSpace(fields[1]), "*", ""),
		Stock:         stock,
		PurchaseCents: purchase,
		SaleCents:     sale,
	}, nil
}
