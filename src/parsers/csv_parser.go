package parsers

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/username/yieldly/backend/src/models"
)

// Row is one validated CSV line, ready to be turned into a ledger entry once
// the portfolio code has been resolved.
type Row struct {
	Line          int
	Date          string // normalized to YYYY-MM-DD
	Ticker        string
	PortfolioCode string
	Type          models.TransactionType
	Quantity      float64
	Price         float64
	Total         float64
}

// Expected column order after the header row.
const expectedFields = 7 // Date, Symbol, Portfolio, Type, Quantity, Share Price, Total

var typeCodes = map[string]models.TransactionType{
	"B":  models.TypeBuy,
	"S":  models.TypeSell,
	"D":  models.TypeDividend,
	"DR": models.TypeDividendReinvest,
}

type CSVParser struct{}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Parse reads delimited text and returns the valid rows plus a per-line error
// list. A bad line never aborts the rest of the batch; the first line is
// always treated as a header. Line numbers are 1-based file positions, so the
// first data line is line 2.
func (p *CSVParser) Parse(r io.Reader) ([]Row, []models.ImportRowError, error) {
	scanner := bufio.NewScanner(r)

	var rows []Row
	var rowErrors []models.ImportRowError

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 {
			continue // header
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		row, err := parseLine(lineNo, line)
		if err != nil {
			rowErrors = append(rowErrors, models.ImportRowError{Line: lineNo, Error: err.Error()})
			continue
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("error reading CSV data: %w", err)
	}

	return rows, rowErrors, nil
}

func parseLine(lineNo int, line string) (Row, error) {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < expectedFields {
		return Row{}, fmt.Errorf("invalid CSV format: expected %d fields, got %d", expectedFields, len(parts))
	}

	date, err := parseImportDate(parts[0])
	if err != nil {
		return Row{}, err
	}

	symbol := parts[1]
	if symbol == "" {
		return Row{}, fmt.Errorf("missing symbol")
	}
	portfolioCode := parts[2]
	if portfolioCode == "" {
		return Row{}, fmt.Errorf("missing portfolio code")
	}

	txType, ok := typeCodes[strings.ToUpper(parts[3])]
	if !ok {
		// Accept the full enum name as well as the short code.
		txType = models.TransactionType(strings.ToUpper(parts[3]))
		if !txType.IsValid() {
			return Row{}, fmt.Errorf("unknown transaction type %q", parts[3])
		}
	}

	return Row{
		Line:          lineNo,
		Date:          date,
		Ticker:        symbol,
		PortfolioCode: portfolioCode,
		Type:          txType,
		Quantity:      parseAmount(parts[4]),
		Price:         parseAmount(parts[5]),
		Total:         parseAmount(parts[6]),
	}, nil
}

// parseAmount scrubs currency formatting ($, thousands commas, spaces) and
// parses the remainder. Blank or unparseable values are 0, matching the
// lenient number handling of spreadsheet exports.
func parseAmount(s string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ':
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

var importMonths = map[string]string{
	"Jan": "01", "Feb": "02", "Mar": "03", "Apr": "04",
	"May": "05", "Jun": "06", "Jul": "07", "Aug": "08",
	"Sep": "09", "Oct": "10", "Nov": "11", "Dec": "12",
}

// parseImportDate converts DD-MMM-YY (e.g. 15-Mar-24) to YYYY-MM-DD.
// Already-ISO dates pass through unchanged. Two-digit years below 50 land in
// the 2000s, the rest in the 1900s.
func parseImportDate(s string) (string, error) {
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return s, nil
	}

	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid date %q", s)
	}

	day := parts[0]
	if len(day) == 1 {
		day = "0" + day
	}
	if _, err := strconv.Atoi(day); err != nil || len(day) != 2 {
		return "", fmt.Errorf("invalid day in date %q", s)
	}

	monthKey := strings.ToLower(parts[1])
	if monthKey != "" {
		monthKey = strings.ToUpper(monthKey[:1]) + monthKey[1:]
	}
	month, ok := importMonths[monthKey]
	if !ok {
		return "", fmt.Errorf("invalid month in date %q", s)
	}

	year := parts[2]
	switch len(year) {
	case 2:
		n, err := strconv.Atoi(year)
		if err != nil {
			return "", fmt.Errorf("invalid year in date %q", s)
		}
		if n < 50 {
			year = "20" + year
		} else {
			year = "19" + year
		}
	case 4:
		if _, err := strconv.Atoi(year); err != nil {
			return "", fmt.Errorf("invalid year in date %q", s)
		}
	default:
		return "", fmt.Errorf("invalid year in date %q", s)
	}

	return fmt.Sprintf("%s-%s-%s", year, month, day), nil
}
