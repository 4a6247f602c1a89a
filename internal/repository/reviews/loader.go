package reviews

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/parklens/parklens/internal/domain"
)

// Expected CSV columns. Header order is not assumed.
const (
	colBranch   = "Branch"
	colRating   = "Rating"
	colPeriod   = "Year_Month"
	colLocation = "Reviewer_Location"
	colText     = "Review_Text"
)

// LoadCSV reads reviews from a CSV file. Files that are not valid UTF-8
// are decoded as Latin-1, matching the typical encoding of exported
// review datasets.
func LoadCSV(path string, logger *zap.Logger) ([]domain.Review, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reviews file: %w", err)
	}

	var reader io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		logger.Info("Reviews file is not valid UTF-8, decoding as Latin-1", zap.String("path", path))
		reader = transform.NewReader(bytes.NewReader(data), charmap.ISO8859_1.NewDecoder())
	}

	records, err := parseCSV(reader)
	if err != nil {
		return nil, fmt.Errorf("parse reviews file %s: %w", path, err)
	}

	logger.Info("Loaded reviews", zap.String("path", path), zap.Int("count", len(records)))
	return records, nil
}

func parseCSV(r io.Reader) ([]domain.Review, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[colText]; !ok {
		return nil, fmt.Errorf("missing required column %q", colText)
	}

	var reviews []domain.Review
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		reviews = append(reviews, domain.Review{
			Branch:           field(record, cols, colBranch),
			Rating:           field(record, cols, colRating),
			Period:           field(record, cols, colPeriod),
			ReviewerLocation: field(record, cols, colLocation),
			Text:             field(record, cols, colText),
		})
	}

	return reviews, nil
}

func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
