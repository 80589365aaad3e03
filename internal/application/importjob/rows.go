package importjob

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	domain "github.com/mohammadpnp/catalog-import/internal/domain/importjob"
	"github.com/mohammadpnp/catalog-import/internal/domain/product"
)

// rowReader walks a delimited payload one data row at a time. Malformed
// rows come back as skipped outcomes. Only an unreadable source or a bad
// header is an error.
type rowReader struct {
	csv    *csv.Reader
	header product.Header
}

func newRowReader(r io.Reader) (*rowReader, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	fields, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.SourceReadError{Err: errors.New("no header row")}
		}
		return nil, &domain.SourceReadError{Err: fmt.Errorf("read header: %w", err)}
	}

	header, err := product.ParseHeader(fields)
	if err != nil {
		return nil, &domain.SourceReadError{Err: err}
	}

	return &rowReader{csv: reader, header: header}, nil
}

// next returns io.EOF once the payload is exhausted.
func (r *rowReader) next() (product.RowOutcome, error) {
	fields, err := r.csv.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return product.Skipped(fmt.Sprintf("malformed row at line %d: %v", parseErr.Line, parseErr.Err)), nil
		}
		if errors.Is(err, io.EOF) {
			return product.RowOutcome{}, io.EOF
		}
		return product.RowOutcome{}, &domain.SourceReadError{Err: err}
	}
	return r.header.Parse(fields), nil
}

// countRows counts the data rows next would yield.
func countRows(r io.Reader) (int64, error) {
	rows, err := newRowReader(r)
	if err != nil {
		return 0, err
	}

	var total int64
	for {
		if _, err := rows.next(); err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return 0, err
		}
		total++
	}
}
