package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncodings is the order in which source encodings are attempted.
var DefaultEncodings = []string{"utf-8", "gbk", "gb2312", "utf-8-sig", "latin1"}

// ReadOptions controls ingestion of a posting file.
type ReadOptions struct {
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// Encodings are tried in order; the first that decodes to a header plus rows wins.
	Encodings []string
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// XLSX sheet selection; SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
}

// DefaultReadOptions returns the options used when nothing is configured.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{Encodings: DefaultEncodings, SheetIndex: 1}
}

// ReadFile loads a CSV, TSV or XLSX posting file into a Dataset.
func ReadFile(path string, opt ReadOptions) (*Dataset, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		records, err := readXLSXRecords(path, opt.SheetName, opt.SheetIndex)
		if err != nil {
			return nil, err
		}
		return fromRecords(filepath.Base(path), records, opt)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return ReadCSV(filepath.Base(path), b, opt)
}

// ReadCSV decodes raw CSV bytes, trying each configured encoding in turn.
func ReadCSV(name string, data []byte, opt ReadOptions) (*Dataset, error) {
	encs := opt.Encodings
	if len(encs) == 0 {
		encs = DefaultEncodings
	}
	if opt.Delimiter == 0 {
		opt.Delimiter = ','
	}
	var lastErr error
	for _, enc := range encs {
		text, err := decode(data, enc)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", enc, err)
			continue
		}
		records, err := parseCSV(text, opt.Delimiter)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", enc, err)
			continue
		}
		if len(records) < 2 || len(records[0]) == 0 {
			lastErr = fmt.Errorf("%s: %w", enc, ErrEmptyDataset)
			continue
		}
		return fromRecords(name, records, opt)
	}
	if lastErr == nil {
		lastErr = ErrEmptyDataset
	}
	return nil, fmt.Errorf("decode %s: no usable encoding among %v: %w", name, encs, lastErr)
}

var errInvalidText = errors.New("invalid text for encoding")

func decode(data []byte, enc string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "utf-8", "utf8":
		if !utf8.Valid(data) {
			return "", errInvalidText
		}
		return string(data), nil
	case "utf-8-sig", "utf8-sig":
		data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
		if !utf8.Valid(data) {
			return "", errInvalidText
		}
		return string(data), nil
	}
	e, err := htmlindex.Get(enc)
	if err != nil {
		return "", fmt.Errorf("unknown encoding: %w", err)
	}
	out, err := e.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", errInvalidText
	}
	return string(out), nil
}

func parseCSV(text string, delim rune) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.Comma = delim
	var out [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func fromRecords(name string, records [][]string, opt ReadOptions) (*Dataset, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyDataset)
	}
	cm := mapHeader(records[0])
	if f, missing := cm.missing(); missing {
		return nil, &MissingFieldError{Field: f, Available: New("", nil, cm.fields()...).Fields()}
	}
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		rows = append(rows, cm.row(rec, opt))
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyDataset)
	}
	return New(name, rows, cm.fields()...), nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
