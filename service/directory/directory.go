package directory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/finneas-io/edgar/domain/company"
)

var ErrJSON = errors.New("malformed ticker directory")

// ParseError wraps the decoding failure of a directory document.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", ErrJSON, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrJSON, e.Err}
}

// Directory is one parsed snapshot of the SEC ticker list.
type Directory struct {
	companies []*company.Company
	index     map[string]*company.Company
}

type record struct {
	Cik    *cikValue `json:"cik_str"`
	Ticker string    `json:"ticker"`
	Title  *string   `json:"title"`
}

// validate rejects records missing one of the three fields.
func (r *record) validate() error {
	switch {
	case r.Cik == nil:
		return errors.New("missing cik_str")
	case len(strings.TrimSpace(r.Ticker)) < 1:
		return errors.New("missing ticker")
	case r.Title == nil:
		return errors.New("missing title")
	}
	return nil
}

// cikValue accepts the CIK as a JSON number or as a numeric string.
type cikValue uint32

func (c *cikValue) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	v, err := company.ParseCik(s)
	if err != nil {
		return err
	}
	*c = cikValue(v)
	return nil
}

// Parse accepts both the index keyed document ({"0": {...}, ...}) and the
// older {"tickers": [...]} document. Records keep their document order, which
// for the index shape is the numeric order of the keys.
func Parse(data []byte) (*Directory, error) {
	top := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &ParseError{Err: err}
	}
	if top == nil {
		return nil, &ParseError{Err: errors.New("document is null")}
	}

	var records []record

	if raw, ok := top["tickers"]; ok && len(top) == 1 {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, &ParseError{Err: err}
		}
		for i := range records {
			if err := records[i].validate(); err != nil {
				return nil, &ParseError{Err: fmt.Errorf("entry %d: %w", i, err)}
			}
		}
	} else {
		type entry struct {
			pos int
			rec record
		}
		entries := make([]entry, 0, len(top))
		for key, raw := range top {
			pos, err := strconv.Atoi(key)
			if err != nil {
				return nil, &ParseError{Err: fmt.Errorf("unexpected key %q", key)}
			}
			var rec record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, &ParseError{Err: fmt.Errorf("entry %q: %w", key, err)}
			}
			if err := rec.validate(); err != nil {
				return nil, &ParseError{Err: fmt.Errorf("entry %q: %w", key, err)}
			}
			entries = append(entries, entry{pos: pos, rec: rec})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].pos < entries[j].pos
		})
		records = make([]record, len(entries))
		for i := range entries {
			records[i] = entries[i].rec
		}
	}

	return newDirectory(records), nil
}

func newDirectory(records []record) *Directory {
	d := &Directory{
		companies: make([]*company.Company, 0, len(records)),
		index:     make(map[string]*company.Company, len(records)),
	}
	for _, r := range records {
		cmp := &company.Company{Cik: uint32(*r.Cik), Ticker: r.Ticker, Title: *r.Title}
		d.companies = append(d.companies, cmp)

		// the first record wins when a ticker shows up twice
		key := strings.ToUpper(r.Ticker)
		if _, ok := d.index[key]; !ok {
			d.index[key] = cmp
		}
	}
	return d
}

// Lookup matches the ticker case-insensitively.
func (d *Directory) Lookup(ticker string) (*company.Company, bool) {
	cmp, ok := d.index[strings.ToUpper(strings.TrimSpace(ticker))]
	if !ok {
		return nil, false
	}
	cpy := *cmp
	return &cpy, true
}

func (d *Directory) Len() int {
	return len(d.companies)
}

// Companies returns a copy of all records in document order.
func (d *Directory) Companies() []*company.Company {
	list := make([]*company.Company, len(d.companies))
	for i, cmp := range d.companies {
		cpy := *cmp
		list[i] = &cpy
	}
	return list
}
