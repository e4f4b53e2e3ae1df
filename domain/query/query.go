package query

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/finneas-io/edgar/domain/company"
	"github.com/finneas-io/edgar/domain/filing"
)

const BaseURL = "https://www.sec.gov/cgi-bin/browse-edgar?action=getcompany&"

// DefaultCount is the number of filings requested when none is set.
const DefaultCount = "10"

var (
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrURLParse          = errors.New("invalid query URL")
)

// InvalidDateError carries the date string that failed validation.
type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("%s: %q is not a YYYYMMDD date", ErrInvalidDateFormat, e.Value)
}

func (e *InvalidDateError) Unwrap() error {
	return ErrInvalidDateFormat
}

// URLError is returned when the assembled query is not a well formed URL.
type URLError struct {
	Raw string
	Err error
}

func (e *URLError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrURLParse, e.Raw, e.Err)
}

func (e *URLError) Unwrap() []error {
	return []error{ErrURLParse, e.Err}
}

// CikFormat selects how the CIK is written into the query.
type CikFormat int

const (
	CikPadded CikFormat = iota
	CikRaw
)

// Query collects the parameters of one EDGAR company browse request.
type Query struct {
	cik        uint32
	filingType filing.Type
	owner      filing.Owner
	dateBefore string
	count      string
	searchText string
	cikFormat  CikFormat
}

func New(cmp *company.Company) *Query {
	return &Query{
		cik:        cmp.Cik,
		filingType: filing.DefaultType,
		owner:      filing.OwnerInclude,
		count:      DefaultCount,
	}
}

func (q *Query) Type(t filing.Type) *Query {
	q.filingType = t
	return q
}

func (q *Query) Owner(o filing.Owner) *Query {
	q.owner = o
	return q
}

// DateBefore limits results to filings before the given YYYYMMDD date.
func (q *Query) DateBefore(date string) *Query {
	q.dateBefore = date
	return q
}

func (q *Query) Count(count string) *Query {
	q.count = count
	return q
}

func (q *Query) SearchText(text string) *Query {
	q.searchText = text
	return q
}

func (q *Query) CikFormat(f CikFormat) *Query {
	q.cikFormat = f
	return q
}

// Build validates the parameters and assembles the browse URL. The
// parameter order is fixed and ends with output=atom.
func (q *Query) Build() (*url.URL, error) {
	date, err := ValidateDate(q.dateBefore)
	if err != nil {
		return nil, err
	}
	if !q.filingType.Valid() {
		return nil, &filing.UnknownError{Kind: filing.ErrUnknownFilingType, Value: q.filingType.String()}
	}
	if !q.owner.Valid() {
		return nil, &filing.UnknownError{Kind: filing.ErrUnknownOwner, Value: q.owner.String()}
	}

	cik := company.PadCik(q.cik)
	if q.cikFormat == CikRaw {
		cik = fmt.Sprintf("%d", q.cik)
	}

	raw := fmt.Sprintf(
		"%sCIK=%s&type=%s&dateb=%s&owner=%s&count=%s&search_text=%s&output=atom",
		BaseURL,
		cik,
		q.filingType,
		date,
		q.owner,
		fragmentSafe(q.count),
		fragmentSafe(q.searchText),
	)

	u, err := url.Parse(raw)
	if err != nil {
		return nil, &URLError{Raw: raw, Err: err}
	}
	// url.Parse does not look at escapes inside the query
	if _, err := url.ParseQuery(u.RawQuery); err != nil {
		return nil, &URLError{Raw: raw, Err: err}
	}
	u.RawQuery = escapeQuery(u.RawQuery)

	return u, nil
}

// ValidateDate accepts exactly eight ASCII digits forming a real calendar
// date in YYYYMMDD order.
func ValidateDate(date string) (string, error) {
	if len(date) != 8 {
		return "", &InvalidDateError{Value: date}
	}
	for i := 0; i < len(date); i++ {
		if date[i] < '0' || date[i] > '9' {
			return "", &InvalidDateError{Value: date}
		}
	}
	// time.Parse rejects month 13, day 31 of short months and Feb 29 of
	// non leap years
	if _, err := time.Parse("20060102", date); err != nil {
		return "", &InvalidDateError{Value: date}
	}
	return date, nil
}

// fragmentSafe escapes '#' so a value cannot end the query early.
func fragmentSafe(v string) string {
	return strings.ReplaceAll(v, "#", "%23")
}

// escapeQuery percent encodes bytes that may not appear raw in a query
// while leaving existing escapes and delimiters untouched.
func escapeQuery(raw string) string {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c <= ' ' || c >= 0x7f || c == '"' || c == '<' || c == '>' || c == '`' {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
