package facts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidPeriod = errors.New("invalid frame period")

// Period is a calendar frame: a year, a quarter of a year, or an instant at
// the end of a quarter.
type Period struct {
	Year    int
	Quarter int
	Instant bool
}

func (p Period) Validate() error {
	if p.Year < 1000 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	if p.Quarter < 0 || p.Quarter > 4 {
		return fmt.Errorf("%w: quarter %d", ErrInvalidPeriod, p.Quarter)
	}
	if p.Instant && p.Quarter == 0 {
		return fmt.Errorf("%w: instant frames need a quarter", ErrInvalidPeriod)
	}
	return nil
}

// String renders CY2019, CY2019Q1 or CY2019Q1I.
func (p Period) String() string {
	s := fmt.Sprintf("CY%d", p.Year)
	if p.Quarter > 0 {
		s += fmt.Sprintf("Q%d", p.Quarter)
	}
	if p.Instant {
		s += "I"
	}
	return s
}

func ParsePeriod(s string) (Period, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(v, "CY") || len(v) < 6 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}

	year, err := strconv.Atoi(v[2:6])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	p := Period{Year: year}

	switch rest := v[6:]; {
	case rest == "":
	case len(rest) == 2 && rest[0] == 'Q':
		p.Quarter = int(rest[1] - '0')
	case len(rest) == 3 && rest[0] == 'Q' && rest[2] == 'I':
		p.Quarter = int(rest[1] - '0')
		p.Instant = true
	default:
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}

	if p.Quarter < 0 || p.Quarter > 9 || (len(v) > 6 && p.Quarter == 0) {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}
