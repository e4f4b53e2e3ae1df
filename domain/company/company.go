package company

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Company is one row of the SEC ticker directory.
type Company struct {
	Cik    uint32 `json:"cik"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

var ErrInvalidCik = errors.New("invalid CIK")

// PadCik renders a CIK as the 10 digit form used by the EDGAR data APIs.
func PadCik(cik uint32) string {
	return fmt.Sprintf("%010d", cik)
}

// ParseCik accepts padded and unpadded CIK strings.
func ParseCik(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 1 || len(s) > 10 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCik, s)
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCik, s)
	}
	return uint32(v), nil
}

func (c *Company) PaddedCik() string {
	return PadCik(c.Cik)
}
