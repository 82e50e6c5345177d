// Package tracking generates and validates shipment tracking numbers.
//
// The format is MPM-YYYYMMDD-NNNNN: a literal prefix, the creation date and
// a zero-padded random 5-digit suffix. The number is generated once at
// shipment creation and treated as an opaque stable identifier everywhere
// else.
package tracking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

const (
	prefix      = "MPM"
	suffixSpace = 100000
)

var pattern = regexp.MustCompile(`^MPM-(\d{8})-(\d{5})$`)

// New builds a tracking number for the given creation time.
func New(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(suffixSpace))
	if err != nil {
		return "", fmt.Errorf("tracking suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s-%05d", prefix, now.UTC().Format("20060102"), n.Int64()), nil
}

// IsValid reports whether value matches the tracking number format.
func IsValid(value string) bool {
	m := pattern.FindStringSubmatch(value)
	if m == nil {
		return false
	}
	_, err := time.Parse("20060102", m[1])
	return err == nil
}

// CreatedOn extracts the date segment of a tracking number.
func CreatedOn(value string) (time.Time, error) {
	m := pattern.FindStringSubmatch(value)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid tracking number %q", value)
	}
	t, err := time.Parse("20060102", m[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid tracking number date %q: %w", m[1], err)
	}
	return t, nil
}
