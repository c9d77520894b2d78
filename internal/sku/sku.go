// Package sku builds the human-readable codes that identify stock slots.
//
// A code is "<producto>-<TALLE>-<local>-<lugar>": every token is slugified
// (diacritics stripped, runs of non-alphanumerics collapsed to one hyphen),
// the size token is upper-cased and the rest lower-cased. Build is pure, so
// rebuilding a code from the same names always yields the same value.
package sku

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxLen is the storage limit of a stock code.
	MaxLen = 150
	// Fallback is used when every token slugifies to nothing.
	Fallback = "sku"
	// MaxIntentos bounds the suffix search in Resolve.
	MaxIntentos = 500
)

// ErrAgotado is returned when no free suffix was found within MaxIntentos.
var ErrAgotado = errors.New("no se pudo generar un SKU unico")

// Build returns the code for the given names. Empty tokens are skipped.
func Build(producto, talle, local, lugar string) string {
	parts := make([]string, 0, 4)
	if s := Slug(producto); s != "" {
		parts = append(parts, s)
	}
	if s := Slug(talle); s != "" {
		parts = append(parts, strings.ToUpper(s))
	}
	for _, tok := range []string{local, lugar} {
		if s := Slug(tok); s != "" {
			parts = append(parts, s)
		}
	}
	code := truncate(strings.Join(parts, "-"), MaxLen)
	if code == "" {
		return Fallback
	}
	return code
}

// Slug lower-cases s, strips diacritics and collapses every run of
// non-alphanumeric characters into a single hyphen.
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}

	var b strings.Builder
	b.Grow(len(plain))
	pendingHyphen := false
	for _, r := range strings.ToLower(plain) {
		if isSlugRune(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

func isSlugRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// WithSuffix returns base with "-n" appended, cutting base so the result
// stays within MaxLen. n < 2 returns base unchanged.
func WithSuffix(base string, n int) string {
	if n < 2 {
		return base
	}
	suffix := "-" + strconv.Itoa(n)
	head := truncate(base, MaxLen-len(suffix))
	if head == "" {
		head = Fallback
	}
	return head + suffix
}

// Resolve returns the first candidate among base, base-2, base-3, ... for
// which taken reports false. It gives up with ErrAgotado after MaxIntentos.
func Resolve(base string, taken func(candidate string) (bool, error)) (string, error) {
	for n := 1; n <= MaxIntentos; n++ {
		candidate := WithSuffix(base, n)
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
	}
	return "", ErrAgotado
}

// truncate cuts s to max bytes and drops any trailing hyphen left behind.
// Slugs are ASCII, so byte and rune lengths agree.
func truncate(s string, max int) string {
	if len(s) > max {
		s = s[:max]
	}
	return strings.Trim(s, "-")
}
