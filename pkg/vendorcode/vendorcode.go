// Package vendorcode generates short human-readable entity codes.
//
// Codes are 4 uppercase alphanumeric characters, derived from the entity
// name and checked against the merged code space of all sibling entity
// tables plus a reserved blocklist. Generation is non-transactional: the
// caller supplies a point-in-time snapshot of taken codes, and the
// persistence layer is expected to enforce uniqueness with a constraint
// plus bounded retry.
package vendorcode

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"
)

// ErrExhausted is returned when no free code is found within the attempt
// budget. With a 36^4 code space this only happens when the snapshot of
// taken codes is close to saturation.
var ErrExhausted = errors.New("vendorcode: no free code within attempt budget")

// CodeLength is the fixed code width.
const CodeLength = 4

// reserved codes that must never be assigned.
var reserved = map[string]struct{}{
	"0000": {}, "AAAA": {}, "TEST": {}, "DEMO": {},
	"NULL": {}, "NONE": {}, "XXXX": {}, "ZZZZ": {},
}

const (
	letters  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	alphanum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxSuffixAttempts bounds the numeric-suffix phase before falling
	// back to a fully random code.
	maxSuffixAttempts = 99

	// maxRandomAttempts bounds the random phase. 36^4 candidates exist,
	// so a near-empty code space resolves in a handful of draws.
	maxRandomAttempts = 10000
)

// Generator produces codes. Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New creates a generator seeded from the current time.
func New() *Generator {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource creates a generator with an explicit random source.
// Tests use a fixed seed for reproducible padding and fallbacks.
func NewWithSource(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Base derives the deterministic 4-character base from a name: strip
// non-alphanumerics, uppercase, truncate to 4. The result may be shorter
// than 4 characters when the name has too few usable runes; Generate pads
// it with random letters.
func Base(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			if b.Len() == CodeLength {
				break
			}
		}
	}
	return b.String()
}

// IsReserved reports whether the code is on the blocklist.
func IsReserved(code string) bool {
	_, ok := reserved[code]
	return ok
}

// Generate returns a code not present in taken and not reserved.
//
// The derived base is tried first; on collision, a 2-character prefix of
// the base with a 2-digit numeric suffix is tried for attempts 01..99;
// after that the code is fully random, bounded by maxRandomAttempts.
// ErrExhausted is returned if the budget runs out.
func (g *Generator) Generate(name string, taken map[string]struct{}) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	base := Base(name)
	for len(base) < CodeLength {
		base += string(letters[g.rnd.Intn(len(letters))])
	}

	if free(base, taken) {
		return base, nil
	}

	prefix := base[:2]
	for i := 1; i <= maxSuffixAttempts; i++ {
		candidate := prefix + twoDigits(i)
		if free(candidate, taken) {
			return candidate, nil
		}
	}

	for i := 0; i < maxRandomAttempts; i++ {
		candidate := g.randomCode()
		if free(candidate, taken) {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

func (g *Generator) randomCode() string {
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = alphanum[g.rnd.Intn(len(alphanum))]
	}
	return string(b)
}

func free(code string, taken map[string]struct{}) bool {
	if IsReserved(code) {
		return false
	}
	_, exists := taken[code]
	return !exists
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}
