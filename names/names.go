// Package names canonicalises DNS names and interns them.
//
// Canonical form is lower-case ASCII (IDNA A-labels) without the trailing
// root dot, so "WWW.Bücher.example." and "www.xn--bcher-kva.example" intern
// to the same entry.
package names

import (
	"errors"
	"fmt"
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"

	"github.com/RowanDark/internpool/mow"
	"github.com/RowanDark/internpool/pool"
)

// ErrInvalidName is wrapped by every error Canonicalize returns.
var ErrInvalidName = errors.New("invalid domain name")

var profile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
)

// Canonicalize converts name to its canonical form.
func Canonicalize(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed == "." {
		return "", fmt.Errorf("%w: empty name", ErrInvalidName)
	}

	ascii, err := profile.ToASCII(strings.TrimSuffix(trimmed, "."))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidName, name, err)
	}

	fqdn := dns.CanonicalName(ascii)
	if _, ok := dns.IsDomainName(fqdn); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return strings.TrimSuffix(fqdn, "."), nil
}

// Unicode returns the display form of a canonical name.
func Unicode(name string) (string, error) {
	out, err := profile.ToUnicode(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidName, name, err)
	}
	return out, nil
}

// Labels splits a name into its labels, outermost last.
func Labels(name string) []string {
	return dns.SplitDomainName(name)
}

// Interner canonicalises names and interns them in one pool. Labels are
// interned too, so the repeated suffixes of a large name list share memory.
type Interner struct {
	pool *pool.Pool
}

// NewInterner interns into p; a nil p selects the process-wide text registry.
func NewInterner(p *pool.Pool) *Interner {
	return &Interner{pool: p}
}

// Intern canonicalises name and returns its interned form. The caller owns
// the returned reference.
func (n *Interner) Intern(name string) (mow.IStr, error) {
	canonical, err := Canonicalize(name)
	if err != nil {
		return mow.IStr{}, err
	}
	return mow.NewIStr(n.pool, canonical), nil
}

// InternLabels interns every label of the canonical form of name. The caller
// owns every returned reference.
func (n *Interner) InternLabels(name string) ([]mow.IStr, error) {
	canonical, err := Canonicalize(name)
	if err != nil {
		return nil, err
	}
	labels := Labels(canonical)
	out := make([]mow.IStr, 0, len(labels))
	for _, label := range labels {
		out = append(out, mow.NewIStr(n.pool, label))
	}
	return out, nil
}

// Parent returns the interned parent of a canonical name, or false for a
// single-label name.
func (n *Interner) Parent(name mow.IStr) (mow.IStr, bool) {
	s := name.String()
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return mow.IStr{}, false
	}
	return mow.NewIStr(n.pool, s[idx+1:]), true
}
