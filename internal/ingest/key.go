package ingest

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrNoKey marks an extraction whose bibliographic data is too thin to
// form a citation key. The document is skipped whole; no partial rows.
var ErrNoKey = eris.New("ingest: cannot derive citation key")

// deaccent decomposes characters and drops combining marks, so
// "Gärdenfors" keys as "Gardenfors" instead of losing the letter.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// DeriveKey builds the citation key "<Surname><Year>" from a
// comma-separated author list: the last whitespace-delimited token of the
// first comma-delimited entry, stripped of non-alphanumerics. Missing
// authors or year fails the derivation rather than inventing a key.
func DeriveKey(authors string, year int) (string, error) {
	if year == 0 {
		return "", eris.Wrap(ErrNoKey, "missing year")
	}
	first := strings.TrimSpace(strings.SplitN(authors, ",", 2)[0])
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return "", eris.Wrap(ErrNoKey, "missing authors")
	}
	surname := fields[len(fields)-1]

	folded, _, err := transform.String(deaccent, surname)
	if err != nil {
		folded = surname
	}

	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", eris.Wrapf(ErrNoKey, "no usable surname in %q", authors)
	}
	return fmt.Sprintf("%s%d", b.String(), year), nil
}
