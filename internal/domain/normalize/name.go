// Package normalize converts free-text genealogical fields into canonical
// forms. Every function here is total: unparseable input is passed through.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ersonp/provpack/internal/domain/entities"
)

// reMaiden matches "<given names> (gebore <maiden name>)".
var reMaiden = regexp.MustCompile(`(?i)^(.+?)\s*\(gebore\s+(.+?)\)$`)

// particles are tried in order; multi-word particles come first so that
// "van der" wins over "van".
var particles = [][]string{
	{"van", "der"},
	{"van", "den"},
	{"van"},
	{"de"},
	{"du"},
	{"le"},
	{"la"},
}

// Name returns the canonical form of a raw person name.
//
// Sort keys are surname first. A nobiliary particle sits between the surname
// and the given names ("Merwe, van der, Esaias"); a maiden name recorded as
// "(gebore X)" becomes the surname.
func Name(raw string) entities.PersonName {
	name := strings.TrimSpace(norm.NFC.String(raw))

	if m := reMaiden.FindStringSubmatch(name); m != nil {
		given := strings.TrimSpace(m[1])
		maiden := strings.TrimSpace(m[2])
		full := given + " " + maiden
		return entities.PersonName{
			Primary: full,
			Display: full,
			SortKey: maiden + ", " + given,
		}
	}

	tokens := strings.Fields(name)

	if len(tokens) >= 3 {
		if particle, given, surname, ok := splitParticle(tokens); ok {
			return entities.PersonName{
				Primary:  name,
				Particle: particle,
				Display:  name,
				SortKey:  surname + ", " + particle + ", " + given,
			}
		}
	}

	if len(tokens) >= 2 {
		last := len(tokens) - 1
		return entities.PersonName{
			Primary: name,
			Display: name,
			SortKey: tokens[last] + ", " + strings.Join(tokens[:last], " "),
		}
	}

	return entities.PersonName{
		Primary: name,
		Display: name,
		SortKey: name,
	}
}

// splitParticle looks for a known particle directly before the final token.
// At least one given name must precede the particle.
func splitParticle(tokens []string) (particle, given, surname string, ok bool) {
	for _, p := range particles {
		if len(tokens) < len(p)+2 {
			continue
		}
		start := len(tokens) - len(p) - 1
		if !tokensEqualFold(tokens[start:start+len(p)], p) {
			continue
		}
		return strings.Join(p, " "),
			strings.Join(tokens[:start], " "),
			tokens[len(tokens)-1],
			true
	}
	return "", "", "", false
}

func tokensEqualFold(got, want []string) bool {
	for i := range want {
		if !strings.EqualFold(got[i], want[i]) {
			return false
		}
	}
	return true
}
