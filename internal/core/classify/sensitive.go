package classify

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultSensitiveKeywords is the default sensitive-path vocabulary,
// matched case-insensitively against every path segment. The terms are
// Danish organisational vocabulary for payroll, legal, executive,
// personnel, and financial records; entries are regular-expression
// fragments so spelling variants (ø/o, æ/a) collapse into one entry.
var DefaultSensitiveKeywords = []string{
	"l[øo]n",         // løn, lønseddel, lønoplysninger
	"ledelse",        // ledelse, ledelsen
	"direktion",      // direktion, direktionen
	"bestyrelse",     // bestyrelse, bestyrelsesmøde
	"datarum",        // data room
	"personale",      // personale, personalemappe
	"ans[æa]tt",      // ansættelse, ansættelseskontrakt
	"opsigelse",      // opsigelse, opsigelser
	"fratr[æa]d",     // fratrædelse
	"regnskab",       // regnskab, regnskaber
	"budget",         // budget, budgetter
	"[øo]konomi",     // økonomi, ekonomi
	"faktura",        // faktura, fakturaer
	"kontrakt",       // kontrakt, kontrakter
	"fortrolig",      // fortrolig, fortroligt
	"hemmelig",       // hemmelig, hemmeligt
	"persondata",     // persondata
	"cpr",            // CPR-nummer
	"personfølsom",   // personfølsom, personfølsomme
	"sundhed",        // sundhed, sundhedsoplysninger
	"syge",           // syge, sygefravær, sygedagpenge
	"gdpr",           // GDPR
	"pension",        // pension, pensionsordning
	"ferie",          // ferie, ferieregnskab
	"revision",       // revision (audit)
	"inkasso",        // inkasso (debt collection)
	"gæld",           // gæld (debt)
	"erstatning",     // erstatning (compensation/damages)
	"disciplin[æa]r", // disciplinær, disciplinærsag
	"advarsel",       // advarsel (warning)
	"klage",          // klage (complaint)
}

// teamsChatPattern matches the provider's well-known chat-attachments
// folder in its localised and English forms. Used only for source
// relabeling, never for risk.
var teamsChatPattern = regexp.MustCompile(`(?i)Microsoft Teams[ -]chatfiler|Microsoft Teams Chat Files`)

// Matcher reports whether a path contains sensitive vocabulary.
// The zero value matches nothing; use NewMatcher or DefaultMatcher.
type Matcher struct {
	re *regexp.Regexp
}

// NewMatcher compiles a sensitive-path matcher from keyword fragments.
// Matching is case-insensitive over the full path, folder segments
// included.
func NewMatcher(keywords []string) (*Matcher, error) {
	if len(keywords) == 0 {
		return &Matcher{}, nil
	}
	re, err := regexp.Compile("(?i)(" + strings.Join(keywords, "|") + ")")
	if err != nil {
		return nil, fmt.Errorf("compiling sensitive keywords: %w", err)
	}
	return &Matcher{re: re}, nil
}

// DefaultMatcher returns a matcher over DefaultSensitiveKeywords.
func DefaultMatcher() *Matcher {
	m, err := NewMatcher(DefaultSensitiveKeywords)
	if err != nil {
		// The default vocabulary is a compile-time constant; a failure
		// here is a programming error.
		panic(err)
	}
	return m
}

// SensitivePath reports whether any part of the path matches the
// sensitive vocabulary.
func (m *Matcher) SensitivePath(path string) bool {
	return m.re != nil && m.re.MatchString(path)
}

// IsTeamsChatPath reports whether the path belongs to the provider's
// Teams chat-attachments folder.
func IsTeamsChatPath(path string) bool {
	return teamsChatPattern.MatchString(path)
}
