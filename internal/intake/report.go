// Package intake turns free-text inspection notes into condition flags.
//
// Matching is a best-effort keyword heuristic. Its output should be reviewed
// by staff before it is used to price an estimate.
package intake

import (
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/rug-estimator/internal/model"
)

// Finding records one condition detected in the report text.
type Finding struct {
	Condition model.ConditionKey `json:"condition"`
	Severity  model.Severity     `json:"severity"`
	Phrase    string             `json:"phrase"`
}

// Result is the parsed report.
type Result struct {
	Conditions model.Conditions `json:"conditions"`
	Findings   []Finding        `json:"findings"`
}

type flagMatcher struct {
	key      model.ConditionKey
	keywords []string
}

// pattern matches any keyword at the start of a word.
func (m flagMatcher) pattern() *regexp.Regexp {
	quoted := make([]string, len(m.keywords))
	for i, kw := range m.keywords {
		quoted[i] = regexp.QuoteMeta(kw)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)`)
}

var matchers = []flagMatcher{
	{model.ConditionSoiling, []string{"soil", "dirt", "dirty", "grime", "grimy"}},
	{model.ConditionStaining, []string{"stain", "spotting", "spots"}},
	{model.ConditionPetUrine, []string{"urine", "pet odor", "pet odour", "pet accident"}},
	{model.ConditionFringeDamage, []string{"fringe"}},
	{model.ConditionEdgeDamage, []string{"edge", "binding", "selvedge", "overcast"}},
	{model.ConditionHolesTears, []string{"hole", "tear", "torn", "ripped"}},
	{model.ConditionWear, []string{"wear", "worn", "bald", "thin pile", "low pile"}},
	{model.ConditionColorRun, []string{"color run", "colour run", "dye bleed", "bleeding", "color bleed", "colour bleed"}},
	{model.ConditionMothDamage, []string{"moth", "larvae", "larva"}},
	{model.ConditionDryRot, []string{"dry rot", "brittle foundation", "rotted"}},
	{model.ConditionPestsInEnvironment, []string{"pests", "insects", "infestation", "bugs"}},
}

var patterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(matchers))
	for i, m := range matchers {
		out[i] = m.pattern()
	}
	return out
}()

var severityQualifiers = []struct {
	severity model.Severity
	words    []string
}{
	{model.SeveritySevere, []string{"severe", "severely", "heavy", "heavily", "extensive", "significant", "major"}},
	{model.SeverityModerate, []string{"moderate", "noticeable"}},
	{model.SeverityMinor, []string{"minor", "light", "lightly", "slight", "small", "faint"}},
}

var (
	qualifierSeverity = map[string]model.Severity{}
	qualifierPattern  = func() *regexp.Regexp {
		var words []string
		for _, q := range severityQualifiers {
			for _, w := range q.words {
				qualifierSeverity[w] = q.severity
				words = append(words, regexp.QuoteMeta(w))
			}
		}
		return regexp.MustCompile(`\b(?:` + strings.Join(words, "|") + `)\b`)
	}()
)

var negations = []string{"no ", "not ", "without ", "free of ", "none of"}

var clauseSplit = regexp.MustCompile(`[.;:\n!?]+|,\s*(?:but|and|while)\s+`)

// phraseSplit separates the conditions listed within one clause.
var phraseSplit = regexp.MustCompile(`,\s*|\s+(?:and|with|while|plus|but)\s+`)

type match struct {
	matcher    int
	start, end int
}

// ParseReport returns the condition flags detected in text. Flags that are
// not mentioned are set to none.
func ParseReport(text string) model.Conditions {
	return Parse(text).Conditions
}

// Parse scans text clause by clause and records the strongest severity seen
// for each condition.
func Parse(text string) Result {
	res := Result{Conditions: model.AllClear()}
	severities := make(map[model.ConditionKey]model.Severity)

	for _, clause := range clauseSplit.Split(strings.ToLower(text), -1) {
		for _, phrase := range phraseSplit.Split(clause, -1) {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			matches := findMatches(phrase)
			for j, mt := range matches {
				if negated(phrase[:mt.start]) {
					continue
				}
				// Qualifiers are looked up between the neighboring keywords only.
				lo, hi := 0, len(phrase)
				if j > 0 {
					lo = matches[j-1].end
				}
				if j < len(matches)-1 {
					hi = matches[j+1].start
				}
				sev := qualifier(phrase[lo:mt.start], phrase[mt.end:hi])

				key := matchers[mt.matcher].key
				if sev.Rank() > severities[key].Rank() {
					severities[key] = sev
				}
				res.Findings = append(res.Findings, Finding{Condition: key, Severity: sev, Phrase: phrase[mt.start:mt.end]})
			}
		}
	}

	for key, sev := range severities {
		setCondition(&res.Conditions, key, sev)
	}

	zap.L().Debug("intake: report parsed",
		zap.Int("chars", len(text)),
		zap.Int("findings", len(res.Findings)),
	)
	return res
}

// ReadReport reads a report in the named charset and returns UTF-8 text.
// An empty charset means the input is already UTF-8.
func ReadReport(r io.Reader, charset string) (string, error) {
	if charset != "" && !strings.EqualFold(charset, "utf-8") && !strings.EqualFold(charset, "utf8") {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return "", eris.Wrapf(err, "intake: unsupported charset %q", charset)
		}
		r = enc.NewDecoder().Reader(r)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", eris.Wrap(err, "intake: read report")
	}
	return string(b), nil
}

func negated(prefix string) bool {
	prefix = " " + prefix
	for _, n := range negations {
		if strings.Contains(prefix, " "+n) {
			return true
		}
	}
	return false
}

// findMatches returns the first keyword match of each matcher in phrase,
// ordered by position. Matches overlapping an earlier one are dropped.
func findMatches(phrase string) []match {
	var out []match
	for i := range matchers {
		if loc := patterns[i].FindStringIndex(phrase); loc != nil {
			out = append(out, match{matcher: i, start: loc[0], end: loc[1]})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].start < out[b].start })

	kept := out[:0]
	for _, m := range out {
		if len(kept) > 0 && m.start < kept[len(kept)-1].end {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// qualifier picks the qualifier nearest before a keyword, falling back to
// the first one after it. A bare mention is moderate.
func qualifier(before, after string) model.Severity {
	if locs := qualifierPattern.FindAllStringIndex(before, -1); len(locs) > 0 {
		last := locs[len(locs)-1]
		return qualifierSeverity[before[last[0]:last[1]]]
	}
	if loc := qualifierPattern.FindStringIndex(after); loc != nil {
		return qualifierSeverity[after[loc[0]:loc[1]]]
	}
	return model.SeverityModerate
}

func setCondition(c *model.Conditions, key model.ConditionKey, sev model.Severity) {
	switch key {
	case model.ConditionSoiling:
		c.Soiling = sev
	case model.ConditionStaining:
		c.Staining = sev
	case model.ConditionPetUrine:
		c.PetUrine = sev
	case model.ConditionFringeDamage:
		c.FringeDamage = sev
	case model.ConditionEdgeDamage:
		c.EdgeDamage = sev
	case model.ConditionHolesTears:
		c.HolesTears = sev
	case model.ConditionWear:
		c.Wear = sev
	case model.ConditionColorRun:
		c.ColorRun = sev
	case model.ConditionMothDamage:
		c.MothDamage = sev
	case model.ConditionDryRot:
		c.DryRot = sev.Present()
	case model.ConditionPestsInEnvironment:
		c.PestsInEnvironment = sev.Present()
	}
}
