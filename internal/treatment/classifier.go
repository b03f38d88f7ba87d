package treatment

import (
	"math"
	"regexp"
	"strings"

	"github.com/okravets/shepard/internal/model"
)

// keywordEntry is one row of the keyword tables
type keywordEntry struct {
	keyword  string
	category model.TreatmentCategory
	score    int
}

// negationEntry is one row of the negation-phrase table. The phrase scores
// are calibrated above the underlying positive verb alone: "declined to
// follow" is a stronger negative statement than "followed" is a positive one.
type negationEntry struct {
	pattern  *regexp.Regexp
	phrase   string
	category model.TreatmentCategory
	score    int
}

// modifierEntry pairs an intensifier/weakener word with its multiplier
type modifierEntry struct {
	word       string
	multiplier float64
}

var negationTable = []negationEntry{
	{negRe(`declined to follow`), "declined to follow", model.TreatmentRejected, 8},
	{negRe(`declined to adopt`), "declined to adopt", model.TreatmentRejected, 8},
	{negRe(`declined to extend`), "declined to extend", model.TreatmentLimited, 6},
	{negRe(`declined to apply`), "declined to apply", model.TreatmentRejected, 7},
	{negRe(`refused to follow`), "refused to follow", model.TreatmentRejected, 9},
	{negRe(`refused to adopt`), "refused to adopt", model.TreatmentRejected, 9},
	{negRe(`refused to apply`), "refused to apply", model.TreatmentRejected, 8},
	{negRe(`no longer followed`), "no longer followed", model.TreatmentOverruled, 9},
	{negRe(`no longer good law`), "no longer good law", model.TreatmentOverruled, 9},
	{negRe(`not followed`), "not followed", model.TreatmentRejected, 7},
	{negRe(`not applied`), "not applied", model.TreatmentRejected, 6},
	{negRe(`distinguished and rejected`), "distinguished and rejected", model.TreatmentRejected, 8},
	{negRe(`declined to endorse`), "declined to endorse", model.TreatmentRejected, 7},
}

var negativeKeywords = []keywordEntry{
	{"overruled", model.TreatmentOverruled, 10},
	{"abrogated", model.TreatmentAbrogated, 10},
	{"reversed", model.TreatmentReversed, 9},
	{"vacated", model.TreatmentVacated, 9},
	{"superseded", model.TreatmentSuperseded, 9},
	{"disapproved", model.TreatmentDisapproved, 8},
	{"rejected", model.TreatmentRejected, 7},
	{"questioned", model.TreatmentQuestioned, 6},
	{"doubted", model.TreatmentQuestioned, 6},
	{"criticized", model.TreatmentCriticized, 5},
	{"limited", model.TreatmentLimited, 4},
	{"narrowed", model.TreatmentLimited, 4},
}

var positiveKeywords = []keywordEntry{
	{"affirmed", model.TreatmentAffirmed, 8},
	{"followed", model.TreatmentFollowed, 7},
	{"adopted", model.TreatmentFollowed, 7},
	{"approved", model.TreatmentApproved, 6},
	{"endorsed", model.TreatmentApproved, 6},
	{"applied", model.TreatmentApplied, 5},
	{"agreed", model.TreatmentApplied, 5},
}

var neutralKeywords = []keywordEntry{
	{"distinguished", model.TreatmentDistinguished, 5},
	{"explained", model.TreatmentExplained, 3},
	{"discussed", model.TreatmentDiscussed, 2},
	{"cited", model.TreatmentCited, 1},
	{"mentioned", model.TreatmentCited, 1},
}

var intensifiers = []modifierEntry{
	{"unequivocally", 1.4},
	{"categorically", 1.4},
	{"expressly", 1.3},
	{"explicitly", 1.3},
	{"clearly", 1.2},
	{"firmly", 1.2},
	{"strongly", 1.2},
}

var weakeners = []modifierEntry{
	{"possibly", 0.6},
	{"might", 0.6},
	{"could", 0.6},
	{"arguably", 0.7},
	{"seems", 0.7},
	{"implicitly", 0.7},
	{"appears", 0.8},
}

// contextWindow is how far around a match (in characters of normalized text)
// modifier words are looked for
const contextWindow = 50

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	keywordRes   = buildKeywordRes()
)

func negRe(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + strings.ReplaceAll(phrase, " ", `\s+`) + `\b`)
}

func buildKeywordRes() map[string]*regexp.Regexp {
	res := make(map[string]*regexp.Regexp)
	add := func(entries []keywordEntry) {
		for _, e := range entries {
			if _, ok := res[e.keyword]; !ok {
				res[e.keyword] = regexp.MustCompile(`\b` + e.keyword + `\b`)
			}
		}
	}
	add(negativeKeywords)
	add(positiveKeywords)
	add(neutralKeywords)
	return res
}

// span is a covered character range within the normalized text
type span struct {
	start, end int
}

func (s span) overlaps(other span) bool {
	return s.start < other.end && other.start < s.end
}

// Classify runs the keyword/negation/context classification over one excerpt.
// It is deterministic and does no I/O. Empty or signal-less text yields an
// empty slice, never an error.
func Classify(text string) []model.TreatmentSignal {
	normalized := normalize(text)
	if normalized == "" {
		return nil
	}

	var signals []model.TreatmentSignal
	var covered []span

	// Negation pass first: multi-word phrases invert the positive verb they
	// contain, so their spans must shadow the keyword pass.
	for _, entry := range negationTable {
		for _, loc := range entry.pattern.FindAllStringIndex(normalized, -1) {
			s := span{loc[0], loc[1]}
			covered = append(covered, s)
			mult := contextMultiplier(normalized, s)
			signals = append(signals, model.TreatmentSignal{
				Category:          entry.category,
				Polarity:          model.PolarityNegative,
				Keyword:           entry.phrase,
				BaseScore:         entry.score,
				ContextMultiplier: mult,
				FinalScore:        roundScore(entry.score, mult),
				Start:             s.start,
				End:               s.end,
				IsNegation:        true,
				Excerpt:           text,
			})
		}
	}

	// Keyword pass: skip matches shadowed by a negation span
	scan := func(entries []keywordEntry, polarity model.Polarity) {
		for _, entry := range entries {
			for _, loc := range keywordRes[entry.keyword].FindAllStringIndex(normalized, -1) {
				s := span{loc[0], loc[1]}
				if overlapsAny(s, covered) {
					continue
				}
				mult := contextMultiplier(normalized, s)
				signals = append(signals, model.TreatmentSignal{
					Category:          entry.category,
					Polarity:          polarity,
					Keyword:           entry.keyword,
					BaseScore:         entry.score,
					ContextMultiplier: mult,
					FinalScore:        roundScore(entry.score, mult),
					Start:             s.start,
					End:               s.end,
					Excerpt:           text,
				})
			}
		}
	}
	scan(negativeKeywords, model.PolarityNegative)
	scan(positiveKeywords, model.PolarityPositive)
	scan(neutralKeywords, model.PolarityNeutral)

	return signals
}

// normalize case-folds and collapses whitespace
func normalize(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(strings.ToLower(text), " "))
}

func overlapsAny(s span, covered []span) bool {
	for _, c := range covered {
		if s.overlaps(c) {
			return true
		}
	}
	return false
}

// contextMultiplier inspects the window around a match for intensifier or
// weakener words. When both directions are present, the modifier that
// deviates most from 1.0 wins; a tie goes to the intensifier. Both are never
// applied to the same signal.
func contextMultiplier(normalized string, s span) float64 {
	start := s.start - contextWindow
	if start < 0 {
		start = 0
	}
	end := s.end + contextWindow
	if end > len(normalized) {
		end = len(normalized)
	}
	window := normalized[start:end]

	strongest := 1.0 // highest intensifier multiplier found
	for _, m := range intensifiers {
		if containsWord(window, m.word) && m.multiplier > strongest {
			strongest = m.multiplier
		}
	}
	weakest := 1.0 // lowest weakener multiplier found
	for _, m := range weakeners {
		if containsWord(window, m.word) && m.multiplier < weakest {
			weakest = m.multiplier
		}
	}

	switch {
	case strongest > 1.0 && weakest < 1.0:
		if 1.0-weakest > strongest-1.0 {
			return weakest
		}
		return strongest
	case weakest < 1.0:
		return weakest
	default:
		return strongest
	}
}

func containsWord(window, word string) bool {
	idx := 0
	for {
		i := strings.Index(window[idx:], word)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordChar(window[i-1])
		afterIdx := i + len(word)
		after := afterIdx >= len(window) || !isWordChar(window[afterIdx])
		if before && after {
			return true
		}
		idx = i + 1
	}
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

func roundScore(base int, mult float64) int {
	return int(math.Round(float64(base) * mult))
}
