// Package text cleans page text before it is sent for synthesis.
//
// Book pages arrive with citation markers, bracketed references, typographic
// quotes and digits the speech model reads poorly. Normalizer rewrites them
// into plain speakable prose. URLs and e-mail addresses pass through intact.
package text

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSpelledNumber is the largest integer spelled out in words; larger
// numbers are left as digits.
const MaxSpelledNumber = 999999

const (
	protectedPattern  = `https?://\S+|[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`
	referencePattern  = `\[\d+(?:[,\-–]\s*\d+)*\]|[¹²³⁴⁵⁶⁷⁸⁹⁰]+`
	citationPattern   = `\([^()]*\b\d{4}[a-z]?\b[^()]*\)`
	numberPattern     = `\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?`
	whitespacePattern = `\s+`
	spaceBeforePunct  = `\s+([.,;:!?])`
)

var (
	ones = []string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
		"seventeen", "eighteen", "nineteen",
	}
	tens = []string{
		"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
	}
)

// Normalizer rewrites text for speech. It is safe for concurrent use.
type Normalizer struct {
	protected     *regexp.Regexp
	reference     *regexp.Regexp
	citation      *regexp.Regexp
	number        *regexp.Regexp
	whitespace    *regexp.Regexp
	punctSpacing  *regexp.Regexp
	abbreviations *strings.Replacer
	typography    *strings.Replacer
}

// NewNormalizer compiles the rewrite rules.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		protected:    regexp.MustCompile(protectedPattern),
		reference:    regexp.MustCompile(referencePattern),
		citation:     regexp.MustCompile(citationPattern),
		number:       regexp.MustCompile(numberPattern),
		whitespace:   regexp.MustCompile(whitespacePattern),
		punctSpacing: regexp.MustCompile(spaceBeforePunct),
		abbreviations: strings.NewReplacer(
			"Mr.", "Mister",
			"Mrs.", "Misses",
			"Ms.", "Miss",
			"Dr.", "Doctor",
			"St.", "Saint",
			"Ltd.", "Limited",
			"Corp.", "Corporation",
			"Inc.", "Incorporated",
			"e.g.", "for example",
			"i.e.", "that is",
		),
		typography: strings.NewReplacer(
			"—", " - ",
			"–", "-",
			"‒", "-",
			"…", "...",
			"“", `"`, "”", `"`,
			"‘", "'", "’", "'",
		),
	}
}

// Normalize returns text ready for synthesis. The result ends with sentence
// punctuation unless it is empty.
func (n *Normalizer) Normalize(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}

	var out strings.Builder

	last := 0
	for _, loc := range n.protected.FindAllStringIndex(input, -1) {
		out.WriteString(n.rewrite(input[last:loc[0]]))
		out.WriteString(input[loc[0]:loc[1]])
		last = loc[1]
	}

	out.WriteString(n.rewrite(input[last:]))

	cleaned := n.whitespace.ReplaceAllString(out.String(), " ")
	cleaned = n.punctSpacing.ReplaceAllString(cleaned, "$1")

	return endSentence(strings.TrimSpace(cleaned))
}

// rewrite applies the unprotected rules to a span of plain prose.
func (n *Normalizer) rewrite(span string) string {
	span = n.typography.Replace(span)
	span = n.reference.ReplaceAllString(span, "")
	span = n.citation.ReplaceAllString(span, "")
	span = n.abbreviations.Replace(span)

	return n.number.ReplaceAllStringFunc(span, spellNumeral)
}

// spellNumeral handles "1984", "12,500" and "3.14". Numerals too large to
// spell are returned unchanged.
func spellNumeral(numeral string) string {
	whole, fraction, hasFraction := strings.Cut(strings.ReplaceAll(numeral, ",", ""), ".")

	value, err := strconv.Atoi(whole)
	if err != nil || value > MaxSpelledNumber {
		return numeral
	}

	spoken := SpellNumber(value)
	if !hasFraction {
		return spoken
	}

	digits := make([]string, 0, len(fraction))
	for _, digit := range fraction {
		digits = append(digits, ones[digit-'0'])
	}

	return spoken + " point " + strings.Join(digits, " ")
}

// SpellNumber writes a non-negative integer up to MaxSpelledNumber in English
// words. Other values are returned as digits.
func SpellNumber(value int) string {
	if value < 0 || value > MaxSpelledNumber {
		return strconv.Itoa(value)
	}

	switch {
	case value < len(ones):
		return ones[value]
	case value < 100:
		return join(tens[value/10], value%10)
	case value < 1000:
		return join(ones[value/100]+" hundred", value%100)
	default:
		return join(SpellNumber(value/1000)+" thousand", value%1000)
	}
}

func join(head string, rest int) string {
	if rest == 0 {
		return head
	}

	return head + " " + SpellNumber(rest)
}

func endSentence(text string) string {
	if text == "" {
		return ""
	}

	lastChar, _ := utf8.DecodeLastRuneInString(text)

	switch lastChar {
	case '.', '!', '?':
		return text
	}

	if unicode.IsPunct(lastChar) && lastChar != '"' && lastChar != '\'' && lastChar != ')' {
		return strings.TrimRightFunc(text, unicode.IsPunct) + "."
	}

	return text + "."
}
