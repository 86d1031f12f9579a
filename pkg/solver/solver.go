// Package solver answers the platform's obfuscated arithmetic challenges.
//
// Challenges encode two operands and one operation, scrambled with random
// casing, punctuation, stuttered letters, and digit-for-letter swaps. The
// deterministic pipeline here is the fallback used when no generation
// backend is available; it never fails, degrading to a zero result so the
// platform always receives an answer.
package solver

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

type operator int

const (
	opAdd operator = iota
	opSubtract
	opMultiply
	opDivide
)

var numberToken = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

// Digit swaps commonly used to obfuscate letters inside words.
var leet = map[rune]rune{
	'0': 'o',
	'1': 'i',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'7': 't',
}

type wordNumber struct {
	word  string
	value float64
}

var onesWords = []wordNumber{
	{"one", 1}, {"two", 2}, {"thre", 3}, {"four", 4}, {"five", 5},
	{"six", 6}, {"seven", 7}, {"eight", 8}, {"nine", 9},
}

var tensWords = []wordNumber{
	{"twenty", 20}, {"thirty", 30}, {"forty", 40}, {"fifty", 50},
	{"sixty", 60}, {"seventy", 70}, {"eighty", 80}, {"ninety", 90},
}

var simpleWords = []wordNumber{
	{"ten", 10}, {"eleven", 11}, {"twelve", 12}, {"thirten", 13},
	{"fourten", 14}, {"fiften", 15}, {"sixten", 16}, {"seventen", 17},
	{"eighten", 18}, {"nineten", 19},
	{"twenty", 20}, {"thirty", 30}, {"forty", 40}, {"fifty", 50},
	{"sixty", 60}, {"seventy", 70}, {"eighty", 80}, {"ninety", 90},
	{"one", 1}, {"two", 2}, {"thre", 3}, {"four", 4}, {"five", 5},
	{"six", 6}, {"seven", 7}, {"eight", 8}, {"nine", 9},
	{"zero", 0}, {"hundred", 100},
}

// compoundWords is every tens+ones concatenation ("twentyone" .. "ninetynine")
// in collapsed spelling, checked before the simple words so "sixtysix" is
// never read as 60 and 6 separately.
var compoundWords = buildCompoundWords()

func buildCompoundWords() []wordNumber {
	compounds := make([]wordNumber, 0, len(tensWords)*len(onesWords))
	for _, t := range tensWords {
		for _, o := range onesWords {
			compounds = append(compounds, wordNumber{
				word:  collapseRepeats(t.word + o.word),
				value: t.value + o.value,
			})
		}
	}
	sortLongestFirst(compounds)
	return compounds
}

func init() {
	sortLongestFirst(simpleWords)
}

func sortLongestFirst(words []wordNumber) {
	sort.SliceStable(words, func(i, j int) bool {
		return len(words[i].word) > len(words[j].word)
	})
}

// Solve answers one obfuscated challenge, formatted to two decimal places.
// An unparseable challenge yields "0.00" rather than an error.
func Solve(challenge string) string {
	text := deleet(challenge)
	numbers := literalNumbers(text)

	compressed := compress(text)
	numbers = append(numbers, wordNumbers(compressed)...)

	op := detectOperator(space(text), compressed)
	return formatAnswer(apply(op, numbers))
}

// ParseAnswer extracts the first numeric token from a generation response
// and normalizes it to two decimal places.
func ParseAnswer(response string) (string, error) {
	token := numberToken.FindString(response)
	if token == "" {
		return "", fmt.Errorf("no numeric token in response %q", response)
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", token, err)
	}
	return formatAnswer(v), nil
}

// deleet rewrites digits that sit against letters back into the letters
// they imitate ("Th1rty" -> "Thirty"). Free-standing digit runs are left
// alone so they can still be read as literal numbers.
func deleet(s string) string {
	runes := []rune(s)
	out := make([]rune, len(runes))
	for i, r := range runes {
		sub, ok := leet[r]
		if ok && (adjacentLetter(runes, i-1) || adjacentLetter(runes, i+1)) {
			out[i] = sub
			continue
		}
		out[i] = r
	}
	return string(out)
}

func adjacentLetter(runes []rune, i int) bool {
	return i >= 0 && i < len(runes) && unicode.IsLetter(runes[i])
}

// literalNumbers pulls digit sequences straight out of the text.
func literalNumbers(s string) []float64 {
	var nums []float64
	for _, token := range numberToken.FindAllString(s, -1) {
		if v, err := strconv.ParseFloat(token, 64); err == nil {
			nums = append(nums, v)
		}
	}
	return nums
}

// space lowercases and replaces every non-letter with a space, collapsing
// runs. Used only for operator keywords that need word boundaries.
func space(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// compress lowercases, strips every non-letter, and collapses repeated
// letters. Obfuscation injects spaces and stutters inside words, so this is
// the only form number-words can reliably be found in.
func compress(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return collapseRepeats(b.String())
}

func collapseRepeats(s string) string {
	var b strings.Builder
	var prev rune = -1
	for _, r := range s {
		if r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// wordNumbers scans the compressed string left to right with greedy
// longest-match lookup: compound words first, then simple ones. Each match
// consumes its span so a compound can never double as its sub-words.
func wordNumbers(compressed string) []float64 {
	var nums []float64
	for i := 0; i < len(compressed); {
		if v, n := matchAt(compressed[i:]); n > 0 {
			nums = append(nums, v)
			i += n
			continue
		}
		i++
	}
	return nums
}

func matchAt(s string) (value float64, length int) {
	for _, w := range compoundWords {
		if strings.HasPrefix(s, w.word) {
			return w.value, len(w.word)
		}
	}
	for _, w := range simpleWords {
		if strings.HasPrefix(s, w.word) {
			return w.value, len(w.word)
		}
	}
	return 0, 0
}

var sumWord = regexp.MustCompile(`\bsum\b`)

// detectOperator searches both normalizations for operation keywords. The
// priority order multiply, divide, subtract, add is load-bearing: it is what
// keeps a stray substring like "sum" inside a longer word from winning, and
// must not be reordered.
func detectOperator(spaced, compressed string) operator {
	haystack := spaced + " " + compressed

	for _, kw := range []string{"product", "times", "multipl"} {
		if strings.Contains(haystack, kw) {
			return opMultiply
		}
	}
	for _, kw := range []string{"divid", "quotient", "split"} {
		if strings.Contains(haystack, kw) {
			return opDivide
		}
	}
	for _, kw := range []string{"difference", "minus", "subtract", "loses", "fewer"} {
		if strings.Contains(haystack, kw) {
			return opSubtract
		}
	}
	for _, kw := range []string{"add", "plus", "gains", "total"} {
		if strings.Contains(haystack, kw) {
			return opAdd
		}
	}
	if sumWord.MatchString(spaced) {
		return opAdd
	}
	// Nothing matched; the platform's corpus skews heavily additive.
	return opAdd
}

// apply folds the number list under the operator. Addition and
// multiplication fold the whole list; subtraction and division use only the
// first two numbers. An empty list degrades to zero.
func apply(op operator, nums []float64) float64 {
	if len(nums) == 0 {
		return 0
	}

	switch op {
	case opMultiply:
		result := nums[0]
		for _, n := range nums[1:] {
			result *= n
		}
		return result
	case opSubtract:
		if len(nums) < 2 {
			return nums[0]
		}
		return nums[0] - nums[1]
	case opDivide:
		if len(nums) < 2 {
			return nums[0]
		}
		if nums[1] == 0 {
			return 0
		}
		return nums[0] / nums[1]
	default:
		result := 0.0
		for _, n := range nums {
			result += n
		}
		return result
	}
}

func formatAnswer(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
