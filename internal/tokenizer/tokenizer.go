package tokenizer

import (
	"sort"
	"strings"

	"github.com/nao1215/scopecrawl/internal/model"
)

// Tokenize returns the lower-cased alphanumeric tokens of text in order.
// Empty input yields an empty, non-nil slice.
func Tokenize(text string) []string {
	tokens := make([]string, 0)

	start := -1
	for i := 0; i < len(text); i++ {
		if isAlphaNum(text[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, strings.ToLower(text[start:i]))
			start = -1
		}
	}

	// Flush a token that runs to the end of the input.
	if start >= 0 {
		tokens = append(tokens, strings.ToLower(text[start:]))
	}

	return tokens
}

// isAlphaNum reports whether b is an ASCII letter or digit.
// Bytes of multi-byte UTF-8 sequences are always >= 0x80 and never match.
func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// ComputeWordFrequencies counts the occurrences of each token.
func ComputeWordFrequencies(tokens []string) *Frequencies {
	f := NewFrequencies()
	for _, token := range tokens {
		f.Add(token, 1)
	}
	return f
}

// TopWords returns the n most frequent tokens, highest count first.
// Tokens with equal counts keep the order in which they were first added.
// A non-positive n means model.DefaultTopN.
func TopWords(f *Frequencies, n int) []model.WordCount {
	if f == nil {
		return make([]model.WordCount, 0)
	}
	return f.Top(n)
}

// Frequencies is a token -> count table that remembers the order in which
// tokens were first added. The zero value is not usable; use NewFrequencies.
type Frequencies struct {
	counts map[string]int
	order  []string
}

// NewFrequencies returns an empty table.
func NewFrequencies() *Frequencies {
	return &Frequencies{
		counts: make(map[string]int),
		order:  make([]string, 0),
	}
}

// Add increases the count of token by n, creating the entry if needed.
// Non-positive n is ignored so counts never decrease.
func (f *Frequencies) Add(token string, n int) {
	if token == "" || n <= 0 {
		return
	}
	if _, ok := f.counts[token]; !ok {
		f.order = append(f.order, token)
	}
	f.counts[token] += n
}

// Count returns the count of token, or 0.
func (f *Frequencies) Count(token string) int {
	return f.counts[token]
}

// Len returns the number of distinct tokens.
func (f *Frequencies) Len() int {
	return len(f.order)
}

// Total returns the sum of all counts.
func (f *Frequencies) Total() int {
	total := 0
	for _, c := range f.counts {
		total += c
	}
	return total
}

// Merge adds every count of other into f.
// Tokens new to f are appended in other's insertion order.
func (f *Frequencies) Merge(other *Frequencies) {
	if other == nil {
		return
	}
	other.Each(func(token string, count int) {
		f.Add(token, count)
	})
}

// Each calls fn for every token in insertion order.
func (f *Frequencies) Each(fn func(token string, count int)) {
	for _, token := range f.order {
		fn(token, f.counts[token])
	}
}

// Top returns at most n entries ordered by descending count.
// The sort is stable over insertion order.
func (f *Frequencies) Top(n int) []model.WordCount {
	if n <= 0 {
		n = model.DefaultTopN
	}

	words := make([]model.WordCount, 0, len(f.order))
	for _, token := range f.order {
		words = append(words, model.WordCount{Word: token, Count: f.counts[token]})
	}

	sort.SliceStable(words, func(i, j int) bool {
		return words[i].Count > words[j].Count
	})

	if len(words) > n {
		words = words[:n]
	}
	return words
}
