package store

import (
	"strings"
	"sync"

	"github.com/nao1215/scopecrawl/internal/model"
	"github.com/nao1215/scopecrawl/internal/tokenizer"
)

// Store accumulates unique URLs and word frequencies across a crawl session.
type Store struct {
	// mu serializes every mutation and snapshot.
	mu sync.Mutex

	// uniqueURLs holds page URLs with their fragment removed.
	uniqueURLs map[string]struct{}

	// words is the cumulative frequency table.
	words *tokenizer.Frequencies
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		uniqueURLs: make(map[string]struct{}),
		words:      tokenizer.NewFrequencies(),
	}
}

// RecordSeen adds the URL, without its fragment, to the unique set.
// It reports whether the URL was new.
func (s *Store) RecordSeen(rawURL string) bool {
	key := StripFragment(rawURL)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.uniqueURLs[key]; ok {
		return false
	}
	s.uniqueURLs[key] = struct{}{}
	return true
}

// MergeFrequencies adds the counts of one page to the running totals.
func (s *Store) MergeFrequencies(page *tokenizer.Frequencies) {
	if page == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.words.Merge(page)
}

// Snapshot returns the top n words and the unique URL count.
// A non-positive n means model.DefaultTopN. Snapshot never mutates the store.
func (s *Store) Snapshot(n int) *model.Summary {
	if n <= 0 {
		n = model.DefaultTopN
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return &model.Summary{
		Limit:          n,
		TopWords:       s.words.Top(n),
		UniqueURLCount: len(s.uniqueURLs),
	}
}

// UniqueURLCount returns the number of distinct URLs recorded.
func (s *Store) UniqueURLCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uniqueURLs)
}

// WordCount returns the cumulative count of a token.
func (s *Store) WordCount(token string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.words.Count(token)
}

// StripFragment removes everything from the first '#'.
// The rest of the URL is kept byte for byte, so membership stays an exact
// string comparison.
func StripFragment(rawURL string) string {
	before, _, _ := strings.Cut(rawURL, "#")
	return before
}
