package model

// DefaultTopN is the number of words reported in a summary.
const DefaultTopN = 50

// WordCount is a token with its cumulative number of occurrences.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Summary is a point-in-time view of the aggregation store.
type Summary struct {
	// Limit is the requested number of top words. Report headers announce
	// this value even when fewer words are known.
	Limit int `json:"limit"`

	// TopWords holds at most Limit entries, highest count first.
	TopWords []WordCount `json:"top_words"`

	// UniqueURLCount is the number of distinct pages recorded so far.
	UniqueURLCount int `json:"unique_url_count"`
}
