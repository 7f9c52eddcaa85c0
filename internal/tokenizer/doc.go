// Package tokenizer splits page text into word tokens and counts them.
//
// A token is a maximal run of ASCII letters and digits, folded to lower case.
// Every other character, including non-ASCII letters, separates tokens.
//
// Design decision: We scan bytes by hand instead of using regexp or
// strings.FieldsFunc because the token definition is ASCII-only and the
// scanner has to treat multi-byte runes as separators, which a single
// pass over the string does without allocating per rune.
package tokenizer
