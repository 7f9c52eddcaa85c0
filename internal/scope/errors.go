package scope

import "errors"

// ErrMalformedURL is returned by Evaluate when a candidate URL cannot be parsed.
// It is fatal for the page being processed and is never swallowed.
var ErrMalformedURL = errors.New("malformed URL")
