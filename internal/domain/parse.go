package domain

// ParseResult is the output of the text parser: either a candidate or the
// reason parsing failed. Exactly one of Candidate and FailureReason is set.
type ParseResult struct {
	Candidate     *EntryCandidate
	FailureReason string
}

// ParsedCandidate wraps a successful parse.
func ParsedCandidate(c EntryCandidate) ParseResult {
	return ParseResult{Candidate: &c}
}

// ParseFailure wraps a failed parse.
func ParseFailure(reason string) ParseResult {
	if reason == "" {
		reason = "unrecognized text"
	}
	return ParseResult{FailureReason: reason}
}

// Ok reports whether the parse produced a candidate.
func (r ParseResult) Ok() bool {
	return r.Candidate != nil && r.FailureReason == ""
}
