package domain

// Candidate is a normalized, registrable domain key proposed as potentially
// affiliated with the target company. It is always lower-case, carries no
// scheme, path, query or trailing slash, and acts as its own identity for
// deduplication and set membership.
type Candidate string

// String returns the bare domain key.
func (c Candidate) String() string { return string(c) }

// URL returns the candidate as a fetchable https URL.
func (c Candidate) URL() string { return "https://" + string(c) }

// Suffix returns the last dot-separated label of the domain ("com" for
// "example.com", "de" for "example.de"). It is empty when the key carries
// no dot, which normalization should have rejected.
func (c Candidate) Suffix() string {
	s := string(c)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[i+1:]
		}
	}

	return ""
}

// CandidateSet is a deduplicated collection of candidates.
type CandidateSet map[Candidate]struct{}

// NewCandidateSet builds a set from the given candidates.
func NewCandidateSet(candidates ...Candidate) CandidateSet {
	s := make(CandidateSet, len(candidates))
	for _, c := range candidates {
		s[c] = struct{}{}
	}

	return s
}

// Contains reports whether c is a member of the set.
func (s CandidateSet) Contains(c Candidate) bool {
	_, ok := s[c]

	return ok
}
