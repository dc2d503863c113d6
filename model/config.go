package model

// QueryConfig represents configuration for a retrieval query
type QueryConfig struct {
	// Search parameters
	TopK int `json:"top_k"`

	// Graph traversal parameters
	MaxHops             int      `json:"max_hops,omitempty"`
	Predicates          []string `json:"predicates,omitempty"` // Filter by edge predicate
	FollowBidirectional bool     `json:"follow_bidirectional"`
	MaxResults          int      `json:"max_results,omitempty"`
}

// DefaultQueryConfig returns a sensible default configuration
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:                10,
		MaxHops:             2,
		Predicates:          nil, // All predicates
		FollowBidirectional: true,
		MaxResults:          100,
	}
}

// AllowsPredicate reports whether an edge with the given predicate may be followed.
func (c QueryConfig) AllowsPredicate(predicate string) bool {
	if len(c.Predicates) == 0 {
		return true
	}
	for _, p := range c.Predicates {
		if p == predicate {
			return true
		}
	}
	return false
}
