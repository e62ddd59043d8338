package query

import "time"

// Options selects what a query searches over
type Options struct {
	IncludeEmails    bool       `json:"include_emails"`
	IncludeDocuments bool       `json:"include_documents"`
	IncludeMeetings  bool       `json:"include_meetings"`
	DateFrom         *time.Time `json:"date_from,omitempty"`
	DateTo           *time.Time `json:"date_to,omitempty"`
	MaxResults       int        `json:"max_results"`
}

// DefaultOptions searches all item types with the default result cap
func DefaultOptions() Options {
	return Options{
		IncludeEmails:    true,
		IncludeDocuments: true,
		IncludeMeetings:  true,
		MaxResults:       defaultMaxResults,
	}
}

const (
	defaultMaxResults = 10
	maxMaxResults     = 50
)

// normalize clamps the result cap and re-enables all types when none are
// selected, matching the all-true default
func (o Options) normalize() Options {
	if !o.IncludeEmails && !o.IncludeDocuments && !o.IncludeMeetings {
		o.IncludeEmails = true
		o.IncludeDocuments = true
		o.IncludeMeetings = true
	}
	if o.MaxResults < 1 {
		o.MaxResults = defaultMaxResults
	}
	if o.MaxResults > maxMaxResults {
		o.MaxResults = maxMaxResults
	}
	return o
}

// Source is one retrieved item backing an answer. Ephemeral, produced fresh
// per query.
type Source struct {
	Type           string     `json:"type"`
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Snippet        string     `json:"snippet"`
	RelevanceScore float64    `json:"relevance_score"`
	Date           *time.Time `json:"date,omitempty"`
}

// Response is a synthesized answer with its grounding sources
type Response struct {
	Answer      string   `json:"answer"`
	Sources     []Source `json:"sources"`
	Confidence  float64  `json:"confidence"`
	QueryTimeMs int64    `json:"query_time_ms"`
}
