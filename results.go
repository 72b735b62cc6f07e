package searchcore

import "time"

// Results is a ranked, faceted result page. Items never exceeds the query
// limit; RelevanceScores keys are a subset of the item ids.
type Results struct {
	Items           []Item                    `json:"items"`
	TotalCount      int                       `json:"totalCount"`
	SearchTime      time.Duration             `json:"searchTime"`
	RelevanceScores map[string]float64        `json:"relevanceScores,omitempty"`
	Facets          map[string]map[string]int `json:"facets,omitempty"`
	Suggestions     []string                  `json:"suggestions,omitempty"`
	HasMore         bool                      `json:"hasMore"`
	NextOffset      *int                      `json:"nextOffset,omitempty"`
	Cached          bool                      `json:"cached"`
}
