package models

import "time"

// Listing is the normalized content of one listing card, before numbering.
type Listing struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	ImageURL string `json:"image_url"`
}

// ProductRecord is one numbered row of the export.
type ProductRecord struct {
	Seq      int    `json:"no"`
	Name     string `json:"product_name"`
	Price    string `json:"price"`
	ImageURL string `json:"image_url"`
}

// NewProductRecord numbers a listing.
func NewProductRecord(seq int, l Listing) ProductRecord {
	return ProductRecord{
		Seq:      seq,
		Name:     l.Name,
		Price:    l.Price,
		ImageURL: l.ImageURL,
	}
}

// PageState is a read-only snapshot taken after a pagination step settles
type PageState struct {
	URL       string `json:"url"`
	Heading   string `json:"heading"`
	PageIndex int    `json:"page_index"`
}

// Target describes one category to harvest. An empty CategoryURL means
// "continue from whatever page the browser is on".
type Target struct {
	CategoryURL string `json:"category_url,omitempty" yaml:"url"`
	Pages       int    `json:"pages" yaml:"pages"`
}

// RunStatus is the overall outcome of a scrape run
type RunStatus string

const (
	StatusComplete   RunStatus = "complete"
	StatusIncomplete RunStatus = "incomplete"
	StatusAborted    RunStatus = "aborted"
	StatusFailed     RunStatus = "failed"
)

// PageSummary records what happened on a single listing page
type PageSummary struct {
	TargetIndex int           `json:"target"`
	PageIndex   int           `json:"page"`
	URL         string        `json:"url"`
	Cards       int           `json:"cards"`
	Written     int           `json:"written"`
	Skipped     int           `json:"skipped"`
	FirstSeq    int           `json:"first_seq,omitempty"`
	LastSeq     int           `json:"last_seq,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
}

// RunResult is returned by a scrape session
type RunResult struct {
	Records   []ProductRecord `json:"records"`
	Pages     []PageSummary   `json:"pages"`
	Status    RunStatus       `json:"status"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
}
