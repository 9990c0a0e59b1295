package model

import (
	"time"

	"github.com/ikkim/lunchmap-backend/internal/identity"
)

// Candidate is one store returned by the nearby search.
type Candidate struct {
	Name      string
	Address   string
	Coord     identity.Coordinate
	DistanceM *int
}

// CrawlRecord is everything one crawl batch learned about a single store.
type CrawlRecord struct {
	Address identity.Address
	Images  []string
	Reviews map[Source][]string
}

// NewCrawlRecord returns a record with every source present and empty.
func NewCrawlRecord() *CrawlRecord {
	reviews := make(map[Source][]string, len(Sources()))
	for _, src := range Sources() {
		reviews[src] = []string{}
	}
	return &CrawlRecord{Reviews: reviews}
}

// ReviewRow is one joined store/review row read back for shaping.
type ReviewRow struct {
	StoreName string
	Address   *string
	Lat       *float64
	Lng       *float64
	Img1      *string
	Img2      *string
	Img3      *string
	Source    Source
	Review    string
	LastSeen  time.Time
}

type SourceReviews struct {
	Reviews []string `json:"reviews"`
}

// StoreResult is the per-store shape handed to the summarizer and the API.
type StoreResult struct {
	Address    *string        `json:"address"`
	Lat        *float64       `json:"lat"`
	Lng        *float64       `json:"lng"`
	StoreImage []string       `json:"store_image"`
	Kakao      *SourceReviews `json:"kakao"`
	Google     *SourceReviews `json:"google"`
	Naver      *SourceReviews `json:"naver"`

	// Reviews is a generic bucket for callers that do not split by source.
	Reviews []string `json:"reviews,omitempty"`
}

// NewStoreResult returns a result with all three source containers present.
func NewStoreResult() *StoreResult {
	return &StoreResult{
		StoreImage: []string{},
		Kakao:      &SourceReviews{Reviews: []string{}},
		Google:     &SourceReviews{Reviews: []string{}},
		Naver:      &SourceReviews{Reviews: []string{}},
	}
}

// Bucket returns the container for a source, or nil for an unknown one.
func (r *StoreResult) Bucket(src Source) *SourceReviews {
	switch src {
	case SourceKakao:
		return r.Kakao
	case SourceGoogle:
		return r.Google
	case SourceNaver:
		return r.Naver
	}
	return nil
}

// ReviewCount sums reviews across the three sources.
func (r *StoreResult) ReviewCount() int {
	n := 0
	for _, src := range Sources() {
		if b := r.Bucket(src); b != nil {
			n += len(b.Reviews)
		}
	}
	return n
}

// Summary is the sanitized LLM verdict for one store.
type Summary struct {
	OneLiner   string   `json:"one_liner"`
	Rating     float64  `json:"rating"`
	Complain   []string `json:"complain"`
	RawTextLen int      `json:"raw_text_len"`
}

// DefaultSummary is used whenever there is nothing usable to summarize.
func DefaultSummary(rawTextLen int) Summary {
	return Summary{Rating: 3.0, Complain: []string{}, RawTextLen: rawTextLen}
}
