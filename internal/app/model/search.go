package model

import "time"

// SearchResult is what one search returns to the client and what the cache
// stores.
type SearchResult struct {
	Stores    map[string]*StoreResult `json:"stores"`
	Summaries map[string]Summary      `json:"summaries"`
	Distances map[string]*int         `json:"distances"`
	Order     []string                `json:"order"` // 검색 순위대로 매장명
}

type ProgressEventType string

const (
	EventCandidates   ProgressEventType = "candidates"
	EventCrawlStarted ProgressEventType = "crawl_started"
	EventStoreCrawled ProgressEventType = "store_crawled"
	EventPersisted    ProgressEventType = "persisted"
	EventSummarized   ProgressEventType = "summarized"
	EventDone         ProgressEventType = "done"
	EventDiscarded    ProgressEventType = "discarded"
)

// ProgressEvent 검색 진행 상황 (websocket 전송용)
type ProgressEvent struct {
	Type       ProgressEventType `json:"type"`
	Session    string            `json:"session"`
	Generation uint64            `json:"generation"`
	Store      string            `json:"store,omitempty"`
	Stores     []string          `json:"stores,omitempty"`
	Count      int               `json:"count,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}
