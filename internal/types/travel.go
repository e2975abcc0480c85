package types

// TourismItem is a single venue returned by the Korea Tourism Organization
// keyword search API, normalized to a fixed shape. ContentID is the natural
// key for deduplication and index upserts.
type TourismItem struct {
	ContentID     string `json:"contentid"`
	ContentTypeID string `json:"contenttypeid"`
	Title         string `json:"title"`
	Addr1         string `json:"addr1"`
	Addr2         string `json:"addr2"`
	MapX          string `json:"mapx"`
	MapY          string `json:"mapy"`
	Tel           string `json:"tel"`
	FirstImage    string `json:"firstimage"`
	FirstImage2   string `json:"firstimage2"`
}

// QueryIntent holds the constraints extracted from a free-form query.
// A nil field means "no constraint", never "exclude everything".
type QueryIntent struct {
	Region         *string `json:"region,omitempty"`
	Theme          *string `json:"theme,omitempty"`
	IndoorOutdoor  *string `json:"indoor_outdoor,omitempty"` // "indoor" or "outdoor"
	MaxTimeMinutes *int    `json:"max_time_minutes,omitempty"`
}

// CourseItem is one stop of a generated itinerary. Time is a human-readable
// duration such as "1시간" or "30분".
type CourseItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Type        string `json:"type"`
	Time        string `json:"time"`
}

// TravelCourse is the final recommendation payload. Summary is always
// non-empty; a default is synthesized when the model omits it.
type TravelCourse struct {
	Course  []CourseItem `json:"course"`
	Summary string       `json:"summary"`
}

// DocumentMetadata is stored alongside each indexed venue document.
type DocumentMetadata struct {
	ContentID     string `json:"contentid"`
	Title         string `json:"title"`
	ContentTypeID string `json:"contenttypeid"`
	Addr          string `json:"addr"`
}

// RetrievedDocument is one similarity-search hit. Distance is the cosine
// distance reported by the index backend, smaller is closer.
type RetrievedDocument struct {
	Document string           `json:"document"`
	Metadata DocumentMetadata `json:"metadata"`
	Distance float64          `json:"distance"`
}

// SearchRequest is the body of POST /travel/search.
type SearchRequest struct {
	Region    *string `json:"region,omitempty"`
	Keyword   *string `json:"keyword,omitempty"`
	NumOfRows int     `json:"num_of_rows"`
}

// SearchResponse is the body returned by POST /travel/search.
type SearchResponse struct {
	TotalCount int           `json:"total_count"`
	Items      []TourismItem `json:"items"`
}

// RecommendRequest is the body of POST /travel/recommend.
type RecommendRequest struct {
	Query string `json:"query"`
}
