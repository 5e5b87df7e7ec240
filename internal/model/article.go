package model

// FetchStatus classifies what happened to a single URL in a batch
type FetchStatus string

const (
	FetchOK         FetchStatus = "ok"          // Fetched and at least one claim extracted
	FetchEmpty      FetchStatus = "empty"       // Fetched but no text or no qualifying claims
	FetchError      FetchStatus = "fetch_error" // Network error or non-2xx status
	FetchParseError FetchStatus = "parse_error" // Body could not be parsed
	FetchBlocked    FetchStatus = "blocked"     // Disallowed by robots.txt
)

// FetchMeta contains HTTP metadata from fetching the source
type FetchMeta struct {
	StatusCode   int    `json:"status_code"`
	ContentType  string `json:"content_type,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	FromCache    bool   `json:"from_cache,omitempty"`
}

// Article is the extracted view of one fetched URL.
// A failed fetch still produces an Article with empty Text and no Claims.
type Article struct {
	URL        string      `json:"url"`
	FinalURL   string      `json:"final_url,omitempty"`
	Title      string      `json:"title"`
	Text       string      `json:"-"`
	Claims     []Claim     `json:"claims"`
	Status     FetchStatus `json:"status"`
	Meta       FetchMeta   `json:"meta"`
	Err        error       `json:"-"`
	ErrMessage string      `json:"error,omitempty"`
}

// HasContent reports whether the article is usable for scoring
func (a *Article) HasContent() bool {
	return a.Text != "" && len(a.Claims) > 0
}
