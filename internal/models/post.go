package models

// Post represents a blog post
type Post struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId,omitempty"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// EditSession marks the board as editing an existing post instead of creating one.
// Active implies Target is set.
type EditSession struct {
	Active bool  `json:"isEditing"`
	Target *Post `json:"currentPost"`
}

// Page is one page of the filtered collection
type Page struct {
	Query      string `json:"query"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	Total      int    `json:"total"`
	TotalPages int    `json:"totalPages"`
	Pages      []int  `json:"pages"`
	Posts      []Post `json:"posts"`
}

// SearchResponse represents search results
type SearchResponse struct {
	Posts []SearchHit `json:"posts"`
	Total int         `json:"total"`
}

// SearchHit is a post returned by full-text search with its relevance score
type SearchHit struct {
	Post
	Score float64 `json:"score"`
}

// StatusResponse reports the board lifecycle state
type StatusResponse struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
	Posts int    `json:"posts"`
}
