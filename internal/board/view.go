package board

import (
	"strings"

	"github.com/hungpv1995/postboard/internal/models"
)

// PageSize is the number of posts shown per page.
const PageSize = 10

// Filter keeps posts whose title contains query, ignoring case. Order is
// preserved and an empty query keeps everything.
func Filter(posts []models.Post, query string) []models.Post {
	q := strings.ToLower(query)
	filtered := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), q) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// TotalPages is ceil(n / pageSize).
func TotalPages(n, pageSize int) int {
	if n <= 0 || pageSize <= 0 {
		return 0
	}
	return (n + pageSize - 1) / pageSize
}

// Paginate returns the 1-based page of posts, or an empty slice when page is
// out of range.
func Paginate(posts []models.Post, page, pageSize int) []models.Post {
	if page < 1 || page > TotalPages(len(posts), pageSize) {
		return []models.Post{}
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(posts) {
		end = len(posts)
	}
	out := make([]models.Post, end-start)
	copy(out, posts[start:end])
	return out
}

// PageNumbers lists 1..totalPages.
func PageNumbers(totalPages int) []int {
	pages := make([]int, 0, totalPages)
	for i := 1; i <= totalPages; i++ {
		pages = append(pages, i)
	}
	return pages
}
