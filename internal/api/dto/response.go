// Package dto defines the request and response shapes of the REST API. Every
// response travels in the `{success, data?, error?, count?, pagination?}`
// envelope the clients already consume.
package dto

// Page points at a neighboring result page.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination carries next/prev blocks for list responses. Blocks are omitted
// at the edges of the result set.
type Pagination struct {
	Next *Page `json:"next,omitempty"`
	Prev *Page `json:"prev,omitempty"`
}

// BuildPagination computes the next/prev blocks for a page of `total` items.
func BuildPagination(page, limit, total int) *Pagination {
	p := &Pagination{}
	if page*limit < total {
		p.Next = &Page{Page: page + 1, Limit: limit}
	}
	if page > 1 {
		p.Prev = &Page{Page: page - 1, Limit: limit}
	}
	if p.Next == nil && p.Prev == nil {
		return nil
	}
	return p
}
