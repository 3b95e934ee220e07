package services

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID    uint
	Admin bool
}

// Page is a pagination window.
type Page struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
}

func newPage(page, perPage int, total int64) Page {
	pages := 0
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return Page{Page: page, PerPage: perPage, Total: total, Pages: pages}
}

func uintPtr(v uint) *uint { return &v }
