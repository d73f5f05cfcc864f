package service

// Page-number pagination bounds shared by every list endpoint.
const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// normalizePage clamps page/page_size to bounds and converts them to a
// LIMIT/OFFSET pair. Page numbers start at 1.
func normalizePage(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return pageSize, (page - 1) * pageSize
}
