package utils

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page 分页参数，Page 从 1 开始
type Page struct {
	Page    int
	PerPage int
}

// PaginationMeta 列表接口统一的 meta
type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalCount  int64 `json:"total_count"`
}

// NewPage 规范化分页参数: page 最小为 1，per_page 默认 20，最大 100
func NewPage(page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Page{Page: page, PerPage: perPage}
}

func (p Page) Offset() int { return (p.Page - 1) * p.PerPage }

func (p Page) Limit() int { return p.PerPage }

// Meta 根据总数生成分页信息
func (p Page) Meta(total int64) PaginationMeta {
	pages := 0
	if total > 0 {
		pages = int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	}
	return PaginationMeta{
		CurrentPage: p.Page,
		TotalPages:  pages,
		TotalCount:  total,
	}
}
