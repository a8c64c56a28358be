package pagination

import "strconv"

// Meta is the pagination block of every paginated response.
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// New computes the metadata for a 1-indexed page over total items.
// An empty collection yields zero pages and no neighbours in either direction.
func New(total, page, limit int) Meta {
	if limit < 1 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1 && totalPages > 0,
	}
}

// Bounds returns the half-open slice range of the page, clamped to Total.
func (m Meta) Bounds() (start, end int) {
	start = (m.Page - 1) * m.Limit
	if start > m.Total {
		start = m.Total
	}
	end = start + m.Limit
	if end > m.Total {
		end = m.Total
	}
	return start, end
}

// Parse reads page and limit query values. A missing or invalid page is 1;
// a limit outside 1..maxLimit falls back to def.
func Parse(pageStr, limitStr string, def, maxLimit int) (page, limit int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > maxLimit {
		limit = def
	}
	return page, limit
}
