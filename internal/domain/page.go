package domain

// Page is one page of an in-memory sorted result set.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Paginate slices all into page (1-based). Pages past the end are empty.
func Paginate[T any](all []T, page, limit int) Page[T] {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	p := Page[T]{
		Items:      []T{},
		Total:      len(all),
		Page:       page,
		Limit:      limit,
		TotalPages: max((len(all)+limit-1)/limit, 1),
	}
	if page-1 >= (len(all)+limit-1)/limit {
		return p
	}
	start := (page - 1) * limit
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	p.Items = all[start:end]
	return p
}
