package shared

// Filter carries the pagination, ordering and search options a list
// query accepts. Repositories interpret OrderBy against their own
// column set and fall back to creation order for unknown values.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter returns the filter applied when a request specifies nothing
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}
}
