package scan

// Pagination is the uniform request shape of every listing operation.
// After is the id of the last item the caller already holds; Limit caps
// the page size.
type Pagination[ID any] struct {
	After *ID
	Limit int
}

// Page is one page of decoded records plus the continuation cursor. A nil
// NextCursor marks the terminal page.
type Page[T any, ID any] struct {
	Items      []T
	NextCursor *ID

	limit int
}

func newPage[T any, ID any](limit int) Page[T, ID] {
	return Page[T, ID]{Items: make([]T, 0, limit), limit: limit}
}

// completeWith offers one more accepted item. When the page already holds
// limit items it records the last accepted item's id as the continuation
// cursor, discards the offered item, and reports the page complete.
func (p *Page[T, ID]) completeWith(item T, ident func(T) ID) bool {
	if len(p.Items) >= p.limit {
		if n := len(p.Items); n > 0 {
			cursor := ident(p.Items[n-1])
			p.NextCursor = &cursor
		}
		return true
	}
	p.Items = append(p.Items, item)
	return false
}
