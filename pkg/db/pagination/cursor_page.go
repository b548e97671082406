package pagination

// BuildCursorPageInfo derives page info from an over-fetched result set
// (limit+1 rows). encode produces the cursor token for the last row of
// the returned page.
func BuildCursorPageInfo[T any](items []*T, pageSize int32, encode func(*T) string) *PageInfo {
	info := &PageInfo{}
	if pageSize <= 0 || len(items) <= int(pageSize) {
		return info
	}

	last := items[pageSize-1]
	if last != nil {
		info.NextPageToken = encode(last)
	}
	info.HasMore = true
	return info
}
