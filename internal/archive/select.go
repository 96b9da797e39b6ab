package archive

// Latest returns the newest archive called name. Archives are ordered by
// creation time; when either side lacks a timestamp, or both are equal, the
// larger id wins. Listing order is never trusted.
func Latest(archives []Archive, name string) (Archive, bool) {
	var (
		best  Archive
		found bool
	)
	for _, a := range archives {
		if a.Name != name {
			continue
		}
		if !found || older(best, a) {
			best = a
			found = true
		}
	}
	return best, found
}

func older(a, b Archive) bool {
	if a.CreatedAt != nil && b.CreatedAt != nil && !a.CreatedAt.Equal(*b.CreatedAt) {
		return a.CreatedAt.Before(*b.CreatedAt)
	}
	return a.ID < b.ID
}
