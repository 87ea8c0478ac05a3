package extraction

// MergeDetails combines detail values from the AI selector map with the
// heuristic ones. AI values win; a heuristic value only fills a key that is
// missing or nil on the AI side. Absent values are dropped.
func MergeDetails(ai, fallback map[string]*string) map[string]string {
	out := make(map[string]string, len(ai)+len(fallback))
	for k, v := range fallback {
		if v != nil && *v != "" {
			out[k] = *v
		}
	}
	for k, v := range ai {
		if v != nil && *v != "" {
			out[k] = *v
		}
	}
	return out
}
