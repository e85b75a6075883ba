package jobs

// BatchEntry is one catalog entry headed into a TTS request.
type BatchEntry struct {
	ID   int
	Name string
	Text string
}

// BuildBatches packs entries into TTS-sized batches, preserving order. A
// batch closes when it holds maxEntries entries or adding the next entry
// would push the combined text past maxChars. An entry longer than maxChars
// on its own still gets a batch to itself.
func BuildBatches(entries []BatchEntry, maxEntries, maxChars int) [][]BatchEntry {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	var out [][]BatchEntry
	var cur []BatchEntry
	chars := 0

	for _, e := range entries {
		cost := len(e.Text)
		if len(cur) > 0 {
			cost += len(pauseMarker)
		}
		if len(cur) >= maxEntries || (len(cur) > 0 && maxChars > 0 && chars+cost > maxChars) {
			out = append(out, cur)
			cur = nil
			chars = 0
			cost = len(e.Text)
		}
		cur = append(cur, e)
		chars += cost
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
