package predictor

import "sort"

// sortReadingOrder orders words top-to-bottom, left-to-right. Words whose
// vertical centers lie within half the median word height of each other are
// treated as one line and sorted by their horizontal position.
func sortReadingOrder(words []Word) {
	if len(words) < 2 {
		return
	}

	heights := make([]float64, len(words))
	for i, w := range words {
		heights[i] = w.Box.Height()
	}
	sort.Float64s(heights)
	tolerance := heights[len(heights)/2] / 2

	sort.SliceStable(words, func(i, j int) bool {
		return words[i].Box.Center().Y < words[j].Box.Center().Y
	})

	start := 0
	for start < len(words) {
		end := start + 1
		lineY := words[start].Box.Center().Y
		for end < len(words) && words[end].Box.Center().Y-lineY <= tolerance {
			end++
		}
		line := words[start:end]
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].Box.Center().X < line[j].Box.Center().X
		})
		start = end
	}
}
