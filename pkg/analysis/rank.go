package analysis

import "sort"

// GroupCount is the number of rows sharing a grouping key.
type GroupCount struct {
	Key   string
	Count int64
}

// RankedGroup is a group with its dense rank, starting at 1.
type RankedGroup struct {
	GroupCount
	Rank int
}

// DenseRank orders groups by count descending, then key ascending, and
// assigns dense ranks: equal counts share a rank and the next distinct count
// ranks one higher. The input slice is not modified.
func DenseRank(groups []GroupCount) []RankedGroup {
	sorted := make([]GroupCount, len(groups))
	copy(sorted, groups)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Key < sorted[j].Key
	})

	ranked := make([]RankedGroup, len(sorted))
	rank := 0
	for i, g := range sorted {
		if i == 0 || g.Count != sorted[i-1].Count {
			rank++
		}
		ranked[i] = RankedGroup{GroupCount: g, Rank: rank}
	}
	return ranked
}

// counter accumulates group counts and remembers first-seen order.
type counter struct {
	index  map[string]int
	groups []GroupCount
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

func (c *counter) add(key string) {
	if i, ok := c.index[key]; ok {
		c.groups[i].Count++
		return
	}
	c.index[key] = len(c.groups)
	c.groups = append(c.groups, GroupCount{Key: key, Count: 1})
}
