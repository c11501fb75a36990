// Package canon groups differently phrased parameter names into equivalence
// classes without a fixed vocabulary, and normalizes claim values.
package canon

import "unicode/utf8"

// DefaultThreshold is the similarity a key needs to join an existing cluster
const DefaultThreshold = 0.62

// Groups performs single-linkage clustering with first-fit assignment.
//
// Keys are processed in order. A key joins the first cluster holding any
// member whose similarity to it is >= threshold; otherwise it starts a new
// cluster. Assignment is order dependent: the same key set in a different
// order can group differently. Repeated keys are placed again like any
// other key.
func Groups(keys []string, threshold float64) [][]string {
	var clusters [][]string
	for _, key := range keys {
		placed := false
		for i, members := range clusters {
			if matchesAny(key, members, threshold) {
				clusters[i] = append(clusters[i], key)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, []string{key})
		}
	}
	return clusters
}

// Cluster maps every raw key to the representative of its cluster.
// When a repeated key ended up in several clusters, the later cluster wins.
func Cluster(keys []string, threshold float64) map[string]string {
	out := make(map[string]string, len(keys))
	for _, members := range Groups(keys, threshold) {
		rep := Representative(members)
		for _, k := range members {
			out[k] = rep
		}
	}
	return out
}

// Representative returns the member with the fewest characters; the first
// one seen wins ties.
func Representative(members []string) string {
	if len(members) == 0 {
		return ""
	}
	rep := members[0]
	best := utf8.RuneCountInString(rep)
	for _, m := range members[1:] {
		if n := utf8.RuneCountInString(m); n < best {
			rep, best = m, n
		}
	}
	return rep
}

func matchesAny(key string, members []string, threshold float64) bool {
	for _, m := range members {
		if Similarity(key, m) >= threshold {
			return true
		}
	}
	return false
}
