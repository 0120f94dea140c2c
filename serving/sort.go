package serving

import (
	"sort"
	"strconv"
	"strings"
)

// SortEntries orders a listing with directories first, each group in natural
// (numeric-aware) order.
func SortEntries(entries []DirectoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return naturalSortLess(entries[i].Name, entries[j].Name)
	})
}

// naturalSortLess compares two names with natural (numeric-aware) sorting
func naturalSortLess(a, b string) bool {
	baseA := strings.Split(a, ".")[0]
	baseB := strings.Split(b, ".")[0]

	numA, errA := strconv.Atoi(baseA)
	numB, errB := strconv.Atoi(baseB)

	if errA == nil && errB == nil {
		if numA != numB {
			return numA < numB
		}
		return a < b
	}
	return strings.ToLower(a) < strings.ToLower(b)
}
