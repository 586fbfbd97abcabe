// Package search implements the binary-search primitives the descent,
// insert and remove engines use to locate a key's position within a
// single page.
package search

// Cmp compares a and b the way bytes.Compare does: negative if a<b, zero
// if equal, positive if a>b. It has the same underlying func type as
// bptree.Comparator, so callers convert with search.Cmp(cmp) and this
// package never imports bptree.
type Cmp func(a, b []byte) int

// LeafLowerBound returns the smallest index i in [0,n) such that
// get(i) >= key, or n if no such index exists. Used by Insert to find
// the insertion point, and directly by BeginAt to position the
// iterator at the first key not less than the requested one.
func LeafLowerBound(n int, get func(int) []byte, key []byte, cmp Cmp) int {
	lo, hi := 0, n
	for lo < hi {
		mid := lo + (hi-lo)/2
		if cmp(get(mid), key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// InternalRoute returns the index of the child to descend into for key,
// given an internal page with keyCount keys (keyCount+1 children) and
// keyAt(i) valid for i in [1,keyCount] (slot 0's key is never read,
// following the internal-routing convention: child 0 covers everything
// less than keyAt(1)). It returns the largest i in [0,keyCount] such
// that i==0 or keyAt(i) <= key.
func InternalRoute(keyCount int, keyAt func(int) []byte, key []byte, cmp Cmp) int {
	lo, hi := 1, keyCount
	for lo <= hi {
		mid := lo + (hi-lo)/2
		if cmp(keyAt(mid), key) <= 0 {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return lo - 1
}
