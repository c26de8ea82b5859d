//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2026 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package array

import "fmt"

const insertionSortThreshold = 24

// strided addresses records of n consecutive words, keyed by their first word.
type strided struct {
	a LongArray
	n uint64
}

func (s strided) key(i int) uint64 {
	return s.a.Get(uint64(i) * s.n)
}

func (s strided) swap(i, j int) {
	if i == j {
		return
	}
	bi, bj := uint64(i)*s.n, uint64(j)*s.n
	for k := uint64(0); k < s.n; k++ {
		s.a.Swap(bi+k, bj+k)
	}
}

// QuickSortN sorts the records of n words in a ascending by their first word,
// in place. The size of a must be a multiple of n.
func QuickSortN(a LongArray, n uint64) {
	if n == 0 || a.Size()%n != 0 {
		panic(fmt.Sprintf("array of %d words does not hold records of %d words", a.Size(), n))
	}
	s := strided{a: a, n: n}
	count := int(a.Size() / n)
	if count < 2 || IsSortedN(a, n) {
		return
	}
	s.dualPivotSort(0, count-1)
}

// IsSortedN reports whether the records of n words are in non-decreasing
// order of their first word.
func IsSortedN(a LongArray, n uint64) bool {
	for i := n; i < a.Size(); i += n {
		if a.Get(i-n) > a.Get(i) {
			return false
		}
	}
	return true
}

func (s strided) insertionSort(lo, hi int) {
	for i := lo + 1; i <= hi; i++ {
		for j := i; j > lo && s.key(j-1) > s.key(j); j-- {
			s.swap(j-1, j)
		}
	}
}

// dualPivotSort sorts the inclusive record range [lo, hi]. The pivots are
// taken at the tertiles so presorted input does not degrade.
func (s strided) dualPivotSort(lo, hi int) {
	if hi-lo < insertionSortThreshold {
		s.insertionSort(lo, hi)
		return
	}

	third := (hi - lo) / 3
	s.swap(lo, lo+third)
	s.swap(hi, hi-third)
	if s.key(lo) > s.key(hi) {
		s.swap(lo, hi)
	}
	p, q := s.key(lo), s.key(hi)

	l, g := lo+1, hi-1
	for k := l; k <= g; k++ {
		kk := s.key(k)
		if kk < p {
			s.swap(k, l)
			l++
		} else if kk > q {
			for s.key(g) > q && k < g {
				g--
			}
			s.swap(k, g)
			g--
			if s.key(k) < p {
				s.swap(k, l)
				l++
			}
		}
	}
	l--
	g++
	s.swap(lo, l)
	s.swap(hi, g)

	s.dualPivotSort(lo, l-1)
	if p < q {
		// with p == q every record between the pivots equals them
		s.dualPivotSort(l+1, g-1)
	}
	s.dualPivotSort(g+1, hi)
}

// BinarySearchN returns the index of the record of n words whose first word
// equals key, or -1. The records must be sorted.
func BinarySearchN(a LongArray, n uint64, key uint64) int64 {
	lo, hi := int64(0), int64(a.Size()/n)-1
	for lo <= hi {
		mid := int64(uint64(lo+hi) >> 1)
		v := a.Get(uint64(mid) * n)
		switch {
		case v < key:
			lo = mid + 1
		case v > key:
			hi = mid - 1
		default:
			return mid
		}
	}
	return -1
}
