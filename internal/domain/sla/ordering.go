package sla

import (
	"cmp"
	"slices"
)

// Comparator returns a negative, zero or positive value like cmp.Compare.
type Comparator[T any] func(a, b T) int

// ComparePriority orders Urgent < High < Medium < Low.
func ComparePriority(a, b Priority) int {
	return cmp.Compare(a.Rank(), b.Rank())
}

// CompareSLAStatus orders Overdue < Critical < AtRisk < WithinSLA < Completed < CompletedOverdue.
func CompareSLAStatus(a, b SLAStatus) int {
	return cmp.Compare(a.Rank(), b.Rank())
}

// By lifts a key comparison onto T.
func By[T any, K any](key func(T) K, compare func(a, b K) int) Comparator[T] {
	return func(a, b T) int {
		return compare(key(a), key(b))
	}
}

// Chain evaluates comparators in order and returns the first non-zero result.
// The last comparator should be a unique key so the order is total.
func Chain[T any](cmps ...Comparator[T]) Comparator[T] {
	return func(a, b T) int {
		for _, c := range cmps {
			if r := c(a, b); r != 0 {
				return r
			}
		}
		return 0
	}
}

// Reverse inverts c.
func Reverse[T any](c Comparator[T]) Comparator[T] {
	return func(a, b T) int {
		return c(b, a)
	}
}

// Sort sorts items in place, stable under c.
func Sort[T any](items []T, c Comparator[T]) {
	slices.SortStableFunc(items, func(a, b T) int { return c(a, b) })
}

//Personal.AI order the ending
