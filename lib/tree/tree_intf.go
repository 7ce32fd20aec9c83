package tree

import (
	"io"
	"iter"
	"strconv"

	"github.com/benz9527/xbst/lib/infra"
)

type Direction int8

const (
	Left Direction = -1 + iota
	Root
	Right
)

func (dir Direction) String() string {
	switch dir {
	case Left:
		return "Left"
	case Root:
		return "Root"
	case Right:
		return "Right"
	default:
	}
	return "Direction(" + strconv.Itoa(int(dir)) + ")"
}

// DuplicatePolicy decides what Insert does with a value comparing
// equal to one already in the tree.
type DuplicatePolicy uint8

const (
	// DuplicateReject leaves the tree unchanged and Insert returns false.
	DuplicateReject DuplicatePolicy = iota
	// DuplicateAllowRight descends right on equality, so the in-order
	// output is non-descending and equal values keep insertion order.
	DuplicateAllowRight
)

func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicateReject:
		return "reject"
	case DuplicateAllowRight:
		return "right"
	default:
	}
	return "unknown"
}

// Cloner is the duplication contract of a value owning mutable state.
// Clone of a tree uses it when no value cloner option is given.
type Cloner[T any] interface {
	Clone() T
}

// BSTNode is a read-only view of a tree node. It must not outlive the
// tree it was taken from.
type BSTNode[T any] interface {
	Val() T
	Left() BSTNode[T]
	Right() BSTNode[T]
	Parent() BSTNode[T]
	Direction() Direction
}

// BST is an unbalanced binary search tree ordered by a comparator.
// It is not safe for concurrent use.
type BST[T any] interface {
	Len() int64
	IsEmpty() bool
	Root() BSTNode[T]
	Comparator() infra.Comparator[T]
	DuplicatePolicy() DuplicatePolicy

	// Insert returns false only if the value is rejected by the duplicate policy.
	Insert(val T) bool
	// InsertAll inserts the values in order and returns how many were accepted.
	InsertAll(vals ...T) int
	// Remove returns false if no value compares equal to val.
	Remove(val T) bool
	RemoveMin() (T, bool)
	Contains(val T) bool
	// Find returns the stored value comparing equal to val.
	Find(val T) (T, bool)
	Min() (T, bool)
	Max() (T, bool)
	Height() int

	// All returns the values in ascending comparator order. The sequence
	// reads the tree when it is ranged over; mutating the tree during the
	// range is undefined.
	All() iter.Seq[T]
	Foreach(action func(idx int64, val T) bool)
	ToSlice() []T
	CopyTo(dst []T, at int) error

	// Clone returns a tree with an independently owned node graph.
	Clone() BST[T]
	// ShallowCopy returns a tree sharing the node graph of the receiver.
	// Mutations through either tree are visible through the other, and the
	// node count of the tree not mutated goes stale.
	ShallowCopy() BST[T]
	Clear()
	// Print renders the tree shape, one node per line.
	Print(w io.Writer) error
}
