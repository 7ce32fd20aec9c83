package infra

type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is a constraint that permits any unsigned integer type.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type Integer interface {
	Signed | Unsigned
}

type Float interface {
	~float32 | ~float64
}

// OrderedKey
// byte => ~uint8
type OrderedKey interface {
	Integer | Float | ~string
}

// Comparator
// Assume i is the new value.
//  1. i == j (return 0), hit.
//  2. i > j (return positive), turn to right part.
//  3. i < j (return negative), turn to left part.
type Comparator[T any] func(i, j T) int64

// NaturalOrder compares by the builtin operators of the key type.
// NaN is ordered before every other float, so a float tree stays total.
func NaturalOrder[K OrderedKey](i, j K) int64 {
	iNaN, jNaN := i != i, j != j
	switch {
	case iNaN && jNaN:
		return 0
	case iNaN:
		return -1
	case jNaN:
		return 1
	case i < j:
		return -1
	case i > j:
		return 1
	}
	return 0
}

// Reverse flips the comparator result, used to build descending trees.
func Reverse[T any](cmp Comparator[T]) Comparator[T] {
	return func(i, j T) int64 {
		return cmp(j, i)
	}
}
