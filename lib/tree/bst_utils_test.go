package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/benz9527/xbst/lib/infra"
)

func TestBSTValidate_Violations(t *testing.T) {
	tree := newBST[int](infra.NaturalOrder[int])
	tree.InsertAll(5, 3, 8, 1, 4)
	require.NoError(t, Validate[int](tree))

	tree.hdr.root.left.val = 6
	err := BSTViolationValidate[int](tree)
	require.ErrorIs(t, err, errBSTOrderViolation)
	tree.hdr.root.left.val = 3

	tree.hdr.root.right.parent = tree.hdr.root.left
	require.ErrorIs(t, ParentLinkValidate[int](tree), errBSTParentViolation)
	tree.hdr.root.right.parent = tree.hdr.root

	tree.hdr.root.parent = tree.hdr.root.left
	require.ErrorIs(t, ParentLinkValidate[int](tree), errBSTParentViolation)
	tree.hdr.root.parent = nil

	tree.count++
	require.ErrorIs(t, CountValidate[int](tree), errBSTCountViolation)
	tree.count--

	tree.hdr.root.left.val = 6
	tree.hdr.root.right.parent = tree.hdr.root.left
	tree.count++
	errs := multierr.Errors(Validate[int](tree))
	require.Len(t, errs, 3)
}

func TestBSTValidate_DuplicatePolicy(t *testing.T) {
	tree := newBST[int](infra.NaturalOrder[int], WithBSTDuplicatePolicy[int](DuplicateAllowRight))
	tree.InsertAll(2, 2, 1)
	require.NoError(t, BSTViolationValidate[int](tree))

	// The same shape is corrupt once duplicates are rejected.
	tree.policy = DuplicateReject
	require.ErrorIs(t, BSTViolationValidate[int](tree), errBSTOrderViolation)
}

func TestBSTValidate_Empty(t *testing.T) {
	require.NoError(t, Validate(NewBST[float64]()))
}
