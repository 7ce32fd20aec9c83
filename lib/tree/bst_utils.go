package tree

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// bst rule validation utilities.

var (
	errBSTOrderViolation  = errors.New("bst order violation")
	errBSTParentViolation = errors.New("bst parent link violation")
	errBSTCountViolation  = errors.New("bst count violation")
)

// Preorder traversal over the read-only node view.
func preorder[T any](root BSTNode[T], fn func(node BSTNode[T]) bool) {
	if root == nil {
		return
	}
	stack := []BSTNode[T]{root}
	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		stack = stack[:size-1]
		if !fn(aux) {
			return
		}
		if r := aux.Right(); r != nil {
			stack = append(stack, r)
		}
		if l := aux.Left(); l != nil {
			stack = append(stack, l)
		}
	}
}

// BSTViolationValidate checks the inorder sequence is strictly ascending
// for DuplicateReject and non-descending for DuplicateAllowRight.
func BSTViolationValidate[T any](tree BST[T]) error {
	cmp, policy := tree.Comparator(), tree.DuplicatePolicy()
	var (
		prev    T
		hasPrev bool
		err     error
	)
	tree.Foreach(func(idx int64, val T) bool {
		if hasPrev {
			res := cmp(prev, val)
			if res > 0 || (res == 0 && policy == DuplicateReject) {
				err = fmt.Errorf("%w: value %v at index %d after %v", errBSTOrderViolation, val, idx, prev)
				return false
			}
		}
		prev, hasPrev = val, true
		return true
	})
	return err
}

// ParentLinkValidate checks every child points back to its parent
// and the root has no parent.
func ParentLinkValidate[T any](tree BST[T]) error {
	root := tree.Root()
	if root == nil {
		return nil
	}
	if root.Parent() != nil || root.Direction() != Root {
		return fmt.Errorf("%w: root %v has a parent", errBSTParentViolation, root.Val())
	}

	var err error
	preorder(root, func(node BSTNode[T]) bool {
		if l := node.Left(); l != nil && (l.Parent() != node || l.Direction() != Left) {
			err = fmt.Errorf("%w: left child %v of %v", errBSTParentViolation, l.Val(), node.Val())
			return false
		}
		if r := node.Right(); r != nil && (r.Parent() != node || r.Direction() != Right) {
			err = fmt.Errorf("%w: right child %v of %v", errBSTParentViolation, r.Val(), node.Val())
			return false
		}
		return true
	})
	return err
}

func CountValidate[T any](tree BST[T]) error {
	reachable := int64(0)
	preorder(tree.Root(), func(BSTNode[T]) bool {
		reachable++
		return true
	})
	if reachable != tree.Len() {
		return fmt.Errorf("%w: %d nodes reachable, len %d", errBSTCountViolation, reachable, tree.Len())
	}
	return nil
}

func Validate[T any](tree BST[T]) error {
	return multierr.Combine(
		BSTViolationValidate(tree),
		ParentLinkValidate(tree),
		CountValidate(tree),
	)
}
