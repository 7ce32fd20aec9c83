package tree

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/benz9527/xbst/lib/infra"
)

var ErrBSTInvalidArgument = errors.New("[bst] invalid argument")

type bstNode[T any] struct {
	parent *bstNode[T] // Non-owning back-link.
	left   *bstNode[T]
	right  *bstNode[T]
	val    T
}

func (node *bstNode[T]) Val() T {
	return node.val
}

func (node *bstNode[T]) Left() BSTNode[T] {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *bstNode[T]) Right() BSTNode[T] {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

func (node *bstNode[T]) Parent() BSTNode[T] {
	if node == nil || node.parent == nil {
		return nil
	}
	return node.parent
}

func (node *bstNode[T]) Direction() Direction {
	if node.parent == nil {
		return Root
	}
	if node == node.parent.left {
		return Left
	}
	return Right
}

func (node *bstNode[T]) minimum() *bstNode[T] {
	aux := node
	for ; aux != nil && aux.left != nil; aux = aux.left {
	}
	return aux
}

func (node *bstNode[T]) maximum() *bstNode[T] {
	aux := node
	for ; aux != nil && aux.right != nil; aux = aux.right {
	}
	return aux
}

func (node *bstNode[T]) unlink() {
	node.parent, node.left, node.right = nil, nil, nil
}

// bstHeader is the root slot, shared by shallow copies.
type bstHeader[T any] struct {
	root *bstNode[T]
}

type bstTree[T any] struct {
	hdr    *bstHeader[T]
	count  int64
	cmp    infra.Comparator[T]
	cloner func(T) T
	policy DuplicatePolicy
	isDesc bool
}

func (tree *bstTree[T]) Len() int64 {
	return tree.count
}

func (tree *bstTree[T]) IsEmpty() bool {
	return tree.count == 0
}

func (tree *bstTree[T]) Root() BSTNode[T] {
	if tree.hdr.root == nil {
		return nil
	}
	return tree.hdr.root
}

func (tree *bstTree[T]) Comparator() infra.Comparator[T] {
	return tree.cmp
}

func (tree *bstTree[T]) DuplicatePolicy() DuplicatePolicy {
	return tree.policy
}

// i1: Empty tree, the new node becomes the root.
// i2: Walk down to the first empty slot, equal values follow the policy.
func (tree *bstTree[T]) Insert(val T) bool {
	if /* i1 */ tree.hdr.root == nil {
		tree.hdr.root = &bstNode[T]{val: val}
		tree.count++
		return true
	}

	var (
		x, y *bstNode[T] = tree.hdr.root, nil
		res  int64
	)
	for x != nil {
		y = x
		if res = tree.cmp(val, x.val); /* equal */ res == 0 {
			if tree.policy == DuplicateReject {
				return false
			}
			res = 1
		}
		if /* less */ res < 0 {
			x = x.left
		} else /* greater */ {
			x = x.right
		}
	}

	z := &bstNode[T]{
		val:    val,
		parent: y,
	}
	if res < 0 {
		y.left = z
	} else {
		y.right = z
	}
	tree.count++
	return true
}

func (tree *bstTree[T]) InsertAll(vals ...T) int {
	accepted := 0
	for _, val := range vals {
		if tree.Insert(val) {
			accepted++
		}
	}
	return accepted
}

func (tree *bstTree[T]) search(val T) *bstNode[T] {
	for aux := tree.hdr.root; aux != nil; {
		res := tree.cmp(val, aux.val)
		if res == 0 {
			return aux
		} else if res > 0 {
			aux = aux.right
		} else {
			aux = aux.left
		}
	}
	return nil
}

// transplant puts v into the slot u occupies under u's parent.
func (tree *bstTree[T]) transplant(u, v *bstNode[T]) {
	switch dir := u.Direction(); dir {
	case Root:
		tree.hdr.root = v
	case Left:
		u.parent.left = v
	case Right:
		u.parent.right = v
	default:
		// impossible run to here
		panic( /* debug assertion */ "[bst] unknown node direction to transplant")
	}
	if v != nil {
		v.parent = u.parent
	}
}

/*
r1: Current node X is a leaf, detach it from the parent slot.

r2: Current node X has only one child C, splice C into X's slot.

	  |              |
	  X              C
	 /     ====>    / \
	C              .. ..

r3: Current node X has left and right child.
Borrow the value of its succ S (the leftmost node of the right subtree)
and remove S instead. S has no left child, so it enters r1 or r2.

	  |                    |
	  X                    S
	 / \                  / \
	L   R   copy(S, X)   L   R
	   /    =========>      /
	  S                    Sr
	   \
	   Sr
*/
func (tree *bstTree[T]) removeNode(z *bstNode[T]) {
	y := z
	if /* r3 */ z.left != nil && z.right != nil {
		y = z.right.minimum()
		z.val = y.val
	}

	var child *bstNode[T]
	if y.left != nil {
		child = y.left
	} else {
		child = y.right
	}
	/* r1, r2 */ tree.transplant(y, child)
	y.unlink()
	tree.count--
}

func (tree *bstTree[T]) Remove(val T) bool {
	z := tree.search(val)
	if z == nil {
		return false
	}
	tree.removeNode(z)
	return true
}

func (tree *bstTree[T]) RemoveMin() (T, bool) {
	_min := tree.hdr.root.minimum()
	if _min == nil {
		var zero T
		return zero, false
	}
	val := _min.val
	tree.removeNode(_min)
	return val, true
}

func (tree *bstTree[T]) Contains(val T) bool {
	return tree.search(val) != nil
}

func (tree *bstTree[T]) Find(val T) (T, bool) {
	if x := tree.search(val); x != nil {
		return x.val, true
	}
	var zero T
	return zero, false
}

func (tree *bstTree[T]) Min() (T, bool) {
	if x := tree.hdr.root.minimum(); x != nil {
		return x.val, true
	}
	var zero T
	return zero, false
}

func (tree *bstTree[T]) Max() (T, bool) {
	if x := tree.hdr.root.maximum(); x != nil {
		return x.val, true
	}
	var zero T
	return zero, false
}

// Height counts levels by BFS, an unbalanced tree may be as deep as it is long.
func (tree *bstTree[T]) Height() int {
	if tree.hdr.root == nil {
		return 0
	}
	height := 0
	level := []*bstNode[T]{tree.hdr.root}
	for len(level) > 0 {
		height++
		next := make([]*bstNode[T], 0, len(level)<<1)
		for _, aux := range level {
			if aux.left != nil {
				next = append(next, aux.left)
			}
			if aux.right != nil {
				next = append(next, aux.right)
			}
		}
		level = next
	}
	return height
}

// Inorder traversal by an explicit stack, so a degenerated tree
// never grows the goroutine stack.
func (tree *bstTree[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		stack := make([]*bstNode[T], 0, 16)
		defer func() {
			clear(stack)
		}()

		for aux := tree.hdr.root; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
		for size := len(stack); size > 0; size = len(stack) {
			aux := stack[size-1]
			stack = stack[:size-1]
			if !yield(aux.val) {
				return
			}
			for aux = aux.right; aux != nil; aux = aux.left {
				stack = append(stack, aux)
			}
		}
	}
}

func (tree *bstTree[T]) Foreach(action func(idx int64, val T) bool) {
	idx := int64(0)
	for val := range tree.All() {
		if !action(idx, val) {
			return
		}
		idx++
	}
}

func (tree *bstTree[T]) ToSlice() []T {
	res := make([]T, 0, tree.count)
	for val := range tree.All() {
		res = append(res, val)
	}
	return res
}

func (tree *bstTree[T]) CopyTo(dst []T, at int) error {
	if dst == nil {
		return infra.WrapErrorStackWithMessage(ErrBSTInvalidArgument, "copy to nil slice")
	}
	if at < 0 || at > len(dst) {
		return infra.WrapErrorStackWithMessage(ErrBSTInvalidArgument,
			fmt.Sprintf("copy index %d out of range [0, %d]", at, len(dst)))
	}
	if int64(len(dst)-at) < tree.count {
		return infra.WrapErrorStackWithMessage(ErrBSTInvalidArgument,
			fmt.Sprintf("copy needs %d slots but only %d left", tree.count, len(dst)-at))
	}
	for val := range tree.All() {
		dst[at] = val
		at++
	}
	return nil
}

func (tree *bstTree[T]) Clone() BST[T] {
	cloned := &bstTree[T]{
		hdr:    &bstHeader[T]{},
		count:  tree.count,
		cmp:    tree.cmp,
		cloner: tree.cloner,
		policy: tree.policy,
		isDesc: tree.isDesc,
	}
	if tree.hdr.root == nil {
		return cloned
	}

	type pair struct {
		src, dst *bstNode[T]
	}
	cloned.hdr.root = &bstNode[T]{val: tree.cloner(tree.hdr.root.val)}
	stack := []pair{{tree.hdr.root, cloned.hdr.root}}
	for size := len(stack); size > 0; size = len(stack) {
		p := stack[size-1]
		stack = stack[:size-1]
		if l := p.src.left; l != nil {
			p.dst.left = &bstNode[T]{val: tree.cloner(l.val), parent: p.dst}
			stack = append(stack, pair{l, p.dst.left})
		}
		if r := p.src.right; r != nil {
			p.dst.right = &bstNode[T]{val: tree.cloner(r.val), parent: p.dst}
			stack = append(stack, pair{r, p.dst.right})
		}
	}
	return cloned
}

func (tree *bstTree[T]) ShallowCopy() BST[T] {
	shadow := *tree // Same header, count snapshot.
	return &shadow
}

func (tree *bstTree[T]) Clear() {
	aux := tree.hdr.root
	tree.hdr.root = nil
	tree.count = 0
	if aux == nil {
		return
	}

	stack := []*bstNode[T]{aux}
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		if aux.left != nil {
			stack = append(stack, aux.left)
		}
		if aux.right != nil {
			stack = append(stack, aux.right)
		}
		aux.unlink()
	}
}

/*
Print the tree in preorder, 3 spaces indent per depth:

	 [+]- 5
	    [L]- 3
	       [L]- 1
	    [R]- 8
*/
func (tree *bstTree[T]) Print(w io.Writer) error {
	if tree.hdr.root == nil {
		_, err := io.WriteString(w, "tree is empty\n")
		return err
	}

	type frame struct {
		node  *bstNode[T]
		depth int
	}
	stack := []frame{{tree.hdr.root, 0}}
	for size := len(stack); size > 0; size = len(stack) {
		f := stack[size-1]
		stack = stack[:size-1]

		side := "+"
		switch f.node.Direction() {
		case Left:
			side = "L"
		case Right:
			side = "R"
		default:
		}
		if _, err := fmt.Fprintf(w, "%s [%s]- %v\n", strings.Repeat(" ", 3*f.depth), side, f.node.val); err != nil {
			return err
		}
		// Right first, so the left subtree is printed first.
		if f.node.right != nil {
			stack = append(stack, frame{f.node.right, f.depth + 1})
		}
		if f.node.left != nil {
			stack = append(stack, frame{f.node.left, f.depth + 1})
		}
	}
	return nil
}

func cloneByContract[T any](val T) T {
	if c, ok := any(val).(Cloner[T]); ok {
		return c.Clone()
	}
	return val
}

type BSTOpt[T any] func(*bstTree[T])

// WithBSTComparator replaces the ordering function. A nil comparator is ignored.
func WithBSTComparator[T any](cmp infra.Comparator[T]) BSTOpt[T] {
	return func(tree *bstTree[T]) {
		if cmp != nil {
			tree.cmp = cmp
		}
	}
}

func WithBSTDuplicatePolicy[T any](policy DuplicatePolicy) BSTOpt[T] {
	return func(tree *bstTree[T]) {
		tree.policy = policy
	}
}

// WithBSTValueCloner sets how Clone duplicates values. Without it, values
// implementing Cloner are cloned by their own Clone and others are copied.
func WithBSTValueCloner[T any](cloner func(T) T) BSTOpt[T] {
	return func(tree *bstTree[T]) {
		if cloner != nil {
			tree.cloner = cloner
		}
	}
}

func WithBSTDesc[T any]() BSTOpt[T] {
	return func(tree *bstTree[T]) {
		tree.isDesc = true
	}
}

func newBST[T any](cmp infra.Comparator[T], opts ...BSTOpt[T]) *bstTree[T] {
	tree := &bstTree[T]{
		hdr:    &bstHeader[T]{},
		cmp:    cmp,
		cloner: cloneByContract[T],
		policy: DuplicateReject,
	}
	for _, o := range opts {
		o(tree)
	}
	if tree.isDesc {
		tree.cmp = infra.Reverse(tree.cmp)
	}
	return tree
}

// NewBST orders the values by their natural order.
func NewBST[T infra.OrderedKey](opts ...BSTOpt[T]) BST[T] {
	return newBST[T](infra.NaturalOrder[T], opts...)
}

// NewBSTFunc orders the values by cmp.
func NewBSTFunc[T any](cmp infra.Comparator[T], opts ...BSTOpt[T]) (BST[T], error) {
	if cmp == nil {
		return nil, infra.WrapErrorStackWithMessage(ErrBSTInvalidArgument, "nil comparator")
	}
	return newBST[T](cmp, opts...), nil
}

func NewBSTFrom[T infra.OrderedKey](vals []T, opts ...BSTOpt[T]) BST[T] {
	tree := newBST[T](infra.NaturalOrder[T], opts...)
	tree.InsertAll(vals...)
	return tree
}
