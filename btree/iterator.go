package btree

import (
	"diskdb/concurrency"
)

// TreeIterator walks a B+Tree's leaf level left to right starting from either the smallest key
// (NewTreeIterator) or a given key (NewTreeIteratorWithKey), returning one key/value pair per call
// to Next until the rightmost leaf is exhausted.
type TreeIterator struct {
	txn     concurrency.Transaction
	tree    *BTree
	curr    Pointer
	currIdx int
	pager   Pager
}

func (it *TreeIterator) Next() (key Key, value interface{}) {
	currNode := it.pager.GetNode(it.curr, Read)
	h := currNode.GetHeader()

	// if there is no element left in node proceed to next node
	if h.KeyLen == int16(it.currIdx) {
		it.pager.Unpin(currNode, false)
		if h.Right == 0 {
			return nil, nil
		}
		it.curr = h.Right
		currNode = it.pager.GetNode(it.curr, Read)
		it.currIdx = 0
	}

	key = currNode.GetKeyAt(it.currIdx)
	value = currNode.GetValueAt(it.currIdx)
	it.pager.Unpin(currNode, false)
	it.currIdx++
	return key, value
}

func NewTreeIterator(txn concurrency.Transaction, tree *BTree, pager Pager) *TreeIterator {
	// descend through the first pointer of each internal node down to the leftmost leaf
	curr := tree.Root
	for {
		n := pager.GetNode(curr, Read)
		if n.IsLeaf() {
			n.RUnLatch()
			pager.Unpin(n, false)
			break
		}
		curr = n.GetValueAt(0).(Pointer)
		n.RUnLatch()
		pager.Unpin(n, false)
	}

	return &TreeIterator{
		txn:     txn,
		tree:    tree,
		curr:    curr,
		currIdx: 0,
		pager:   pager,
	}
}

func NewTreeIteratorWithKey(txn concurrency.Transaction, key Key, tree *BTree, pager Pager) *TreeIterator {
	_, stack := tree.FindAndGetStack(key, Read)
	leaf, idx := stack[len(stack)-1].Node, stack[len(stack)-1].Index

	return &TreeIterator{
		txn:     txn,
		tree:    tree,
		curr:    leaf.GetPageId(),
		currIdx: idx,
		pager:   pager,
	}
}
