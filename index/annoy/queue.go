package annoy

import (
	"container/heap"

	"github.com/refbio/refmap/index"
)

// Compile time checks to ensure the queues satisfy the heap interface.
var _ heap.Interface = (*nodeQueue)(nil)
var _ heap.Interface = (*resultQueue)(nil)

// nodeQueueItem pairs a tree node with its traversal priority. The margin is
// the smallest hyperplane margin seen on the path from the root, so subtrees
// on the near side of every split are explored first.
type nodeQueueItem struct {
	node   *treeNode
	margin float32
}

// nodeQueue is a max-heap over traversal margins.
type nodeQueue struct {
	items []nodeQueueItem
}

func (pq *nodeQueue) Len() int { return len(pq.items) }

func (pq *nodeQueue) Less(i, j int) bool { return pq.items[i].margin > pq.items[j].margin }

func (pq *nodeQueue) Swap(i, j int) { pq.items[i], pq.items[j] = pq.items[j], pq.items[i] }

func (pq *nodeQueue) Push(x any) {
	item, _ := x.(nodeQueueItem)
	pq.items = append(pq.items, item)
}

func (pq *nodeQueue) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	pq.items = old[:n-1]
	return item
}

// resultQueue is a max-heap over result distances, used to keep the k best
// candidates with the current worst on top.
type resultQueue struct {
	items []index.SearchResult
}

func (pq *resultQueue) Len() int { return len(pq.items) }

func (pq *resultQueue) Less(i, j int) bool { return pq.items[i].Distance > pq.items[j].Distance }

func (pq *resultQueue) Swap(i, j int) { pq.items[i], pq.items[j] = pq.items[j], pq.items[i] }

func (pq *resultQueue) Push(x any) {
	item, _ := x.(index.SearchResult)
	pq.items = append(pq.items, item)
}

func (pq *resultQueue) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	pq.items = old[:n-1]
	return item
}
