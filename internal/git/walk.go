package git

import (
	"context"
	"fmt"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// dateWalk walks history from several tips at once in committer date order,
// newest first, carrying flag bits from each commit to its parents the way
// git's revision walker does. A commit whose flags grow after it was popped
// is queued again so the new bits reach its ancestors.
type dateWalk struct {
	ctx    context.Context
	heap   *binaryheap.Heap
	flags  map[plumbing.Hash]uint64
	queued map[plumbing.Hash]bool
	popped map[plumbing.Hash]bool
	// order lists distinct commits in the order they were first popped.
	order  []*object.Commit
	walked int
}

func newDateWalk(ctx context.Context) *dateWalk {
	return &dateWalk{
		ctx: ctx,
		heap: binaryheap.NewWith(func(a, b interface{}) int {
			if a.(*object.Commit).Committer.When.Before(b.(*object.Commit).Committer.When) {
				return 1
			}
			return -1
		}),
		flags:  make(map[plumbing.Hash]uint64),
		queued: make(map[plumbing.Hash]bool),
		popped: make(map[plumbing.Hash]bool),
	}
}

// mark adds bits to c and queues it unless that changes nothing.
func (w *dateWalk) mark(c *object.Commit, bits uint64) {
	old, seen := w.flags[c.Hash]
	if seen && old|bits == old {
		return
	}
	w.flags[c.Hash] = old | bits
	if !w.queued[c.Hash] {
		w.queued[c.Hash] = true
		w.heap.Push(c)
	}
}

func (w *dateWalk) empty() bool {
	return w.heap.Empty()
}

// pop removes the newest queued commit. first is false when the commit was
// popped before and is only back to pass on new flags.
func (w *dateWalk) pop() (c *object.Commit, first bool, err error) {
	if err := w.ctx.Err(); err != nil {
		return nil, false, err
	}
	v, _ := w.heap.Pop()
	c = v.(*object.Commit)
	delete(w.queued, c.Hash)
	if w.popped[c.Hash] {
		return c, false, nil
	}
	w.popped[c.Hash] = true
	w.order = append(w.order, c)
	w.walked++
	return c, true, nil
}

// propagate marks the parents of c with the flags of c.
func (w *dateWalk) propagate(c *object.Commit) error {
	bits := w.flags[c.Hash]
	err := c.Parents().ForEach(func(p *object.Commit) error {
		w.mark(p, bits)
		return nil
	})
	if err != nil {
		return fmt.Errorf("reading parents of %s: %w", c.Hash, err)
	}
	return nil
}

// settled reports whether every queued commit carries all of mask.
func (w *dateWalk) settled(mask uint64) bool {
	for h := range w.queued {
		if w.flags[h]&mask != mask {
			return false
		}
	}
	return true
}

// covered reports whether every queued commit carries at least one bit of mask.
func (w *dateWalk) covered(mask uint64) bool {
	for h := range w.queued {
		if w.flags[h]&mask == 0 {
			return false
		}
	}
	return true
}

const (
	reachHead uint64 = 1 << iota
	reachBase
)

// rangeCommits returns the commits reachable from head but not from base,
// like git rev-list base..head. The walk stops once every queued commit is
// reachable from base, so history older than the range is not read.
func rangeCommits(ctx context.Context, base, head *object.Commit) ([]*object.Commit, int, error) {
	w := newDateWalk(ctx)
	w.mark(head, reachHead)
	w.mark(base, reachBase)

	for !w.empty() && !w.settled(reachBase) {
		c, _, err := w.pop()
		if err != nil {
			return nil, w.walked, fmt.Errorf("walking history: %w", err)
		}
		if err := w.propagate(c); err != nil {
			return nil, w.walked, err
		}
	}

	var commits []*object.Commit
	for _, c := range w.order {
		if w.flags[c.Hash]&reachBase == 0 {
			commits = append(commits, c)
		}
	}
	return commits, w.walked, nil
}

type candidate struct {
	name  string
	bit   uint64
	depth int
}

// describeResult is the tag chosen for HEAD and the size of tag..HEAD.
type describeResult struct {
	Name   string
	Depth  int
	Walked int
}

// nearestTag picks the tag git describe --tags would pick. Up to
// maxCandidates tagged commits are collected while walking back from head;
// each candidate's depth counts the walked commits it cannot reach. Once
// every open path is reachable from some candidate no older tag can do
// better, and the walk only continues until all depths are exact. The
// smallest depth wins, ties going to the candidate found first.
func nearestTag(ctx context.Context, head *object.Commit, tags map[plumbing.Hash][]string) (describeResult, error) {
	w := newDateWalk(ctx)
	w.mark(head, 0)

	var (
		candidates []*candidate
		all        uint64
	)
	count := func(c *object.Commit) {
		bits := w.flags[c.Hash]
		for _, cand := range candidates {
			if bits&cand.bit == 0 {
				cand.depth++
			}
		}
	}

	for !w.empty() {
		if len(candidates) > 0 && w.covered(all) {
			break
		}
		c, first, err := w.pop()
		if err != nil {
			return describeResult{}, fmt.Errorf("walking history: %w", err)
		}
		if first {
			if names, ok := tags[c.Hash]; ok && len(candidates) < maxCandidates {
				cand := &candidate{name: names[0], bit: 1 << len(candidates), depth: w.walked - 1}
				candidates = append(candidates, cand)
				all |= cand.bit
				w.flags[c.Hash] |= cand.bit
			}
			count(c)
		}
		if err := w.propagate(c); err != nil {
			return describeResult{}, err
		}
	}
	if len(candidates) == 0 {
		return describeResult{}, ErrNoTags
	}

	for !w.empty() && !w.settled(all) {
		c, first, err := w.pop()
		if err != nil {
			return describeResult{}, fmt.Errorf("walking history: %w", err)
		}
		if first {
			count(c)
		}
		if err := w.propagate(c); err != nil {
			return describeResult{}, err
		}
	}

	best := candidates[0]
	for _, cand := range candidates[1:] {
		if cand.depth < best.depth {
			best = cand
		}
	}
	return describeResult{Name: best.name, Depth: best.depth, Walked: w.walked}, nil
}
