package scan

import (
	"fmt"
	"math/rand"
	"sync"
)

// Permutation is a stable shuffled view over a growing list of FileItems.
// Items appended later are shuffled among themselves and placed after the
// existing order, so positions already handed out never move.
type Permutation struct {
	mu       sync.RWMutex
	items    FileItems
	shuffled []int // shuffled position -> original index
	reverse  []int // original index -> shuffled position
	rng      *rand.Rand
}

// NewPermutation shuffles items with the given seed.
func NewPermutation(items FileItems, seed int64) *Permutation {
	p := &Permutation{rng: rand.New(rand.NewSource(seed))}
	p.Append(items...)
	return p
}

// Append adds items to the end of the shuffled order.
func (p *Permutation) Append(items ...FileItem) {
	p.mu.Lock()
	defer p.mu.Unlock()

	base := len(p.items)
	p.items = append(p.items, items...)

	fresh := make([]int, len(items))
	for i := range fresh {
		fresh[i] = base + i
	}
	p.rng.Shuffle(len(fresh), func(i, j int) {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	})

	p.shuffled = append(p.shuffled, fresh...)
	p.reverse = append(p.reverse, make([]int, len(fresh))...)
	for i, original := range fresh {
		p.reverse[original] = base + i
	}
}

// Position returns the shuffled position of an original index.
func (p *Permutation) Position(original int) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if original < 0 || original >= len(p.reverse) {
		return -1, fmt.Errorf("original index %d out of bounds (size %d)", original, len(p.reverse))
	}
	return p.reverse[original], nil
}

// At returns the item at a shuffled position.
func (p *Permutation) At(pos int) (FileItem, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if pos < 0 || pos >= len(p.shuffled) {
		return FileItem{}, fmt.Errorf("shuffled index %d out of bounds (size %d)", pos, len(p.shuffled))
	}
	return p.items[p.shuffled[pos]], nil
}

// Len returns the number of items.
func (p *Permutation) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.shuffled)
}

// Items returns a copy of the items in shuffled order.
func (p *Permutation) Items() FileItems {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(FileItems, len(p.shuffled))
	for pos, original := range p.shuffled {
		out[pos] = p.items[original]
	}
	return out
}
