package payments

import (
	"github.com/ethereum/go-ethereum/common"
)

// Allocation is an on-chain registered claim by this indexer to serve a
// specific deployment. Receipts name an allocation; only receipts against a
// currently open allocation are accepted.
type Allocation struct {
	ID            common.Address
	Deployment    DeploymentID
	CreatedAtEpoch uint64
	// ClosedAtEpoch is zero while the allocation is open.
	ClosedAtEpoch uint64
}

// Active reports whether the allocation is still open.
func (a *Allocation) Active() bool {
	return a.ClosedAtEpoch == 0
}

// AllocationSnapshot is an immutable view of this indexer's allocations as of
// the last successful refresh. Published whole, never mutated in place.
type AllocationSnapshot struct {
	allocations map[common.Address]*Allocation
}

func NewAllocationSnapshot(allocations []*Allocation) *AllocationSnapshot {
	byID := make(map[common.Address]*Allocation, len(allocations))
	for _, alloc := range allocations {
		byID[alloc.ID] = alloc
	}
	return &AllocationSnapshot{allocations: byID}
}

// ByID returns the allocation with the given ID, if present.
func (s *AllocationSnapshot) ByID(id common.Address) (*Allocation, bool) {
	alloc, ok := s.allocations[id]
	return alloc, ok
}

// All returns the allocations in the snapshot.
func (s *AllocationSnapshot) All() []*Allocation {
	all := make([]*Allocation, 0, len(s.allocations))
	for _, alloc := range s.allocations {
		all = append(all, alloc)
	}
	return all
}

func (s *AllocationSnapshot) Size() int {
	return len(s.allocations)
}
