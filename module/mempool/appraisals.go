// Package mempool implements the in-memory pools feeding the receipt check
// pipeline.
package mempool

import (
	"math/big"
	"sync"
	"time"

	"github.com/PanGan21/indexer-go/model/payments"
)

type appraisal struct {
	value     *big.Int
	createdAt time.Time
}

// Appraisals maps a query id to the fee this node computed for it. An
// appraisal is written exactly once, before the query is dispatched, and
// consumed at most once when the paired receipt is checked. Entries whose
// receipt never arrives are evicted after the TTL to bound memory.
type Appraisals struct {
	sync.RWMutex
	appraisals map[payments.QueryID]appraisal
	ttl        time.Duration
}

func NewAppraisals(ttl time.Duration) *Appraisals {
	return &Appraisals{
		appraisals: make(map[payments.QueryID]appraisal),
		ttl:        ttl,
	}
}

// Put inserts the appraised value for the query. Returns ErrAlreadyExists if
// an appraisal for the id is already present.
func (a *Appraisals) Put(queryID payments.QueryID, value *big.Int) error {
	a.Lock()
	defer a.Unlock()
	if _, ok := a.appraisals[queryID]; ok {
		return ErrAlreadyExists
	}
	a.appraisals[queryID] = appraisal{
		value:     new(big.Int).Set(value),
		createdAt: time.Now(),
	}
	return nil
}

// Take atomically removes and returns the appraisal for the query. A second
// Take for the same id observes ok=false, so a stale appraisal can never be
// consumed twice even under concurrent calls.
func (a *Appraisals) Take(queryID payments.QueryID) (*big.Int, bool) {
	a.Lock()
	defer a.Unlock()
	entry, ok := a.appraisals[queryID]
	if !ok {
		return nil, false
	}
	delete(a.appraisals, queryID)
	return entry.value, true
}

// EvictExpired removes all appraisals older than the TTL, returning how many
// were evicted.
func (a *Appraisals) EvictExpired(now time.Time) int {
	a.Lock()
	defer a.Unlock()
	evicted := 0
	for id, entry := range a.appraisals {
		if now.Sub(entry.createdAt) > a.ttl {
			delete(a.appraisals, id)
			evicted++
		}
	}
	return evicted
}

// Size returns the number of pending appraisals.
func (a *Appraisals) Size() uint {
	a.RLock()
	defer a.RUnlock()
	return uint(len(a.appraisals))
}
