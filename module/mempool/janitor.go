package mempool

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/PanGan21/indexer-go/module/component"
	"github.com/PanGan21/indexer-go/module/irrecoverable"
)

// AppraisalJanitor periodically evicts expired appraisals from the pool.
type AppraisalJanitor struct {
	*component.ComponentManager

	log        zerolog.Logger
	appraisals *Appraisals
	interval   time.Duration
}

func NewAppraisalJanitor(log zerolog.Logger, appraisals *Appraisals, interval time.Duration) *AppraisalJanitor {
	j := &AppraisalJanitor{
		log:        log.With().Str("component", "appraisal_janitor").Logger(),
		appraisals: appraisals,
		interval:   interval,
	}
	j.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(j.runEviction).
		Build()
	return j
}

func (j *AppraisalJanitor) runEviction(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := j.appraisals.EvictExpired(time.Now()); evicted > 0 {
				j.log.Debug().Int("evicted", evicted).Msg("evicted expired appraisals")
			}
		}
	}
}
