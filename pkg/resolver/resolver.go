package resolver

import (
	"fmt"
	"sync"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	"github.com/alphadose/zenq/v2"
	engine "github.com/arjunsk/halleykv/pkg/engine"
	"github.com/arjunsk/halleykv/pkg/mvcc"
	"github.com/arjunsk/halleykv/pkg/txn"
	"github.com/panjf2000/ants/v2"
)

// Request asks for one key's intent to be brought to its final state,
// provided it is still owned by the transaction in Meta.
type Request struct {
	Key  []byte
	Meta txn.Meta
}

// Resolver finalizes intents whose owner has been decided: a committed
// owner's intent becomes a regular version at its write timestamp, an
// aborted owner's intent is dropped, a pending owner's intent is left alone.
// Requests arrive either synchronously (Resolve) or through a queue drained
// by a worker pool (Enqueue).
type Resolver struct {
	eng     engine.Engine
	src     txn.StatusSource
	latches *txn.LatchTable

	queue *zenq.ZenQ[Request]
	pool  *ants.Pool
	wg    sync.WaitGroup

	statsMu  sync.Mutex
	moAvg    *movingaverage.MovingAverage
	logStats bool
}

const queueSize = 1 << 10

func New(eng engine.Engine, src txn.StatusSource, latches *txn.LatchTable, workers int, logStats bool) (*Resolver, error) {
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	r := &Resolver{
		eng:      eng,
		src:      src,
		latches:  latches,
		queue:    zenq.New[Request](queueSize),
		pool:     pool,
		moAvg:    movingaverage.New(64),
		logStats: logStats,
	}
	go r.dispatch()
	return r, nil
}

// Enqueue hands a request to the worker pool. Fire and forget.
func (r *Resolver) Enqueue(req Request) {
	r.queue.Write(req)
}

// Resolve finalizes one intent synchronously.
func (r *Resolver) Resolve(req Request) error {
	start := time.Now()

	r.latches.Acquire(req.Key)
	defer r.latches.Release(req.Key)

	intentKey := mvcc.EncodeKey(mvcc.IntentKey(req.Key))
	buf, ok := r.eng.Get(intentKey)
	if !ok {
		return nil // already resolved
	}
	uv, err := mvcc.DecodeUncommitted(buf)
	if err != nil {
		return err
	}
	if uv.Meta.ID != req.Meta.ID {
		return nil // the slot was re-taken by a different transaction
	}

	status, err := r.src.Status(uv.Meta.ID)
	if err != nil {
		return err
	}
	switch status {
	case txn.Pending:
		return nil
	case txn.Committed:
		r.eng.Set(mvcc.EncodeKey(mvcc.NewKey(req.Key, uv.Meta.WriteTimestamp)), uv.Value)
		r.eng.Delete(intentKey)
	case txn.Aborted:
		r.eng.Delete(intentKey)
	}

	r.observe(time.Since(start))
	return nil
}

// Drain blocks until every request already picked up by the pool finished.
func (r *Resolver) Drain() {
	r.wg.Wait()
}

func (r *Resolver) Close() {
	r.queue.Close()
	r.wg.Wait()
	r.pool.Release()
}

func (r *Resolver) dispatch() {
	for {
		req, open := r.queue.Read()
		if !open {
			return
		}
		r.wg.Add(1)
		if err := r.pool.Submit(func() {
			defer r.wg.Done()
			_ = r.Resolve(req)
		}); err != nil {
			r.wg.Done()
		}
	}
}

func (r *Resolver) observe(diff time.Duration) {
	r.statsMu.Lock()
	r.moAvg.Add(float64(diff.Nanoseconds()))
	avg := time.Duration(r.moAvg.Avg())
	r.statsMu.Unlock()

	if r.logStats {
		fmt.Printf("resolved intent in %s. avg resolve time %s \n", diff, avg)
	}
}
