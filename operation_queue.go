package depot

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
)

type operation struct {
	typ      operationType
	amount   int
	values   []Value
	mask     Mask
	detach   Mask
	entities []Entity
}

type operationType int

const (
	opInsert operationType = iota
	opRemove
	opModify
	opSkip
)

// opQueue holds structural operations requested while the storage is locked.
// They are applied when the last lock is released: inserts, then modifies, then
// removes.
type opQueue struct {
	insertOps     []operation
	modifyOps     []operation
	removeOps     []operation
	pendingRemove map[Entity]struct{}
	pendingModify map[Entity][]int
}

func newOpQueue() opQueue {
	return opQueue{
		pendingRemove: make(map[Entity]struct{}),
		pendingModify: make(map[Entity][]int),
	}
}

func (q *opQueue) empty() bool {
	return len(q.insertOps) == 0 && len(q.modifyOps) == 0 && len(q.removeOps) == 0
}

func (q *opQueue) enqueueInsert(amount int, m Mask, values []Value) {
	q.insertOps = append(q.insertOps, operation{
		typ:    opInsert,
		amount: amount,
		mask:   m,
		values: values,
	})
}

func (q *opQueue) enqueueRemove(entities []Entity) {
	var fresh []Entity
	for _, e := range entities {
		if _, exists := q.pendingRemove[e]; exists {
			continue
		}
		q.pendingRemove[e] = struct{}{}
		fresh = append(fresh, e)

		// Modifications of an entity about to be removed are dropped
		for _, idx := range q.pendingModify[e] {
			q.modifyOps[idx].typ = opSkip
		}
		delete(q.pendingModify, e)
	}
	if len(fresh) > 0 {
		q.removeOps = append(q.removeOps, operation{typ: opRemove, entities: fresh})
	}
}

func (q *opQueue) enqueueModify(e Entity, values []Value, attach, detach Mask) {
	if _, removing := q.pendingRemove[e]; removing {
		return
	}
	q.pendingModify[e] = append(q.pendingModify[e], len(q.modifyOps))
	q.modifyOps = append(q.modifyOps, operation{
		typ:      opModify,
		entities: []Entity{e},
		values:   values,
		mask:     attach,
		detach:   detach,
	})
}

func (q *opQueue) reset() {
	q.insertOps = q.insertOps[:0]
	q.modifyOps = q.modifyOps[:0]
	q.removeOps = q.removeOps[:0]
	clear(q.pendingRemove)
	clear(q.pendingModify)
}

// processOperationQueue applies the deferred queue. Operations enqueued by event
// callbacks while it runs are picked up by the next round, until nothing is left.
func (sto *storage) processOperationQueue() error {
	if sto.flushing {
		return nil
	}
	sto.flushing = true
	defer func() { sto.flushing = false }()

	for !sto.opQueue.empty() {
		queue := sto.opQueue
		sto.opQueue = sto.spareQueue
		err := sto.applyOperations(&queue)
		queue.reset()
		sto.spareQueue = queue
		if err != nil {
			return err
		}
	}
	return nil
}

func (sto *storage) applyOperations(q *opQueue) error {
	inserts, modifies, removes := len(q.insertOps), len(q.modifyOps), len(q.removeOps)

	for _, op := range q.insertOps {
		for range op.amount {
			sto.insert(op.mask, op.values)
		}
	}

	for _, op := range q.modifyOps {
		if op.typ == opSkip {
			continue
		}
		e := op.entities[0]
		if !sto.Contains(e) {
			sto.log.Debug("stale handle skipped", bark.KeyOperation, "modify", "entity", e.String())
			continue
		}
		if err := sto.modify(e, op.values, op.mask, op.detach); err != nil {
			return fmt.Errorf("failed to apply queued modification: %w", err)
		}
	}

	for _, op := range q.removeOps {
		for _, e := range op.entities {
			sto.remove(e)
		}
	}

	sto.log.Debug("operation queue flushed", "inserts", inserts, "modifies", modifies, "removes", removes)
	return nil
}

// EnqueueInsert inserts immediately when the storage is unlocked and defers the
// insert otherwise. The bundle is validated either way.
func (sto *storage) EnqueueInsert(values ...Value) error {
	if !sto.Locked() {
		_, err := sto.Insert(values...)
		return err
	}
	m, err := sto.bundleMask(values)
	if err != nil {
		return err
	}
	sto.opQueue.enqueueInsert(1, m, values)
	return nil
}

func (sto *storage) EnqueueRemove(entities ...Entity) error {
	if !sto.Locked() {
		_, err := sto.RemoveEntities(entities...)
		return err
	}
	sto.opQueue.enqueueRemove(entities)
	return nil
}

func (sto *storage) EnqueueModify(e Entity, attach []Value, detach ...Component) error {
	if !sto.Locked() {
		return sto.Modify(e, attach, detach...)
	}
	attachMask, err := sto.bundleMask(attach)
	if err != nil {
		return err
	}
	detachMask, err := sto.detachMask(detach)
	if err != nil {
		return err
	}
	sto.opQueue.enqueueModify(e, attach, attachMask, detachMask)
	return nil
}
