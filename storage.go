package depot

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/TheBitDrifter/bark"
	numbers_util "github.com/TheBitDrifter/util/numbers"
)

var _ Storage = &storage{}

type storage struct {
	reg        *registry
	archetypes *archetypes
	entities   entitySet
	borrows    borrowTracker
	opQueue    opQueue
	spareQueue opQueue
	flushing   bool
	removed    [MaxComponentTypes]column
	matches    map[Mask][]*archetype
	matchLimit int
	prefabs    Cache[prefab]
	events     StorageEvents
	version    uint64
	tick       uint64
	log        *slog.Logger
}

// prefab is a named bundle kept for repeated instantiation
type prefab struct {
	mask   Mask
	values []Value
}

type archetypes struct {
	nextID           archetypeID
	asSlice          []*archetype
	idsGroupedByMask map[Mask]archetypeID
}

func newStorage(reg *registry) *storage {
	return &storage{
		reg: reg,
		archetypes: &archetypes{
			nextID:           1,
			idsGroupedByMask: make(map[Mask]archetypeID),
		},
		opQueue:    newOpQueue(),
		spareQueue: newOpQueue(),
		matches:    make(map[Mask][]*archetype),
		matchLimit: Config.matchCacheCapacity,
		prefabs:    FactoryNewCache[prefab](Config.prefabCapacity),
		events:     Config.events,
		tick:       1,
		log:        bark.For("storage"),
	}
}

func (sto *storage) getOrCreateArchetype(m Mask) *archetype {
	if id, found := sto.archetypes.idsGroupedByMask[m]; found {
		return sto.archetypes.asSlice[id-1]
	}
	id := sto.archetypes.nextID
	created := newArchetype(sto.reg, id, m)
	sto.archetypes.asSlice = append(sto.archetypes.asSlice, created)
	sto.archetypes.idsGroupedByMask[m] = id
	sto.archetypes.nextID++
	clear(sto.matches)
	sto.log.Debug("archetype created", "id", id, "mask", m.String(), "components", m.Count())
	return created
}

// archetypeFor returns the archetype a live entity's linkings point at
func (sto *storage) archetypeFor(m Mask) *archetype {
	id, found := sto.archetypes.idsGroupedByMask[m]
	if !found {
		panic(bark.AddTrace(fmt.Errorf("no archetype for linked mask %s", m)))
	}
	return sto.archetypes.asSlice[id-1]
}

// matchingArchetypes returns every archetype whose mask is a superset of m
func (sto *storage) matchingArchetypes(m Mask) []*archetype {
	if matched, ok := sto.matches[m]; ok {
		return matched
	}
	var matched []*archetype
	for _, arch := range sto.archetypes.asSlice {
		if arch.mask.Contains(m) {
			matched = append(matched, arch)
		}
	}
	if len(sto.matches) >= sto.matchLimit {
		clear(sto.matches)
	}
	sto.matches[m] = matched
	return matched
}

type storageEvent uint8

const (
	eventInserted storageEvent = iota
	eventRemoved
	eventMigrated
)

// notify runs one StorageEvents callback after the change it reports is complete.
// Structure stays locked while the callback runs: direct structural calls from it
// fail with LockedStorageError, and Enqueue calls are applied once it returns.
func (sto *storage) notify(kind storageEvent, e Entity, from, to Mask) {
	if sto.events == nil {
		return
	}
	sto.borrows.notifying++
	func() {
		defer func() { sto.borrows.notifying-- }()
		switch kind {
		case eventInserted:
			sto.events.OnEntityInserted(e)
		case eventRemoved:
			sto.events.OnEntityRemoved(e)
		case eventMigrated:
			sto.events.OnEntityMigrated(e, from, to)
		}
	}()
	sto.unlocked()
}

// keepRemoved copies a dropped value into the removed buffer of its component
func (sto *storage) keepRemoved(col column, row int) {
	bit := col.component().Bit()
	if sto.removed[bit] == nil {
		sto.removed[bit] = sto.reg.componentAt(bit).newColumn()
	}
	col.appendRowTo(sto.removed[bit], row)
}

func (sto *storage) Insert(values ...Value) (Entity, error) {
	if sto.Locked() {
		return Entity{}, LockedStorageError{}
	}
	m, err := sto.bundleMask(values)
	if err != nil {
		return Entity{}, err
	}
	return sto.insert(m, values), nil
}

// NewEntities inserts n entities sharing one bundle. n of zero returns no
// entities; a negative n is a BatchSizeError.
func (sto *storage) NewEntities(n int, values ...Value) ([]Entity, error) {
	if sto.Locked() {
		return nil, LockedStorageError{}
	}
	if n < 0 {
		return nil, BatchSizeError{Count: n}
	}
	m, err := sto.bundleMask(values)
	if err != nil {
		return nil, err
	}
	entities := make([]Entity, n)
	for i := range entities {
		entities[i] = sto.insert(m, values)
	}
	return entities, nil
}

func (sto *storage) bundleMask(values []Value) (Mask, error) {
	for _, v := range values {
		if err := sto.checkRegistered(v.Component()); err != nil {
			return Mask{}, err
		}
	}
	return bundleMask(values)
}

func (sto *storage) detachMask(detach []Component) (Mask, error) {
	var m Mask
	for _, c := range detach {
		if err := sto.checkRegistered(c); err != nil {
			return Mask{}, err
		}
		m = m.Or(c.Mask())
	}
	return m, nil
}

func (sto *storage) checkRegistered(c Component) error {
	if c == nil {
		return UnregisteredTypeError{}
	}
	if ct := sto.reg.componentAt(c.Bit()); ct == nil || ct.ID() != c.ID() {
		return UnregisteredTypeError{Type: c.Type()}
	}
	return nil
}

func (sto *storage) insert(m Mask, values []Value) Entity {
	arch := sto.getOrCreateArchetype(m)
	e := sto.entities.insert(EntityLinkings{Mask: m, Row: arch.Len()})
	arch.insertRow(e, values)
	sto.version++
	sto.notify(eventInserted, e, Mask{}, m)
	return e
}

// Remove destroys e. It reports false, without error, when e is already invalid.
func (sto *storage) Remove(e Entity) (bool, error) {
	if sto.Locked() {
		return false, LockedStorageError{}
	}
	return sto.remove(e), nil
}

func (sto *storage) RemoveEntities(entities ...Entity) (int, error) {
	if sto.Locked() {
		return 0, LockedStorageError{}
	}
	removed := 0
	for _, e := range uniqueEntities(entities) {
		if sto.remove(e) {
			removed++
		}
	}
	return removed, nil
}

func (sto *storage) remove(e Entity) bool {
	l, ok := sto.entities.linkings(e)
	if !ok {
		sto.log.Debug("stale handle rejected", bark.KeyOperation, "remove", "entity", e.String())
		return false
	}
	arch := sto.archetypeFor(l.Mask)
	if displaced, moved := arch.removeRow(l.Row, sto.keepRemoved); moved {
		sto.entities.relink(displaced, l)
	}
	sto.entities.remove(e)
	sto.version++
	sto.notify(eventRemoved, e, l.Mask, Mask{})
	return true
}

// Modify attaches and detaches components in one migration. The target mask is
// (current | attach) &^ detach; attached values for components the entity already
// has are overwritten in place.
func (sto *storage) Modify(e Entity, attach []Value, detach ...Component) error {
	if sto.Locked() {
		return LockedStorageError{}
	}
	attachMask, err := sto.bundleMask(attach)
	if err != nil {
		return err
	}
	detachMask, err := sto.detachMask(detach)
	if err != nil {
		return err
	}
	return sto.modify(e, attach, attachMask, detachMask)
}

func (sto *storage) modify(e Entity, attach []Value, attachMask, detachMask Mask) error {
	l, ok := sto.entities.linkings(e)
	if !ok {
		return InvalidEntityError{Entity: e}
	}
	target := l.Mask.Or(attachMask).AndNot(detachMask)
	src := sto.archetypeFor(l.Mask)

	if target == l.Mask {
		for _, v := range attach {
			if col, ok := src.column(v.Component().Bit()); ok {
				v.overwrite(col, l.Row)
			}
		}
		return nil
	}

	dst := sto.getOrCreateArchetype(target)
	newRow, displaced, moved := src.moveRowTo(dst, l.Row, attach, sto.keepRemoved)
	if moved {
		sto.entities.relink(displaced, l)
	}
	sto.entities.relink(e, EntityLinkings{Mask: target, Row: newRow})
	sto.version++
	sto.notify(eventMigrated, e, l.Mask, target)
	return nil
}

// AddComponent attaches c with its zero value
func (sto *storage) AddComponent(e Entity, c Component) error {
	if err := sto.checkAttach(e, c); err != nil {
		return err
	}
	return sto.modify(e, nil, c.Mask(), Mask{})
}

func (sto *storage) AddComponentWithValue(e Entity, v Value) error {
	if err := sto.checkAttach(e, v.Component()); err != nil {
		return err
	}
	return sto.modify(e, []Value{v}, v.Component().Mask(), Mask{})
}

func (sto *storage) checkAttach(e Entity, c Component) error {
	if sto.Locked() {
		return LockedStorageError{}
	}
	if err := sto.checkRegistered(c); err != nil {
		return err
	}
	l, ok := sto.entities.linkings(e)
	if !ok {
		return InvalidEntityError{Entity: e}
	}
	if l.Mask.Has(c.Bit()) {
		return ComponentExistsError{Component: c}
	}
	return nil
}

func (sto *storage) RemoveComponent(e Entity, c Component) error {
	if sto.Locked() {
		return LockedStorageError{}
	}
	if err := sto.checkRegistered(c); err != nil {
		return err
	}
	l, ok := sto.entities.linkings(e)
	if !ok {
		return InvalidEntityError{Entity: e}
	}
	if !l.Mask.Has(c.Bit()) {
		return ComponentNotFoundError{Component: c}
	}
	return sto.modify(e, nil, Mask{}, c.Mask())
}

func (sto *storage) Entry(e Entity) (EntityView, bool) {
	if _, ok := sto.entities.validate(e); !ok {
		return EntityView{}, false
	}
	return EntityView{sto: sto, entity: e}, true
}

func (sto *storage) Validate(e Entity) (Entity, bool) {
	return sto.entities.validate(e)
}

func (sto *storage) Contains(e Entity) bool {
	_, ok := sto.entities.validate(e)
	return ok
}

func (sto *storage) Len() int {
	return sto.entities.len()
}

func (sto *storage) Archetypes() []Archetype {
	result := make([]Archetype, len(sto.archetypes.asSlice))
	for i, arch := range sto.archetypes.asSlice {
		result[i] = arch
	}
	return result
}

// Prepare clears every change flag and the removed buffers, then advances the tick.
// It must run once per tick before any change-filtered query.
func (sto *storage) Prepare() error {
	if sto.Locked() {
		return LockedStorageError{}
	}
	for _, arch := range sto.archetypes.asSlice {
		arch.prepare(sto.tick)
	}
	for _, col := range sto.removed {
		if col != nil {
			col.reset()
		}
	}
	sto.tick++
	return nil
}

func (sto *storage) Tick() uint64 {
	return sto.tick
}

func (sto *storage) Locked() bool {
	return sto.borrows.locked()
}

// AddLock freezes structure until the matching RemoveLock. bit must be below
// MaxComponentTypes. Structural calls fail
// with LockedStorageError and Enqueue calls are deferred while any lock is held.
func (sto *storage) AddLock(bit uint32) {
	sto.borrows.locks = sto.borrows.locks.Or(MaskFromOffset(bit))
}

func (sto *storage) RemoveLock(bit uint32) {
	sto.borrows.locks = sto.borrows.locks.AndNot(MaskFromOffset(bit))
	sto.unlocked()
}

// unlocked flushes the deferred queue once the last borrow or lock is gone
func (sto *storage) unlocked() {
	if sto.Locked() || sto.flushing {
		return
	}
	if err := sto.processOperationQueue(); err != nil {
		panic(bark.AddTrace(err))
	}
}

// Verify checks that every archetype's columns match its entity list, that every
// stored entity is linked back to its row, and that every live slot links to a
// row holding exactly that entity.
func (sto *storage) Verify() error {
	var errs []error
	rows := 0
	for _, arch := range sto.archetypes.asSlice {
		rows += arch.Len()
		if err := arch.verify(); err != nil {
			errs = append(errs, fmt.Errorf("archetype %d: %w", arch.id, err))
		}
		for row, e := range arch.entities {
			l, ok := sto.entities.linkings(e)
			if !ok {
				errs = append(errs, InvalidEntityError{Entity: e})
				continue
			}
			if l.Mask != arch.mask || l.Row != row {
				errs = append(errs, fmt.Errorf("entity %v linked to (%s, %d), stored at (%s, %d)", e, l.Mask, l.Row, arch.mask, row))
			}
		}
	}
	for e, l := range sto.entities.live() {
		id, found := sto.archetypes.idsGroupedByMask[l.Mask]
		if !found {
			errs = append(errs, fmt.Errorf("entity %v linked to missing archetype %s", e, l.Mask))
			continue
		}
		arch := sto.archetypes.asSlice[id-1]
		if l.Row < 0 || l.Row >= arch.Len() {
			errs = append(errs, fmt.Errorf("entity %v: %w", e, RowOutOfRangeError{Row: l.Row, Length: arch.Len()}))
			continue
		}
		if owner := arch.entities[l.Row]; owner != e {
			errs = append(errs, fmt.Errorf("entity %v linked to row %d of archetype %d, which holds %v", e, l.Row, arch.id, owner))
		}
	}
	if live := sto.entities.len(); rows != live {
		errs = append(errs, fmt.Errorf("%d archetype rows for %d live entities", rows, live))
	}
	return errors.Join(errs...)
}

// Prefab registers a named bundle and creates its archetype up front. Registering
// an existing name replaces its bundle.
func (sto *storage) Prefab(name string, values ...Value) error {
	if sto.Locked() {
		return LockedStorageError{}
	}
	m, err := sto.bundleMask(values)
	if err != nil {
		return err
	}
	sto.getOrCreateArchetype(m)
	p := prefab{mask: m, values: slices.Clone(values)}
	if idx, ok := sto.prefabs.GetIndex(name); ok {
		*sto.prefabs.GetItem(idx) = p
		return nil
	}
	_, err = sto.prefabs.Register(name, p)
	return err
}

// Instantiate inserts a new entity holding a copy of the named prefab's bundle
func (sto *storage) Instantiate(name string) (Entity, error) {
	if sto.Locked() {
		return Entity{}, LockedStorageError{}
	}
	idx, ok := sto.prefabs.GetIndex(name)
	if !ok {
		return Entity{}, PrefabNotFoundError{Name: name}
	}
	p := sto.prefabs.GetItem(idx)
	return sto.insert(p.mask, p.values), nil
}

func uniqueEntities(entities []Entity) []Entity {
	keys := make([]int, len(entities))
	byKey := make(map[int]Entity, len(entities))
	for i, e := range entities {
		key := int(uint64(e.index)<<32 | uint64(e.generation))
		keys[i] = key
		byKey[key] = e
	}
	unique := numbers_util.UniqueInts(keys)
	result := make([]Entity, len(unique))
	for i, key := range unique {
		result[i] = byKey[key]
	}
	return result
}
