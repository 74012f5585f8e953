package depot

// Storage holds every entity and routes structural changes between archetypes.
// It is owned by a single goroutine; only component data is shared with pool
// workers, and only inside one ForEach dispatch.
type Storage interface {
	Insert(values ...Value) (Entity, error)
	NewEntities(n int, values ...Value) ([]Entity, error)
	Remove(Entity) (bool, error)
	RemoveEntities(...Entity) (int, error)
	Modify(e Entity, attach []Value, detach ...Component) error
	AddComponent(Entity, Component) error
	AddComponentWithValue(Entity, Value) error
	RemoveComponent(Entity, Component) error

	Prefab(name string, values ...Value) error
	Instantiate(name string) (Entity, error)

	EnqueueInsert(values ...Value) error
	EnqueueRemove(...Entity) error
	EnqueueModify(e Entity, attach []Value, detach ...Component) error

	Entry(Entity) (EntityView, bool)
	Validate(Entity) (Entity, bool)
	Contains(Entity) bool
	Len() int
	Archetypes() []Archetype

	Prepare() error
	Tick() uint64

	Query(layout ...Access) (*Query, error)
	QueryWith(filter Filter, layout ...Access) (*Query, error)

	Locked() bool
	AddLock(bit uint32)
	RemoveLock(bit uint32)

	Verify() error
}

// StorageEvents receives structural notifications from a storage. Each callback
// runs after the change is complete, with structure locked: use the Enqueue
// methods to make structural changes from inside a callback.
type StorageEvents interface {
	OnEntityInserted(Entity)
	OnEntityRemoved(Entity)
	OnEntityMigrated(e Entity, from, to Mask)
}

type Cache[T any] interface {
	GetIndex(string) (int, bool)
	GetItem(int) *T
	GetItem32(uint32) *T
	Register(string, T) (int, error)
	Clear()
}

type SimpleCache[T any] struct {
	itemIndices map[string]int
	items       []T
	maxCapacity int
}
