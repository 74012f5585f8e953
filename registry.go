package depot

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/table"
)

// registry assigns each component type a bit for the process lifetime. Bits come
// from a table.Schema so the mask build tags and the schema agree on capacity.
type registry struct {
	mu     sync.RWMutex
	schema table.Schema
	byType map[reflect.Type]*componentType
	byBit  [MaxComponentTypes]*componentType
	limit  int
	log    *slog.Logger
}

var defaultRegistry = newRegistry(table.Factory.NewSchema(), MaxComponentTypes)

func newRegistry(schema table.Schema, limit int) *registry {
	return &registry{
		schema: schema,
		byType: make(map[reflect.Type]*componentType),
		limit:  limit,
		log:    bark.For("registry"),
	}
}

// Register assigns T a bit the first time it is seen and returns its Component.
// Later calls return the same Component. Registering more types than
// MaxComponentTypes panics with a CapacityError.
func Register[T any]() Component {
	return registerIn[T](defaultRegistry)
}

// ComponentOf returns the Component for T without registering it
func ComponentOf[T any]() (Component, error) {
	return defaultRegistry.lookup(reflect.TypeFor[T]())
}

// MaskOf returns the single-bit mask of T
func MaskOf[T any]() (Mask, error) {
	c, err := ComponentOf[T]()
	if err != nil {
		return Mask{}, err
	}
	return c.Mask(), nil
}

// Registered returns the number of registered component types
func Registered() int {
	return defaultRegistry.registered()
}

func registerIn[T any](r *registry) Component {
	typ := reflect.TypeFor[T]()
	if c, err := r.lookup(typ); err == nil {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byType[typ]; ok {
		return c
	}
	if len(r.byType) >= r.limit {
		panic(bark.AddTrace(CapacityError{Limit: r.limit}))
	}

	et := table.FactoryNewElementType[T]()
	r.schema.Register(et)
	if !r.schema.Contains(et) {
		panic(bark.AddTrace(CapacityError{Limit: r.limit}))
	}
	bit := r.schema.RowIndexFor(et)
	if int(bit) >= MaxComponentTypes || r.byBit[bit] != nil {
		panic(bark.AddTrace(CapacityError{Limit: MaxComponentTypes}))
	}

	ct := &componentType{
		ElementType: et,
		bit:         bit,
		name:        typ.String(),
	}
	ct.newColumn = func() column { return newColumn[T](ct) }
	r.byType[typ] = ct
	r.byBit[bit] = ct
	r.log.Debug("component registered", "type", ct.name, "bit", bit)
	return ct
}

func (r *registry) lookup(typ reflect.Type) (Component, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byType[typ]
	if !ok {
		return nil, UnregisteredTypeError{Type: typ}
	}
	return c, nil
}

func (r *registry) componentAt(bit uint32) *componentType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byBit[bit]
}

func (r *registry) registered() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byType)
}
