package depot

import (
	"fmt"
	"reflect"
)

// Each error matches any other value of its own type under errors.Is, so callers can
// test with a zero value, e.g. errors.Is(err, InvalidEntityError{}).

type LockedStorageError struct{}

func (e LockedStorageError) Error() string {
	return fmt.Sprintf("storage is currently locked")
}

func (e LockedStorageError) Is(target error) bool {
	_, ok := target.(LockedStorageError)
	return ok
}

type UnregisteredTypeError struct {
	Type reflect.Type
}

func (e UnregisteredTypeError) Error() string {
	return fmt.Sprintf("component type was never registered: %v", e.Type)
}

func (e UnregisteredTypeError) Is(target error) bool {
	_, ok := target.(UnregisteredTypeError)
	return ok
}

// UnlinkedTypeError reports a component that is absent from an archetype's mask.
// It is expected for optional components and is never fatal.
type UnlinkedTypeError struct {
	Component Component
}

func (e UnlinkedTypeError) Error() string {
	return fmt.Sprintf("component is not linked to the archetype: %v", e.Component)
}

func (e UnlinkedTypeError) Is(target error) bool {
	_, ok := target.(UnlinkedTypeError)
	return ok
}

type BorrowConflictError struct {
	Component Component
	Exclusive bool
}

func (e BorrowConflictError) Error() string {
	mode := "shared"
	if e.Exclusive {
		mode = "exclusive"
	}
	return fmt.Sprintf("%s access to %v conflicts with a live borrow", mode, e.Component)
}

func (e BorrowConflictError) Is(target error) bool {
	_, ok := target.(BorrowConflictError)
	return ok
}

type InvalidEntityError struct {
	Entity Entity
}

func (e InvalidEntityError) Error() string {
	return fmt.Sprintf("entity is stale or out of range: %v", e.Entity)
}

func (e InvalidEntityError) Is(target error) bool {
	_, ok := target.(InvalidEntityError)
	return ok
}

type RowOutOfRangeError struct {
	Row, Length int
}

func (e RowOutOfRangeError) Error() string {
	return fmt.Sprintf("row %d out of range (length %d)", e.Row, e.Length)
}

func (e RowOutOfRangeError) Is(target error) bool {
	_, ok := target.(RowOutOfRangeError)
	return ok
}

type ComponentExistsError struct {
	Component Component
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("component already exists on entity: %v", e.Component)
}

func (e ComponentExistsError) Is(target error) bool {
	_, ok := target.(ComponentExistsError)
	return ok
}

type ComponentNotFoundError struct {
	Component Component
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component does not exist on entity: %v", e.Component)
}

func (e ComponentNotFoundError) Is(target error) bool {
	_, ok := target.(ComponentNotFoundError)
	return ok
}

type DuplicateComponentError struct {
	Component Component
}

func (e DuplicateComponentError) Error() string {
	return fmt.Sprintf("component appears more than once in bundle: %v", e.Component)
}

func (e DuplicateComponentError) Is(target error) bool {
	_, ok := target.(DuplicateComponentError)
	return ok
}

type CapacityError struct {
	Limit int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("capacity of %d exceeded", e.Limit)
}

func (e CapacityError) Is(target error) bool {
	_, ok := target.(CapacityError)
	return ok
}

// AccessError reports an access a query layout did not request.
type AccessError struct {
	Component Component
	Exclusive bool
}

func (e AccessError) Error() string {
	if e.Exclusive {
		return fmt.Sprintf("query layout has no exclusive access to %v", e.Component)
	}
	return fmt.Sprintf("query layout has no access to %v", e.Component)
}

func (e AccessError) Is(target error) bool {
	_, ok := target.(AccessError)
	return ok
}

// BatchSizeError reports a negative entity count for a batch insert
type BatchSizeError struct {
	Count int
}

func (e BatchSizeError) Error() string {
	return fmt.Sprintf("batch size %d is invalid", e.Count)
}

func (e BatchSizeError) Is(target error) bool {
	_, ok := target.(BatchSizeError)
	return ok
}

type PrefabNotFoundError struct {
	Name string
}

func (e PrefabNotFoundError) Error() string {
	return fmt.Sprintf("no prefab named %q", e.Name)
}

func (e PrefabNotFoundError) Is(target error) bool {
	_, ok := target.(PrefabNotFoundError)
	return ok
}

// PoolBusyError reports an Execute issued while the pool is already running a
// dispatch, e.g. from inside one of its own chunks
type PoolBusyError struct{}

func (e PoolBusyError) Error() string {
	return "worker pool is already dispatching"
}

func (e PoolBusyError) Is(target error) bool {
	_, ok := target.(PoolBusyError)
	return ok
}

type PoolClosedError struct{}

func (e PoolClosedError) Error() string {
	return "worker pool is shut down"
}

func (e PoolClosedError) Is(target error) bool {
	_, ok := target.(PoolClosedError)
	return ok
}

type ClosedQueryError struct{}

func (e ClosedQueryError) Error() string {
	return "query is closed"
}

func (e ClosedQueryError) Is(target error) bool {
	_, ok := target.(ClosedQueryError)
	return ok
}

// WorkerPanicError carries a panic raised inside a pool chunk back to the owner
type WorkerPanicError struct {
	Value string
}

func (e WorkerPanicError) Error() string {
	return fmt.Sprintf("worker panicked: %s", e.Value)
}

func (e WorkerPanicError) Is(target error) bool {
	_, ok := target.(WorkerPanicError)
	return ok
}

type columnMismatchError struct {
	want, got Component
}

func (e columnMismatchError) Error() string {
	return fmt.Sprintf("column holds %v, accessed as %v", e.got, e.want)
}
