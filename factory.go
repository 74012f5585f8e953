package depot

type factory struct{}

var Factory factory

func (f factory) NewStorage() Storage {
	return newStorage(defaultRegistry)
}

func (f factory) NewWorkerPool(workers int) *WorkerPool {
	return NewWorkerPool(workers)
}

func (f factory) NewCursor(query *Query) *Cursor {
	return newCursor(query)
}

// FactoryNewComponent registers T and returns its typed accessor
func FactoryNewComponent[T any]() AccessibleComponent[T] {
	return AccessibleComponent[T]{Component: Register[T]()}
}

func FactoryNewCache[T any](cap int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: cap,
	}
}

func FactoryNewAppendBuffer[T any](pageSize, maxPages int) *AppendBuffer[T] {
	return NewAppendBuffer[T](pageSize, maxPages)
}
