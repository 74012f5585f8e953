package depot

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/TheBitDrifter/bark"
	testing_util "github.com/TheBitDrifter/util/testing"
)

func TestExecuteCoversEveryIndex(t *testing.T) {
	tests := []struct {
		name      string
		workers   int
		total     int
		chunkSize int
	}{
		{"Single worker", 1, 100, 7},
		{"More chunks than workers", 4, 1000, 16},
		{"More workers than chunks", 8, 10, 5},
		{"Chunk larger than total", 3, 10, 64},
		{"Uneven tail", 3, 101, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := Factory.NewWorkerPool(tt.workers)
			defer pool.Shutdown()

			hits := make([]int32, tt.total)
			for range 3 {
				err := pool.Execute(tt.total, tt.chunkSize, func(start, end int) {
					for i := start; i < end; i++ {
						atomic.AddInt32(&hits[i], 1)
					}
				})
				if err != nil {
					t.Fatalf("Execute failed: %v", err)
				}
			}
			for i, n := range hits {
				if n != 3 {
					t.Fatalf("Index %d visited %d times over three dispatches", i, n)
				}
			}
		})
	}
}

func TestExecuteChunkAssignment(t *testing.T) {
	const workers = 3
	pool := Factory.NewWorkerPool(workers)
	defer pool.Shutdown()

	var mu sync.Mutex
	starts := map[int]bool{}
	pool.Execute(20, 4, func(start, end int) {
		if end-start > 4 {
			t.Errorf("Chunk [%d, %d) exceeds chunk size", start, end)
		}
		mu.Lock()
		starts[start] = true
		mu.Unlock()
	})
	for k := range 5 {
		if !starts[k*4] {
			t.Errorf("Chunk starting at %d never ran", k*4)
		}
	}
}

func TestExecuteEmptyJob(t *testing.T) {
	pool := Factory.NewWorkerPool(2)
	defer pool.Shutdown()
	called := false
	if err := pool.Execute(0, 8, func(int, int) { called = true }); err != nil {
		t.Errorf("Empty job failed: %v", err)
	}
	if called {
		t.Errorf("Empty job invoked the chunk function")
	}
}

func TestWorkerPanicPropagates(t *testing.T) {
	pool := Factory.NewWorkerPool(4)
	defer pool.Shutdown()

	func() {
		defer func() {
			r := recover()
			err, ok := r.(error)
			if !ok {
				t.Fatalf("Recovered %v, want an error", r)
			}
			if _, traced := bark.GetTrace(err); !traced {
				t.Errorf("Worker panic %v carries no trace", err)
			}
		}()
		pool.Execute(64, 4, func(start, end int) {
			if start == 32 {
				panic("bad chunk")
			}
		})
		t.Errorf("Execute returned normally after a worker panic")
	}()

	var ran atomic.Int32
	if err := pool.Execute(8, 1, func(int, int) { ran.Add(1) }); err != nil {
		t.Fatalf("Pool unusable after a worker panic: %v", err)
	}
	if ran.Load() != 8 {
		t.Errorf("Ran %d chunks after recovery, want 8", ran.Load())
	}
}

func TestPoolShutdown(t *testing.T) {
	pool := Factory.NewWorkerPool(2)
	pool.Shutdown()
	pool.Shutdown()
	err := pool.Execute(10, 1, func(int, int) {})
	testing_util.CheckError(t, pool.Execute, err, PoolClosedError{})
	if !errors.Is(err, PoolClosedError{}) {
		t.Errorf("Execute after shutdown returned %v", err)
	}
}

func TestParallelForEachMatchesSerial(t *testing.T) {
	position := FactoryNewComponent[Position]()
	velocity := FactoryNewComponent[Velocity]()
	health := FactoryNewComponent[Health]()

	build := func() Storage {
		storage := Factory.NewStorage()
		for i := range 300 {
			bundle := []Value{
				position.With(Position{X: float32(i)}),
				velocity.With(Velocity{X: 1, Y: 2}),
			}
			if i%3 == 0 {
				bundle = append(bundle, health.With(Health{int32(i)}))
			}
			storage.Insert(bundle...)
		}
		storage.Prepare()
		return storage
	}
	step := func(row Row) {
		pos := position.GetMut(row)
		vel := velocity.Get(row)
		pos.X += vel.X
		pos.Y += vel.Y
	}
	snapshot := func(storage Storage) []Position {
		query, _ := storage.Query(Read(position))
		defer query.Close()
		var out []Position
		for row := range query.Rows() {
			out = append(out, *position.Get(row))
		}
		return out
	}

	serial := build()
	query, _ := serial.Query(Write(position), Read(velocity))
	query.ForEach(nil, 0, step)
	query.Close()
	want := snapshot(serial)

	tests := []struct {
		name      string
		workers   int
		chunkSize int
	}{
		{"One worker", 1, 16},
		{"Tiny chunks", 4, 1},
		{"Default chunk size", 4, 0},
		{"Huge chunks", 2, 1 << 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := Factory.NewWorkerPool(tt.workers)
			defer pool.Shutdown()

			storage := build()
			query, err := storage.Query(Write(position), Read(velocity))
			if err != nil {
				t.Fatalf("Failed to compile query: %v", err)
			}
			var visited atomic.Int32
			err = query.ForEach(pool, tt.chunkSize, func(row Row) {
				visited.Add(1)
				step(row)
			})
			query.Close()
			if err != nil {
				t.Fatalf("ForEach failed: %v", err)
			}
			if visited.Load() != 300 {
				t.Errorf("Visited %d rows, want 300", visited.Load())
			}
			if got := snapshot(storage); !slices.Equal(got, want) {
				t.Errorf("Parallel result differs from serial result")
			}
		})
	}
}

func TestParallelForEachHonorsFilter(t *testing.T) {
	health := FactoryNewComponent[Health]()
	storage := Factory.NewStorage()
	entities, _ := storage.NewEntities(100, health.With(Health{100}))
	storage.Prepare()

	query, _ := storage.Query(Write(health))
	for row := range query.Rows() {
		if row.Entity().Index()%4 == 0 {
			health.GetMut(row).Value = 10
		}
	}
	query.Close()

	pool := Factory.NewWorkerPool(3)
	defer pool.Shutdown()

	low := FactoryNewAppendBuffer[Entity](8, 8)
	query, _ = storage.QueryWith(Modified(health), Read(health))
	err := query.ForEach(pool, 7, func(row Row) {
		low.Push(row.Entity())
	})
	query.Close()
	if err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}

	if low.Len() != 25 {
		t.Fatalf("Collected %d modified entities, want 25", low.Len())
	}
	collected := map[Entity]bool{}
	for _, e := range low.All() {
		if collected[e] {
			t.Errorf("Entity %v collected twice", e)
		}
		collected[e] = true
	}
	for _, e := range entities {
		if e.Index()%4 == 0 && !collected[e] {
			t.Errorf("Modified entity %v missing", e)
		}
	}
}

func TestAppendBufferConcurrentPush(t *testing.T) {
	buf := NewAppendBuffer[int](16, 64)
	pool := Factory.NewWorkerPool(4)
	defer pool.Shutdown()

	pool.Execute(1000, 10, func(start, end int) {
		for i := start; i < end; i++ {
			buf.Push(i)
		}
	})
	if buf.Len() != 1000 {
		t.Fatalf("Len %d, want 1000", buf.Len())
	}
	seen := make([]bool, 1000)
	for _, v := range buf.All() {
		if seen[v] {
			t.Errorf("Value %d stored twice", v)
		}
		seen[v] = true
	}

	buf.Reset()
	if buf.Len() != 0 {
		t.Errorf("Len %d after reset", buf.Len())
	}
	if idx := buf.Push(42); idx != 0 || buf.At(0) != 42 {
		t.Errorf("Push after reset landed at %d", idx)
	}
}

func TestAppendBufferCapacity(t *testing.T) {
	buf := NewAppendBuffer[string](2, 2)
	for i := range buf.Cap() {
		buf.Push(string(rune('a' + i)))
	}
	mustPanic(t, "Push past capacity", func() { buf.Push("overflow") })
	if buf.Len() != 4 {
		t.Errorf("Len %d after overflow, want capacity 4", buf.Len())
	}
	mustPanic(t, "At out of range", func() { buf.At(4) })
}

func TestExecuteRejectsNestedDispatch(t *testing.T) {
	pool := Factory.NewWorkerPool(2)
	defer pool.Shutdown()

	nested := make([]error, 4)
	err := pool.Execute(len(nested), 1, func(start, end int) {
		nested[start] = pool.Execute(2, 1, func(int, int) {})
	})
	if err != nil {
		t.Fatalf("Outer Execute failed: %v", err)
	}
	for i, err := range nested {
		if !errors.Is(err, PoolBusyError{}) {
			t.Errorf("Nested Execute in chunk %d returned %v, want PoolBusyError", i, err)
		}
	}

	health := FactoryNewComponent[Health]()
	storage := Factory.NewStorage()
	storage.NewEntities(8, health.With(Health{}))
	query, _ := storage.Query(Read(health))
	defer query.Close()
	var inner error
	var once sync.Once
	err = query.ForEach(pool, 4, func(row Row) {
		if innerErr := query.ForEach(pool, 4, func(Row) {}); innerErr != nil {
			once.Do(func() { inner = innerErr })
		}
	})
	if err != nil {
		t.Fatalf("Outer ForEach failed: %v", err)
	}
	testing_util.CheckError(t, query.ForEach, inner, PoolBusyError{})

	var ran atomic.Int32
	if err := pool.Execute(4, 1, func(int, int) { ran.Add(1) }); err != nil || ran.Load() != 4 {
		t.Errorf("Pool unusable after a rejected nested dispatch: %v, ran %d", err, ran.Load())
	}
}
