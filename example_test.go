package depot_test

import (
	"fmt"

	"github.com/TheBitDrifter/depot"
)

// Position is a simple component for 2D coordinates
type Position struct {
	X float64
	Y float64
}

// Velocity is a simple component for 2D movement
type Velocity struct {
	X float64
	Y float64
}

// Name is a simple component for entity identification
type Name struct {
	Value string
}

// Example shows basic depot usage with entity creation and queries
func Example_basic() {
	storage := depot.Factory.NewStorage()

	position := depot.FactoryNewComponent[Position]()
	velocity := depot.FactoryNewComponent[Velocity]()
	name := depot.FactoryNewComponent[Name]()

	storage.NewEntities(5, position.With(Position{}))
	storage.NewEntities(3, position.With(Position{}), velocity.With(Velocity{}))
	storage.Insert(
		position.With(Position{X: 10, Y: 20}),
		velocity.With(Velocity{X: 1, Y: 2}),
		name.With(Name{"Player"}),
	)

	query, _ := storage.Query(depot.Read(position), depot.Read(velocity))
	fmt.Printf("Found %d entities with position and velocity\n", query.Count())
	query.Close()

	query, _ = storage.Query(depot.Write(position), depot.Read(velocity), depot.Read(name))
	cursor := depot.Factory.NewCursor(query)
	for cursor.Next() {
		pos := position.GetMutFromCursor(cursor)
		vel := velocity.GetFromCursor(cursor)
		nme := name.GetFromCursor(cursor)

		pos.X += vel.X
		pos.Y += vel.Y

		fmt.Printf("Updated %s to position (%.1f, %.1f)\n", nme.Value, pos.X, pos.Y)
	}
	query.Close()

	// Output:
	// Found 4 entities with position and velocity
	// Updated Player to position (11.0, 22.0)
}

// Example_queries shows how filters narrow a query
func Example_queries() {
	storage := depot.Factory.NewStorage()

	position := depot.FactoryNewComponent[Position]()
	velocity := depot.FactoryNewComponent[Velocity]()
	name := depot.FactoryNewComponent[Name]()

	storage.NewEntities(3, position.With(Position{}))
	storage.NewEntities(3, position.With(Position{}), velocity.With(Velocity{}))
	storage.NewEntities(3, position.With(Position{}), name.With(Name{}))
	storage.NewEntities(3, position.With(Position{}), velocity.With(Velocity{}), name.With(Name{}))

	count := func(filter depot.Filter, layout ...depot.Access) int {
		query, _ := storage.QueryWith(filter, layout...)
		defer query.Close()
		return query.Count()
	}

	fmt.Printf("AND query matched %d entities\n", count(depot.And(depot.Contains(position), depot.Contains(velocity))))
	fmt.Printf("OR query matched %d entities\n", count(depot.Or(depot.Contains(velocity), depot.Contains(name))))
	fmt.Printf("NOT query matched %d entities\n", count(depot.Not(depot.Contains(velocity)), depot.Read(position)))

	// Output:
	// AND query matched 6 entities
	// OR query matched 9 entities
	// NOT query matched 6 entities
}

// Example_changeTracking shows how the Added and Modified filters see one tick of changes
func Example_changeTracking() {
	storage := depot.Factory.NewStorage()
	position := depot.FactoryNewComponent[Position]()

	entities, _ := storage.NewEntities(4, position.With(Position{}))
	storage.Prepare()

	view, _ := storage.Entry(entities[2])
	pos, _ := position.GetMutFromEntry(view)
	pos.X = 5

	storage.Insert(position.With(Position{}))

	added, _ := storage.QueryWith(depot.Added(position), depot.Read(position))
	modified, _ := storage.QueryWith(depot.Modified(position), depot.Read(position))
	fmt.Printf("added %d, modified %d\n", added.Count(), modified.Count())
	added.Close()
	modified.Close()

	storage.Prepare()
	added, _ = storage.QueryWith(depot.Added(position), depot.Read(position))
	fmt.Printf("added after prepare %d\n", added.Count())
	added.Close()

	// Output:
	// added 1, modified 1
	// added after prepare 0
}

// Example_parallel shows a ForEach fanned out over a worker pool with deferred removals
func Example_parallel() {
	storage := depot.Factory.NewStorage()
	position := depot.FactoryNewComponent[Position]()
	velocity := depot.FactoryNewComponent[Velocity]()

	storage.NewEntities(1000, position.With(Position{}), velocity.With(Velocity{X: 1}))

	pool := depot.Factory.NewWorkerPool(4)
	defer pool.Shutdown()

	query, _ := storage.Query(depot.Write(position), depot.Read(velocity))
	query.ForEach(pool, 64, func(row depot.Row) {
		position.GetMut(row).X += velocity.Get(row).X
	})

	var doomed []depot.Entity
	for row := range query.Rows() {
		if row.Entity().Index()%2 == 0 {
			doomed = append(doomed, row.Entity())
		}
	}
	storage.EnqueueRemove(doomed...)
	fmt.Printf("entities while locked %d\n", storage.Len())
	query.Close()
	fmt.Printf("entities after close %d\n", storage.Len())

	// Output:
	// entities while locked 1000
	// entities after close 500
}
