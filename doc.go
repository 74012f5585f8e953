/*
Package depot provides archetype-based entity and component storage for real-time simulations.

Entities sharing the same set of component types live together in one archetype, stored column by
column. Attaching or detaching a component migrates the entity's row to the archetype of its new
component set. Every column keeps per-row change flags so systems can visit only rows that were
added or modified since the last tick.

Core Concepts:

  - Entity: a generational (index, generation) handle. Stale handles are always rejected.
  - Component: a registered data type owning one bit of a Mask.
  - Archetype: the rows of every entity with one exact Mask.
  - Query: a layout of Read/Write accesses plus an optional Filter. An open query borrows its
    components and freezes the storage's structure until it is closed.
  - WorkerPool: fixed goroutines used by Query.ForEach to process row chunks in parallel.

Basic Usage:

	storage := depot.Factory.NewStorage()

	position := depot.FactoryNewComponent[Position]()
	velocity := depot.FactoryNewComponent[Velocity]()

	storage.NewEntities(100, position.With(Position{}), velocity.With(Velocity{X: 1}))

	storage.Prepare()
	query, _ := storage.Query(depot.Write(position), depot.Read(velocity))
	for row := range query.Rows() {
		pos := position.GetMut(row)
		vel := velocity.Get(row)
		pos.X += vel.X
		pos.Y += vel.Y
	}
	query.Close()

Structural changes requested while a query is open go through the Enqueue methods and are applied
when the last query closes.
*/
package depot
