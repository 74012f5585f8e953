package bench

import (
	"testing"

	"github.com/mlange-42/arche/ecs"
)

func populateArche() (*ecs.World, ecs.ID, ecs.ID) {
	world := ecs.NewWorld(ecs.NewConfig().WithCapacityIncrement(1024))
	posID := ecs.ComponentID[Position](&world)
	velID := ecs.ComponentID[Velocity](&world)

	ecs.NewBuilder(&world, posID, velID).NewBatch(nPosVel)
	ecs.NewBuilder(&world, posID).NewBatch(nPos)
	return &world, posID, velID
}

func BenchmarkIterArche(b *testing.B) {
	b.StopTimer()
	world, posID, velID := populateArche()
	var filter ecs.Filter = ecs.All(posID, velID)
	b.StartTimer()

	for i := 0; i < b.N; i++ {
		query := world.Query(filter)
		for query.Next() {
			pos := (*Position)(query.Get(posID))
			vel := (*Velocity)(query.Get(velID))
			pos.X += vel.X
			pos.Y += vel.Y
		}
	}
}

func BenchmarkArcheMigrate(b *testing.B) {
	b.StopTimer()
	world, posID, velID := populateArche()
	var entities []ecs.Entity
	query := world.Query(ecs.All(posID))
	for query.Next() {
		entities = append(entities, query.Entity())
	}
	b.StartTimer()

	for i := 0; i < b.N; i++ {
		e := entities[i%len(entities)]
		if world.Has(e, velID) {
			world.Remove(e, velID)
		} else {
			world.Add(e, velID)
		}
	}
}
