package main

import (
	"math/rand"

	"github.com/TheBitDrifter/depot"
)

const (
	arenaSize  = 1024
	maxHealth  = 100
	bufferPage = 256
)

type Position struct {
	X float32
	Y float32
}

type Velocity struct {
	X float32
	Y float32
}

type Health struct {
	Value int32
}

type tickStats struct {
	moved    int
	damaged  int
	dead     int
	replaced int
}

// simulation owns one storage and the systems run against it each tick
type simulation struct {
	storage   depot.Storage
	pool      *depot.WorkerPool
	chunkSize int
	churn     int
	rng       *rand.Rand

	position depot.AccessibleComponent[Position]
	velocity depot.AccessibleComponent[Velocity]
	health   depot.AccessibleComponent[Health]

	dead *depot.AppendBuffer[depot.Entity]
}

func newSimulation(cfg *Config, seed int64) (*simulation, error) {
	s := &simulation{
		storage:   depot.Factory.NewStorage(),
		pool:      depot.Factory.NewWorkerPool(cfg.Workers),
		chunkSize: cfg.ChunkSize,
		churn:     cfg.Churn,
		rng:       rand.New(rand.NewSource(seed)),
		position:  depot.FactoryNewComponent[Position](),
		velocity:  depot.FactoryNewComponent[Velocity](),
		health:    depot.FactoryNewComponent[Health](),
		dead:      depot.FactoryNewAppendBuffer[depot.Entity](bufferPage, cfg.Entities/bufferPage+1),
	}
	for range cfg.Entities {
		if _, err := s.storage.Insert(s.spawn()...); err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

func (s *simulation) spawn() []depot.Value {
	return []depot.Value{
		s.position.With(Position{X: s.rng.Float32() * arenaSize, Y: s.rng.Float32() * arenaSize}),
		s.velocity.With(Velocity{X: s.rng.Float32()*4 - 2, Y: s.rng.Float32()*4 - 2}),
		s.health.With(Health{Value: maxHealth}),
	}
}

func (s *simulation) step() (tickStats, error) {
	var stats tickStats
	if err := s.storage.Prepare(); err != nil {
		return stats, err
	}
	var err error
	if stats.moved, err = s.move(); err != nil {
		return stats, err
	}
	if stats.damaged, err = s.damage(); err != nil {
		return stats, err
	}
	stats.dead, stats.replaced, err = s.replaceDead()
	return stats, err
}

// move integrates velocity over the pool, wrapping at the arena edge
func (s *simulation) move() (int, error) {
	query, err := s.storage.Query(depot.Write(s.position), depot.Read(s.velocity))
	if err != nil {
		return 0, err
	}
	defer query.Close()
	err = query.ForEach(s.pool, s.chunkSize, func(row depot.Row) {
		pos := s.position.GetMut(row)
		vel := s.velocity.Get(row)
		pos.X = wrap(pos.X + vel.X)
		pos.Y = wrap(pos.Y + vel.Y)
	})
	return query.Count(), err
}

// damage hurts a random subset of entities; the rng keeps it on this goroutine
func (s *simulation) damage() (int, error) {
	query, err := s.storage.Query(depot.Write(s.health), depot.Read(s.position))
	if err != nil {
		return 0, err
	}
	defer query.Close()
	damaged := 0
	for row := range query.Rows() {
		pos := s.position.Get(row)
		if pos.X < arenaSize/8 || s.rng.Intn(16) == 0 {
			s.health.GetMut(row).Value -= int32(1 + s.rng.Intn(20))
			damaged++
		}
	}
	return damaged, nil
}

// replaceDead collects dead entities from the workers, then swaps up to churn of
// them for fresh spawns through the deferred queue
func (s *simulation) replaceDead() (dead, replaced int, err error) {
	s.dead.Reset()
	query, err := s.storage.QueryWith(depot.Modified(s.health), depot.Read(s.health))
	if err != nil {
		return 0, 0, err
	}
	err = query.ForEach(s.pool, s.chunkSize, func(row depot.Row) {
		if s.health.Get(row).Value <= 0 {
			s.dead.Push(row.Entity())
		}
	})
	if err != nil {
		query.Close()
		return 0, 0, err
	}

	victims := make([]depot.Entity, 0, min(s.dead.Len(), s.churn))
	for _, e := range s.dead.All() {
		if len(victims) == s.churn {
			break
		}
		victims = append(victims, e)
	}
	if err := s.storage.EnqueueRemove(victims...); err != nil {
		query.Close()
		return 0, 0, err
	}
	for range victims {
		if err := s.storage.EnqueueInsert(s.spawn()...); err != nil {
			query.Close()
			return 0, 0, err
		}
	}
	query.Close()
	return s.dead.Len(), len(victims), nil
}

func (s *simulation) close() {
	s.pool.Shutdown()
}

func wrap(v float32) float32 {
	switch {
	case v < 0:
		return v + arenaSize
	case v >= arenaSize:
		return v - arenaSize
	}
	return v
}
