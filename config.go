package depot

// Config holds package-wide settings read when a storage or pool is created
var Config config = config{
	matchCacheCapacity: 256,
	prefabCapacity:     1024,
	defaultChunkSize:   64,
}

type config struct {
	events             StorageEvents
	matchCacheCapacity int
	prefabCapacity     int
	defaultChunkSize   int
}

// SetStorageEvents configures the structural callbacks of storages created afterwards
func (c *config) SetStorageEvents(events StorageEvents) {
	c.events = events
}

// SetMatchCacheCapacity bounds how many query masks a storage memoizes
func (c *config) SetMatchCacheCapacity(n int) {
	if n > 0 {
		c.matchCacheCapacity = n
	}
}

// SetPrefabCapacity bounds how many named prefabs a storage keeps
func (c *config) SetPrefabCapacity(n int) {
	if n > 0 {
		c.prefabCapacity = n
	}
}

// SetDefaultChunkSize sets the chunk size used when ForEach or Execute receives zero
func (c *config) SetDefaultChunkSize(n int) {
	if n > 0 {
		c.defaultChunkSize = n
	}
}

func (c config) DefaultChunkSize() int {
	return c.defaultChunkSize
}
