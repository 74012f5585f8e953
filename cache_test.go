package depot

import (
	"fmt"
	"testing"

	testing_util "github.com/TheBitDrifter/util/testing"
)

// TestCacheBasicOperations tests the basic operations of the SimpleCache
func TestCacheBasicOperations(t *testing.T) {
	const capacity = 10
	cache := FactoryNewCache[string](capacity)

	items := []string{"item1", "item2", "item3", "item4", "item5"}
	for i, item := range items {
		index, err := cache.Register(item, item)
		if err != nil {
			t.Fatalf("Failed to register item %s: %v", item, err)
		}
		if index != i {
			t.Errorf("Index for item %s is %d, expected %d", item, index, i)
		}
	}

	for i, item := range items {
		index, found := cache.GetIndex(item)
		if !found || index != i {
			t.Errorf("GetIndex(%s) = %d, %v; expected %d", item, index, found, i)
		}
		if got := *cache.GetItem(i); got != item {
			t.Errorf("Item at index %d is %s, expected %s", i, got, item)
		}
		if got := *cache.GetItem32(uint32(i)); got != item {
			t.Errorf("Item at uint32 index %d is %s, expected %s", i, got, item)
		}
	}

	if _, found := cache.GetIndex("nonexistent"); found {
		t.Errorf("Found non-existent item in cache")
	}

	*cache.GetItem(0) = "updated"
	if got := *cache.GetItem(0); got != "updated" {
		t.Errorf("Write through GetItem lost: %s", got)
	}
}

func TestCacheCapacity(t *testing.T) {
	const capacity = 3
	cache := FactoryNewCache[int](capacity)
	for i := range capacity {
		if _, err := cache.Register(fmt.Sprintf("key%d", i), i); err != nil {
			t.Fatalf("Failed to register within capacity: %v", err)
		}
	}
	_, err := cache.Register("overflow", 99)
	testing_util.CheckError(t, cache.Register, err, CapacityError{})

	cache.Clear()
	if _, found := cache.GetIndex("key0"); found {
		t.Errorf("Key survived Clear")
	}
	index, err := cache.Register("fresh", 7)
	if err != nil || index != 0 {
		t.Errorf("Register after Clear = %d, %v; expected 0, nil", index, err)
	}
}
