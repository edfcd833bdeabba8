package collectionutils

import "sync"

type SafeMap[K comparable, V any] struct {
	data   map[K]V
	mutext sync.RWMutex
}

func (safeMap *SafeMap[K, V]) Store(newKey K, newValue V) {
	safeMap.mutext.Lock()
	defer safeMap.mutext.Unlock()
	safeMap.data[newKey] = newValue
}

func (safeMap *SafeMap[K, V]) Get(key K) (V, bool) {
	safeMap.mutext.RLock()
	defer safeMap.mutext.RUnlock()
	value, exists := safeMap.data[key]

	return value, exists
}

func (safeMap *SafeMap[K, V]) Delete(key K) {
	safeMap.mutext.Lock()
	defer safeMap.mutext.Unlock()
	delete(safeMap.data, key)
}

// DeleteFunc removes every entry for which del returns true.
func (safeMap *SafeMap[K, V]) DeleteFunc(del func(K, V) bool) {
	safeMap.mutext.Lock()
	defer safeMap.mutext.Unlock()
	for k, v := range safeMap.data {
		if del(k, v) {
			delete(safeMap.data, k)
		}
	}
}

func (safeMap *SafeMap[K, V]) Clear() {
	safeMap.mutext.Lock()
	defer safeMap.mutext.Unlock()
	clear(safeMap.data)
}

func (safeMap *SafeMap[K, V]) Len() int {
	safeMap.mutext.RLock()
	defer safeMap.mutext.RUnlock()
	return len(safeMap.data)
}

func New[K comparable, V any]() *SafeMap[K, V] {
	return &SafeMap[K, V]{
		data: make(map[K]V),
	}
}
