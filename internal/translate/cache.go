package translate

import (
	"encoding/binary"
	"strings"
)

// Cache keeps translators for recently used keys, evicting the least
// recently used one beyond its limit.
//
// Cache is not safe for concurrent use; each emission stage owns one.
type Cache struct {
	entries map[string]*cacheNode
	lru     lruList
	limit   int

	hits, misses int
}

// cacheNode is both the map value and a node of the LRU list.
type cacheNode struct {
	id         string
	tr         *Translator
	prev, next *cacheNode
}

// CacheStats reports cache usage.
type CacheStats struct {
	Len    int
	Hits   int
	Misses int
}

// NewCache returns a cache holding at most limit translators. A limit of
// 0 means unlimited.
func NewCache(limit int) *Cache {
	return &Cache{entries: make(map[string]*cacheNode), limit: limit}
}

// Get returns the translator for key, creating it on a miss.
func (c *Cache) Get(key Key) *Translator {
	id := key.id()
	if n, ok := c.entries[id]; ok {
		c.hits++
		c.lru.moveToFront(n)
		return n.tr
	}
	c.misses++
	n := &cacheNode{id: id, tr: New(key)}
	c.entries[id] = n
	c.lru.pushFront(n)
	if c.limit > 0 && len(c.entries) > c.limit {
		old := c.lru.removeOldest()
		delete(c.entries, old.id)
	}
	return n.tr
}

// Len returns the number of cached translators.
func (c *Cache) Len() int { return len(c.entries) }

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	return CacheStats{Len: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// Clear drops every translator.
func (c *Cache) Clear() {
	c.entries = make(map[string]*cacheNode)
	c.lru = lruList{}
}

// id packs the key into a comparable string.
func (k Key) id() string {
	var b strings.Builder
	var tmp [binary.MaxVarintLen64]byte
	put := func(v int) {
		b.Write(tmp[:binary.PutVarint(tmp[:], int64(v))])
	}
	put(k.Stride)
	for _, e := range k.Elements {
		put(e.Src)
		put(int(e.Format))
		put(e.Offset)
		if e.PointSize {
			b.WriteByte(1)
		} else {
			b.WriteByte(0)
		}
	}
	return b.String()
}

// lruList is a doubly-linked list with the most recently used node at
// the head.
type lruList struct {
	head, tail *cacheNode
}

func (l *lruList) pushFront(n *cacheNode) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *lruList) moveToFront(n *cacheNode) {
	if n == l.head {
		return
	}
	l.unlink(n)
	l.pushFront(n)
}

func (l *lruList) removeOldest() *cacheNode {
	n := l.tail
	if n != nil {
		l.unlink(n)
	}
	return n
}

func (l *lruList) unlink(n *cacheNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
}
