// internal/queue/item.go
package queue

import "github.com/llehouerou/wavecast/internal/catalog"

// Item is one entry of the play queue.
type Item struct {
	// QueueID is the position of the item when the queue was built.
	QueueID int64
	// MediaID is the hierarchy-aware id the item was reached through.
	MediaID string
	Track   catalog.Track
}

// IndexOfMediaID returns the index of the item with mediaID, or -1.
func IndexOfMediaID(items []Item, mediaID string) int {
	for i, it := range items {
		if it.MediaID == mediaID {
			return i
		}
	}
	return -1
}

// IndexOfQueueID returns the index of the item with queueID, or -1.
func IndexOfQueueID(items []Item, queueID int64) int {
	for i, it := range items {
		if it.QueueID == queueID {
			return i
		}
	}
	return -1
}

// IsIndexPlayable reports whether index designates an item of items.
func IsIndexPlayable(index int, items []Item) bool {
	return index >= 0 && index < len(items)
}

// Equal reports whether two queues hold the same items in the same order.
func Equal(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].QueueID != b[i].QueueID || a[i].MediaID != b[i].MediaID {
			return false
		}
	}
	return true
}
