package chat

import (
	"strconv"
	"sync"
)

// Client-minted ids are timestamps so they sort by creation time, but two
// mints can land on the same clock tick. The counters below bump a colliding
// id past the last one issued, keeping ids both ordered and unique within
// this process.
var (
	idMu          sync.Mutex
	lastSessionID int64
	lastMessageID int64
)

func nextID(now int64, last *int64) string {
	idMu.Lock()
	defer idMu.Unlock()
	if now <= *last {
		now = *last + 1
	}
	*last = now
	return strconv.FormatInt(now, 10)
}
