package client

import (
	"sync"
	"time"

	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/util"
)

type locations struct {
	blocks []myhdfs.LocatedBlock
	expire time.Time
}

// locationBuffer caches the located blocks of files for a short while
type locationBuffer struct {
	sync.RWMutex
	namenode myhdfs.ServerAddress
	buffer   map[myhdfs.Inum]*locations
	expire   time.Duration
	shutdown chan struct{}
}

// newLocationBuffer returns a locationBuffer.
// The locationBuffer will cleanup expired items every tick.
func newLocationBuffer(namenode myhdfs.ServerAddress, expire, tick time.Duration) *locationBuffer {
	buf := &locationBuffer{
		namenode: namenode,
		buffer:   make(map[myhdfs.Inum]*locations),
		expire:   expire,
		shutdown: make(chan struct{}),
	}

	// cleanup
	go func() {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-buf.shutdown:
				return
			case <-ticker.C:
			}
			now := time.Now()
			buf.Lock()
			for inum, item := range buf.buffer {
				if item.expire.Before(now) {
					delete(buf.buffer, inum)
				}
			}
			buf.Unlock()
		}
	}()

	return buf
}

// Get returns the located blocks of inum, asking the namenode if they are not cached.
func (buf *locationBuffer) Get(inum myhdfs.Inum) ([]myhdfs.LocatedBlock, error) {
	buf.Lock()
	defer buf.Unlock()
	item, ok := buf.buffer[inum]
	if ok && item.expire.After(time.Now()) {
		return item.blocks, nil
	}

	reply, err := util.GetBlockLocationsCall(buf.namenode, &myhdfs.GetBlockLocationsArg{Inum: inum})
	if err != nil {
		return nil, err
	}
	if err := myhdfs.NewError(reply.ErrorCode, reply.Err); err != nil {
		return nil, err
	}
	buf.buffer[inum] = &locations{blocks: reply.Blocks, expire: time.Now().Add(buf.expire)}
	return reply.Blocks, nil
}

// Invalidate drops the cached blocks of inum.
func (buf *locationBuffer) Invalidate(inum myhdfs.Inum) {
	buf.Lock()
	defer buf.Unlock()
	delete(buf.buffer, inum)
}

func (buf *locationBuffer) Stop() {
	close(buf.shutdown)
}
