package lock

import (
	"sync"

	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	log "github.com/sirupsen/logrus"
)

var ErrNotHeld = myhdfs.Error{Code: myhdfs.InvalidArgument, Err: "lock not held"}

// Manager hands out one exclusive lock per inode number.
// Acquire blocks while another holder owns the inode.
type Manager struct {
	mu   sync.Mutex
	cond *sync.Cond
	held map[myhdfs.Inum]bool
}

func NewManager() *Manager {
	lm := &Manager{held: make(map[myhdfs.Inum]bool)}
	lm.cond = sync.NewCond(&lm.mu)
	return lm
}

func (lm *Manager) Acquire(inum myhdfs.Inum) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for lm.held[inum] {
		lm.cond.Wait()
	}
	lm.held[inum] = true
	log.Debugf("lock: inode %v acquired", inum)
	return nil
}

func (lm *Manager) Release(inum myhdfs.Inum) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if !lm.held[inum] {
		log.Warnf("lock: release of inode %v which is not held", inum)
		return ErrNotHeld
	}
	delete(lm.held, inum)
	lm.cond.Broadcast()
	log.Debugf("lock: inode %v released", inum)
	return nil
}

// Held reports whether inum is currently locked.
func (lm *Manager) Held(inum myhdfs.Inum) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.held[inum]
}
