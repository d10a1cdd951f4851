package inode

import (
	"fmt"
	"sync"
	"time"

	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/disk"
	log "github.com/sirupsen/logrus"
)

// Manager owns the inode table and the file operations built on it.
// Every exported method holds mu for its whole duration.
type Manager struct {
	mu  sync.Mutex
	bm  *disk.BlockManager
	now func() time.Time
}

// NewManager formats a new disk and creates the root directory as inode 1.
func NewManager() (*Manager, error) {
	im := &Manager{bm: disk.NewBlockManager(), now: time.Now}
	root, err := im.AllocInode(myhdfs.TypeDir)
	if err != nil {
		return nil, err
	}
	if root != myhdfs.RootInum {
		return nil, fmt.Errorf("root directory allocated as inode %v, should be %v", root, myhdfs.RootInum)
	}
	return im, nil
}

// OpenManager mounts an already formatted disk.
func OpenManager(bm *disk.BlockManager) (*Manager, error) {
	im := &Manager{bm: bm, now: time.Now}
	if _, err := im.getInode(myhdfs.RootInum); err != nil {
		return nil, fmt.Errorf("root directory missing: %w", err)
	}
	return im, nil
}

func (im *Manager) BlockManager() *disk.BlockManager {
	return im.bm
}

func (im *Manager) stamp() uint32 {
	return uint32(im.now().Unix())
}

func validInum(inum myhdfs.Inum) bool {
	return inum >= 1 && inum <= myhdfs.InodeNum
}

// slot returns the inode table block holding inum and the byte offset inside it
func (im *Manager) slot(inum myhdfs.Inum) (myhdfs.BlockID, int) {
	return myhdfs.IBlock(inum, im.bm.Superblock().NBlocks), int((inum-1)%myhdfs.IPB) * inodeSize
}

// rawInode loads an inode slot, free or not
func (im *Manager) rawInode(inum myhdfs.Inum) (*Inode, error) {
	if !validInum(inum) {
		log.Warnf("get_inode: inum %v out of range", inum)
		return nil, myhdfs.ErrInvalidInum
	}
	bid, off := im.slot(inum)
	buf := make([]byte, myhdfs.BlockSize)
	if err := im.bm.ReadBlock(bid, buf); err != nil {
		return nil, err
	}
	return decodeInode(buf[off : off+inodeSize]), nil
}

// getInode returns the inode, ErrNotFound if the slot is free.
func (im *Manager) getInode(inum myhdfs.Inum) (*Inode, error) {
	ino, err := im.rawInode(inum)
	if err != nil {
		return nil, err
	}
	if ino.Type == myhdfs.TypeFree {
		log.Debugf("get_inode: inode %v not exist", inum)
		return nil, myhdfs.ErrNotFound
	}
	return ino, nil
}

// putInode stamps ctime and persists ino.
func (im *Manager) putInode(inum myhdfs.Inum, ino *Inode) error {
	if !validInum(inum) {
		return myhdfs.ErrInvalidInum
	}
	ino.Ctime = im.stamp()
	bid, off := im.slot(inum)
	buf := make([]byte, myhdfs.BlockSize)
	if err := im.bm.ReadBlock(bid, buf); err != nil {
		return err
	}
	ino.encode(buf[off : off+inodeSize])
	return im.bm.WriteBlock(bid, buf)
}

// AllocInode takes the first free inode slot.
func (im *Manager) AllocInode(t myhdfs.InodeType) (myhdfs.Inum, error) {
	if t == myhdfs.TypeFree || t > myhdfs.TypeSymlink {
		return 0, myhdfs.ErrBadType
	}
	im.mu.Lock()
	defer im.mu.Unlock()

	for i := myhdfs.Inum(1); i <= myhdfs.InodeNum; i++ {
		ino, err := im.rawInode(i)
		if err != nil {
			return 0, err
		}
		if ino.Type != myhdfs.TypeFree {
			continue
		}
		current := im.stamp()
		ino = &Inode{Type: t, Atime: current, Mtime: current, Ctime: current}
		if err := im.putInode(i, ino); err != nil {
			return 0, err
		}
		log.Debugf("alloc_inode: inode %v allocated as %v", i, t)
		return i, nil
	}
	log.Error("alloc_inode: failed to allocate inode")
	return 0, myhdfs.ErrNoFreeInode
}

// FreeInode marks the slot free. The data blocks are left to the caller.
func (im *Manager) FreeInode(inum myhdfs.Inum) error {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.freeInode(inum)
}

func (im *Manager) freeInode(inum myhdfs.Inum) error {
	ino, err := im.getInode(inum)
	if err != nil {
		log.Warnf("free_inode: failed to find inode %v", inum)
		return err
	}
	ino.Type = myhdfs.TypeFree
	return im.putInode(inum, ino)
}

// GetInode returns a copy of the inode.
func (im *Manager) GetInode(inum myhdfs.Inum) (*Inode, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.getInode(inum)
}

func (im *Manager) GetAttr(inum myhdfs.Inum) (myhdfs.Attr, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	ino, err := im.getInode(inum)
	if err != nil {
		return myhdfs.Attr{}, err
	}
	return ino.Attr(), nil
}
