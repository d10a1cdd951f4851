package disk

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	log "github.com/sirupsen/logrus"
)

type Superblock struct {
	Size    uint32 // size of the whole disk
	NBlocks uint32 // number of blocks
	NInodes uint32 // number of inodes
}

// BlockManager hands out data blocks and does bounds-checked block I/O.
//
// The layout of the disk:
// |<-sb->|<-free block bitmap->|<-inode table->|<-data->|
// |1block|2+8+1 blocks         |512 blocks     |remain  |
// Block b is in use iff bit b%BPB of block BBlock(b) is set.
type BlockManager struct {
	mu sync.Mutex
	d  *Disk
	sb Superblock

	// no free data block below hint
	hint myhdfs.BlockID
}

// NewBlockManager formats a fresh disk.
func NewBlockManager() *BlockManager {
	bm := &BlockManager{
		d:    NewDisk(),
		hint: myhdfs.FirstDataBlock,
		sb:   Superblock{
			Size:    myhdfs.BlockSize * myhdfs.BlockNum,
			NBlocks: myhdfs.BlockNum,
			NInodes: myhdfs.InodeNum,
		},
	}
	bm.writeSuperblock()
	// metadata region is never handed out
	for id := myhdfs.BlockID(0); id < myhdfs.FirstDataBlock; id++ {
		bm.setUsed(id, true)
	}
	return bm
}

// OpenBlockManager mounts a disk that was formatted by NewBlockManager.
func OpenBlockManager(d *Disk) (*BlockManager, error) {
	bm := &BlockManager{d: d, hint: myhdfs.FirstDataBlock}
	b := d.block(0)
	bm.sb = Superblock{
		Size:    binary.LittleEndian.Uint32(b[0:4]),
		NBlocks: binary.LittleEndian.Uint32(b[4:8]),
		NInodes: binary.LittleEndian.Uint32(b[8:12]),
	}
	if bm.sb.NBlocks != myhdfs.BlockNum || bm.sb.NInodes != myhdfs.InodeNum {
		return nil, fmt.Errorf("bad superblock %+v", bm.sb)
	}
	return bm, nil
}

func (bm *BlockManager) Superblock() Superblock {
	return bm.sb
}

// Disk returns the underlying disk.
func (bm *BlockManager) Disk() *Disk {
	return bm.d
}

// Image snapshots the whole disk.
func (bm *BlockManager) Image() []byte {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.d.Image()
}

func (bm *BlockManager) writeSuperblock() {
	b := bm.d.block(0)
	binary.LittleEndian.PutUint32(b[0:4], bm.sb.Size)
	binary.LittleEndian.PutUint32(b[4:8], bm.sb.NBlocks)
	binary.LittleEndian.PutUint32(b[8:12], bm.sb.NInodes)
}

func (bm *BlockManager) bit(id myhdfs.BlockID) (*byte, byte) {
	b := bm.d.block(myhdfs.BBlock(id))
	off := id % myhdfs.BPB
	return &b[off/8], 1 << (off % 8)
}

func (bm *BlockManager) used(id myhdfs.BlockID) bool {
	p, mask := bm.bit(id)
	return *p&mask != 0
}

func (bm *BlockManager) setUsed(id myhdfs.BlockID, used bool) {
	p, mask := bm.bit(id)
	if used {
		*p |= mask
	} else {
		*p &^= mask
	}
}

// AllocBlock allocates the first free data block.
func (bm *BlockManager) AllocBlock() (myhdfs.BlockID, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	for id := bm.hint; id < myhdfs.BlockNum; id++ {
		if !bm.used(id) {
			bm.setUsed(id, true)
			bm.hint = id + 1
			log.Debugf("alloc_block: block[%v] allocated", id)
			return id, nil
		}
	}
	bm.hint = myhdfs.BlockNum
	log.Error("alloc_block: failed to allocate block")
	return 0, myhdfs.ErrNoFreeBlock
}

// FreeBlock releases a data block. Freeing a free block is a no-op.
func (bm *BlockManager) FreeBlock(id myhdfs.BlockID) error {
	if id < myhdfs.FirstDataBlock || id >= myhdfs.BlockNum {
		log.Warnf("free_block: invalid block id %v", id)
		return myhdfs.ErrInvalidBlock
	}
	bm.mu.Lock()
	defer bm.mu.Unlock()
	bm.setUsed(id, false)
	if id < bm.hint {
		bm.hint = id
	}
	log.Debugf("free_block: block[%v] freed", id)
	return nil
}

// IsUsed reports whether block id is marked in the bitmap.
func (bm *BlockManager) IsUsed(id myhdfs.BlockID) bool {
	if id >= myhdfs.BlockNum {
		return false
	}
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.used(id)
}

// UsedDataBlocks counts allocated blocks in the data region.
func (bm *BlockManager) UsedDataBlocks() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	n := 0
	for id := myhdfs.BlockID(myhdfs.FirstDataBlock); id < myhdfs.BlockNum; id++ {
		if bm.used(id) {
			n++
		}
	}
	return n
}

func (bm *BlockManager) ReadBlock(id myhdfs.BlockID, buf []byte) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.d.ReadBlock(id, buf)
}

func (bm *BlockManager) WriteBlock(id myhdfs.BlockID, buf []byte) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.d.WriteBlock(id, buf)
}
