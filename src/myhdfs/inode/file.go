package inode

import (
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/dirent"
	log "github.com/sirupsen/logrus"
)

func (im *Manager) readIndirect(id myhdfs.BlockID) (*indirect, error) {
	buf := make([]byte, myhdfs.BlockSize)
	if err := im.bm.ReadBlock(id, buf); err != nil {
		return nil, err
	}
	return decodeIndirect(buf), nil
}

// allocated reports whether id is a data block the bitmap hands out
func (im *Manager) allocated(id myhdfs.BlockID) bool {
	return id >= myhdfs.FirstDataBlock && id < myhdfs.BlockNum && im.bm.IsUsed(id)
}

// blockIDs walks the direct slots and then the indirect block, at most limit
// of them. The walk stops at the first empty slot: Complete may set a size
// past the blocks the inode really owns.
func (im *Manager) blockIDs(ino *Inode, limit int) ([]myhdfs.BlockID, error) {
	limit = min(limit, myhdfs.MaxFile)
	ids := make([]myhdfs.BlockID, 0, limit)
	for i := 0; i < limit && i < myhdfs.NDirect; i++ {
		if !im.allocated(ino.Blocks[i]) {
			return ids, nil
		}
		ids = append(ids, ino.Blocks[i])
	}
	if limit <= myhdfs.NDirect || !im.allocated(ino.Blocks[myhdfs.NDirect]) {
		return ids, nil
	}
	ind, err := im.readIndirect(ino.Blocks[myhdfs.NDirect])
	if err != nil {
		return nil, err
	}
	for _, id := range ind[:limit-myhdfs.NDirect] {
		if !im.allocated(id) {
			break
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (im *Manager) readData(ino *Inode) ([]byte, error) {
	ids, err := im.blockIDs(ino, blockCount(ino.Size))
	if err != nil {
		return nil, err
	}
	buf := make([]byte, len(ids)*myhdfs.BlockSize)
	for i, id := range ids {
		if err := im.bm.ReadBlock(id, buf[i*myhdfs.BlockSize:(i+1)*myhdfs.BlockSize]); err != nil {
			return nil, err
		}
	}
	return buf[:min(len(buf), int(ino.Size))], nil
}

// ReadFile returns the whole content of inum and updates its atime.
func (im *Manager) ReadFile(inum myhdfs.Inum) ([]byte, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	ino, err := im.getInode(inum)
	if err != nil {
		log.Warnf("read_file: failed to find inode %v", inum)
		return nil, err
	}
	data, err := im.readData(ino)
	if err != nil {
		return nil, err
	}
	ino.Atime = im.stamp()
	if err := im.putInode(inum, ino); err != nil {
		return nil, err
	}
	log.Debugf("read_file: inode %v of size %v", inum, ino.Size)
	return data, nil
}

// WriteFile replaces the content of inum, allocating or freeing blocks as needed.
func (im *Manager) WriteFile(inum myhdfs.Inum, data []byte) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	ino, err := im.getInode(inum)
	if err != nil {
		log.Warnf("write_file: failed to find inode %v", inum)
		return err
	}
	if len(data) > myhdfs.MaxFile*myhdfs.BlockSize {
		log.Errorf("write_file: %v bytes is too much data for inode %v", len(data), inum)
		return myhdfs.ErrFileTooLarge
	}
	owned, err := im.blockIDs(ino, myhdfs.MaxFile)
	if err != nil {
		return err
	}
	oldBlocks := len(owned)
	newBlocks := blockCount(uint32(len(data)))

	ind := new(indirect)
	if oldBlocks > myhdfs.NDirect {
		if ind, err = im.readIndirect(ino.Blocks[myhdfs.NDirect]); err != nil {
			return err
		}
	}

	switch {
	case oldBlocks < newBlocks:
		if err := im.grow(ino, ind, oldBlocks, newBlocks); err != nil {
			return err
		}
	case oldBlocks > newBlocks:
		if err := im.shrink(ino, ind, oldBlocks, newBlocks); err != nil {
			return err
		}
	}

	// actually write file
	for i := 0; i < newBlocks; i++ {
		var id myhdfs.BlockID
		if i < myhdfs.NDirect {
			id = ino.Blocks[i]
		} else {
			id = ind[i-myhdfs.NDirect]
		}
		end := min((i+1)*myhdfs.BlockSize, len(data))
		if err := im.bm.WriteBlock(id, data[i*myhdfs.BlockSize:end]); err != nil {
			return err
		}
	}

	ino.Size = uint32(len(data))
	ino.Mtime = im.stamp()
	log.Debugf("write_file: %v bytes written to inode %v", len(data), inum)
	return im.putInode(inum, ino)
}

// grow allocates the slots oldBlocks..newBlocks-1. The indirect block is
// allocated when the count reaches NDirect. On failure every block taken here
// is released again and ino is left unchanged.
func (im *Manager) grow(ino *Inode, ind *indirect, oldBlocks, newBlocks int) error {
	var taken []myhdfs.BlockID
	alloc := func() (myhdfs.BlockID, error) {
		id, err := im.bm.AllocBlock()
		if err == nil {
			taken = append(taken, id)
		}
		return id, err
	}
	blocks := ino.Blocks
	staged := *ind

	var err error
	for i := oldBlocks; i < newBlocks && err == nil; i++ {
		if i < myhdfs.NDirect {
			blocks[i], err = alloc()
			continue
		}
		if i == myhdfs.NDirect {
			if blocks[myhdfs.NDirect], err = alloc(); err != nil {
				break
			}
		}
		staged[i-myhdfs.NDirect], err = alloc()
	}
	if err == nil && newBlocks > myhdfs.NDirect {
		err = im.bm.WriteBlock(blocks[myhdfs.NDirect], staged.encode())
	}
	if err != nil {
		for _, id := range taken {
			im.bm.FreeBlock(id)
		}
		return err
	}
	ino.Blocks = blocks
	*ind = staged
	return nil
}

// shrink frees the slots newBlocks..oldBlocks-1 and the indirect block once it is no longer needed.
// A surviving indirect block is written back without the freed slots.
func (im *Manager) shrink(ino *Inode, ind *indirect, oldBlocks, newBlocks int) error {
	for i := newBlocks; i < oldBlocks; i++ {
		if i < myhdfs.NDirect {
			im.bm.FreeBlock(ino.Blocks[i])
			ino.Blocks[i] = 0
		} else {
			im.bm.FreeBlock(ind[i-myhdfs.NDirect])
			ind[i-myhdfs.NDirect] = 0
		}
	}
	if oldBlocks > myhdfs.NDirect && newBlocks <= myhdfs.NDirect {
		im.bm.FreeBlock(ino.Blocks[myhdfs.NDirect])
		ino.Blocks[myhdfs.NDirect] = 0
		return nil
	}
	if newBlocks > myhdfs.NDirect {
		return im.bm.WriteBlock(ino.Blocks[myhdfs.NDirect], ind.encode())
	}
	return nil
}

// AppendBlock allocates one block after the last block of inum and grows size by BlockSize.
// The block content is written later through WriteBlock.
func (im *Manager) AppendBlock(inum myhdfs.Inum) (myhdfs.BlockID, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	ino, err := im.getInode(inum)
	if err != nil {
		log.Warnf("append_block: failed to find inode %v", inum)
		return 0, err
	}
	owned, err := im.blockIDs(ino, myhdfs.MaxFile)
	if err != nil {
		return 0, err
	}
	n := len(owned)
	if n >= myhdfs.MaxFile {
		log.Errorf("append_block: inode %v already has %v blocks", inum, n)
		return 0, myhdfs.ErrFileTooLarge
	}
	bid, err := im.bm.AllocBlock()
	if err != nil {
		return 0, err
	}

	if n < myhdfs.NDirect {
		ino.Blocks[n] = bid
	} else {
		// file with indirect block
		ind := new(indirect)
		if n == myhdfs.NDirect {
			indID, err := im.bm.AllocBlock()
			if err != nil {
				im.bm.FreeBlock(bid)
				return 0, err
			}
			ino.Blocks[myhdfs.NDirect] = indID
		} else if ind, err = im.readIndirect(ino.Blocks[myhdfs.NDirect]); err != nil {
			im.bm.FreeBlock(bid)
			return 0, err
		}
		ind[n-myhdfs.NDirect] = bid
		if err := im.bm.WriteBlock(ino.Blocks[myhdfs.NDirect], ind.encode()); err != nil {
			return 0, err
		}
	}
	ino.Size += myhdfs.BlockSize
	log.Debugf("append_block: block %v appended to inode %v", bid, inum)
	return bid, im.putInode(inum, ino)
}

// GetBlockIDs lists the data blocks of inum in file order.
func (im *Manager) GetBlockIDs(inum myhdfs.Inum) ([]myhdfs.BlockID, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	ino, err := im.getInode(inum)
	if err != nil {
		return nil, err
	}
	return im.blockIDs(ino, blockCount(ino.Size))
}

// RemoveFile removes inum. A directory takes every inode below it along.
// The tree is walked with an explicit stack; an inode reached twice is
// rejected with ErrCycle and nothing is removed.
func (im *Manager) RemoveFile(inum myhdfs.Inum) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	if _, err := im.getInode(inum); err != nil {
		log.Warnf("remove_file: failed to find inode %v", inum)
		return err
	}

	var order []myhdfs.Inum
	visited := make(map[myhdfs.Inum]bool)
	stack := []myhdfs.Inum{inum}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			log.Errorf("remove_file: inode %v reached twice below %v", cur, inum)
			return myhdfs.ErrCycle
		}
		visited[cur] = true

		ino, err := im.getInode(cur)
		if err != nil {
			log.Warnf("remove_file: dangling entry to inode %v", cur)
			continue
		}
		order = append(order, cur)
		if ino.Type != myhdfs.TypeDir {
			continue
		}
		data, err := im.readData(ino)
		if err != nil {
			return err
		}
		for _, e := range dirent.Parse(data) {
			stack = append(stack, e.Inum)
		}
	}

	// children go before their parents
	for i := len(order) - 1; i >= 0; i-- {
		if err := im.removeOne(order[i]); err != nil {
			return err
		}
	}
	return nil
}

func (im *Manager) removeOne(inum myhdfs.Inum) error {
	ino, err := im.getInode(inum)
	if err != nil {
		return err
	}
	log.Debugf("remove_file: removing inode %v", inum)
	ids, err := im.blockIDs(ino, myhdfs.MaxFile)
	if err != nil {
		return err
	}
	for _, id := range ids {
		im.bm.FreeBlock(id)
	}
	if len(ids) > myhdfs.NDirect {
		im.bm.FreeBlock(ino.Blocks[myhdfs.NDirect])
	}
	return im.freeInode(inum)
}

// Complete sets the authoritative size of inum after its blocks were written out of band.
func (im *Manager) Complete(inum myhdfs.Inum, size uint32) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	ino, err := im.getInode(inum)
	if err != nil {
		log.Warnf("complete: failed to find inode %v", inum)
		return err
	}
	ino.Size = size
	return im.putInode(inum, ino)
}

// ReadBlock returns the raw content of one block.
func (im *Manager) ReadBlock(id myhdfs.BlockID) ([]byte, error) {
	buf := make([]byte, myhdfs.BlockSize)
	if err := im.bm.ReadBlock(id, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (im *Manager) WriteBlock(id myhdfs.BlockID, data []byte) error {
	return im.bm.WriteBlock(id, data)
}
