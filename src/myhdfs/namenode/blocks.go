package namenode

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/util"
)

// blockSet records every block ever appended through the namenode
type blockSet struct {
	sync.Mutex
	blocks map[myhdfs.BlockID]bool
}

func newBlockSet() *blockSet {
	return &blockSet{blocks: make(map[myhdfs.BlockID]bool)}
}

func (bs *blockSet) Add(bid myhdfs.BlockID) {
	bs.Lock()
	defer bs.Unlock()
	bs.blocks[bid] = true
}

// List returns the recorded blocks in ascending order.
func (bs *blockSet) List() []myhdfs.BlockID {
	bs.Lock()
	defer bs.Unlock()
	ret := make([]myhdfs.BlockID, 0, len(bs.blocks))
	for bid := range bs.blocks {
		ret = append(ret, bid)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

// GetBlockLocations converts the block list of inum into located blocks.
// Every block but the last is BlockSize long, the last one ends at the file size.
func (nn *Namenode) GetBlockLocations(inum myhdfs.Inum) ([]myhdfs.LocatedBlock, error) {
	ids, err := nn.ec.GetBlockIDs(inum)
	if err != nil {
		return nil, err
	}
	attr, err := nn.ec.GetAttr(inum)
	if err != nil {
		return nil, err
	}
	nn.logger.Debugf("get block locations: inode %v, %v blocks", inum, len(ids))

	alive := nn.dm.Alive()
	size := uint64(attr.Size)
	blocks := make([]myhdfs.LocatedBlock, 0, len(ids))
	for i, bid := range ids {
		offset := uint64(i) * myhdfs.BlockSize
		length := uint64(myhdfs.BlockSize)
		if i == len(ids)-1 {
			length = 0
			if size > offset {
				length = min(size-offset, myhdfs.BlockSize)
			}
		}
		blocks = append(blocks, myhdfs.LocatedBlock{
			BlockID:   bid,
			Offset:    offset,
			Length:    length,
			Locations: alive,
		})
	}
	return blocks, nil
}

// AppendBlock adds a block to the end of inum. The block starts at the old
// file size and is remembered so that later datanodes get a copy of it.
func (nn *Namenode) AppendBlock(inum myhdfs.Inum) (myhdfs.LocatedBlock, error) {
	attr, err := nn.ec.GetAttr(inum)
	if err != nil {
		return myhdfs.LocatedBlock{}, err
	}
	bid, err := nn.ec.AppendBlock(inum)
	if err != nil {
		return myhdfs.LocatedBlock{}, err
	}
	nn.written.Add(bid)

	length := uint64(attr.Size % myhdfs.BlockSize)
	if length == 0 {
		length = myhdfs.BlockSize
	}
	nn.logger.Debugf("append block: block %v to inode %v", bid, inum)
	return myhdfs.LocatedBlock{
		BlockID:   bid,
		Offset:    uint64(attr.Size),
		Length:    length,
		Locations: nn.dm.Alive(),
	}, nil
}

// Complete sets the final size of inum and unlocks it.
// The lock stays held if the size could not be set.
func (nn *Namenode) Complete(inum myhdfs.Inum, size uint32) (bool, error) {
	nn.logger.Debugf("complete: inode %v with size %v", inum, size)
	if err := nn.ec.Complete(inum, size); err != nil {
		return false, err
	}
	if err := nn.lc.Release(inum); err != nil {
		nn.logger.Warnf("complete: release inode %v: %v", inum, err)
	}
	return true, nil
}

func (nn *Namenode) DatanodeHeartbeat(id myhdfs.DatanodeID) {
	nn.dm.Heartbeat(id)
}

// GetDatanodes lists the alive datanodes.
func (nn *Namenode) GetDatanodes() []myhdfs.DatanodeID {
	return nn.dm.Alive()
}

// RegisterDatanode copies every block ever appended from the master datanode
// to id, then adds id to the alive datanodes. With async replication id is
// added first and the copy runs in background.
func (nn *Namenode) RegisterDatanode(id myhdfs.DatanodeID) error {
	master, ok := nn.dm.Master()
	if !ok || master == id {
		nn.dm.Register(id)
		return nil
	}
	if nn.async {
		nn.dm.Register(id)
		go func() {
			if err := nn.replicateAll(master, id); err != nil {
				nn.logger.Error("background replication error ", err)
			}
		}()
		return nil
	}
	if err := nn.replicateAll(master, id); err != nil {
		return err
	}
	nn.dm.Register(id)
	return nil
}

func (nn *Namenode) replicateAll(from, to myhdfs.DatanodeID) error {
	blocks := nn.written.List()
	nn.logger.Infof("replicate %v blocks from %v to %v", len(blocks), from.Address().ToString(), to.Address().ToString())
	for _, bid := range blocks {
		if err := nn.replicate(bid, from, to); err != nil {
			return fmt.Errorf("replicate block %v: %w", bid, err)
		}
	}
	return nil
}

// replicateBlock reads the whole block from one datanode and writes it to another
func (nn *Namenode) replicateBlock(bid myhdfs.BlockID, from, to myhdfs.DatanodeID) error {
	r, err := util.ReadBlockCall(from.Address(), &myhdfs.ReadBlockArg{BlockID: bid, Offset: 0, Length: myhdfs.BlockSize})
	if err != nil {
		return err
	}
	if err := myhdfs.NewError(r.ErrorCode, r.Err); err != nil {
		return err
	}
	w, err := util.WriteBlockCall(to.Address(), &myhdfs.WriteBlockArg{BlockID: bid, Offset: 0, Length: uint64(len(r.Data)), Data: r.Data})
	if err != nil {
		return err
	}
	return myhdfs.NewError(w.ErrorCode, w.Err)
}
