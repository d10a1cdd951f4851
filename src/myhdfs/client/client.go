package client

import (
	"fmt"

	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/util"
	log "github.com/sirupsen/logrus"
)

// Client is the client-side driver: metadata goes to the namenode,
// file content goes straight to the datanodes.
type Client struct {
	namenode myhdfs.ServerAddress
	locBuf   *locationBuffer
}

// NewClient returns a new client. Close stops its background cleanup.
func NewClient(namenode myhdfs.ServerAddress) *Client {
	return &Client{
		namenode: namenode,
		locBuf:   newLocationBuffer(namenode, myhdfs.LocationExpire, myhdfs.LocationBufferTick),
	}
}

func (c *Client) Close() {
	c.locBuf.Stop()
}

// Create is a client API, creates a file. The file stays locked until Append completes it.
func (c *Client) Create(parent myhdfs.Inum, name string) (myhdfs.Inum, error) {
	reply, err := util.CreateCall(c.namenode, &myhdfs.CreateArg{Parent: parent, Name: name})
	if err != nil {
		return 0, err
	}
	return reply.Inum, myhdfs.NewError(reply.ErrorCode, reply.Err)
}

// Mkdir is a client API, makes a directory
func (c *Client) Mkdir(parent myhdfs.Inum, name string) (myhdfs.Inum, error) {
	reply, err := util.MkdirCall(c.namenode, &myhdfs.MkdirArg{Parent: parent, Name: name})
	if err != nil {
		return 0, err
	}
	return reply.Inum, myhdfs.NewError(reply.ErrorCode, reply.Err)
}

func (c *Client) Lookup(parent myhdfs.Inum, name string) (bool, myhdfs.Inum, error) {
	reply, err := util.LookupCall(c.namenode, &myhdfs.LookupArg{Parent: parent, Name: name})
	if err != nil {
		return false, 0, err
	}
	return reply.Found, reply.Inum, myhdfs.NewError(reply.ErrorCode, reply.Err)
}

// Readdir is a client API, lists the entries of a directory
func (c *Client) Readdir(dir myhdfs.Inum) ([]myhdfs.DirEntry, error) {
	reply, err := util.ReaddirCall(c.namenode, &myhdfs.ReaddirArg{Inum: dir})
	if err != nil {
		return nil, err
	}
	return reply.Entries, myhdfs.NewError(reply.ErrorCode, reply.Err)
}

func (c *Client) Unlink(parent myhdfs.Inum, name string) (bool, error) {
	reply, err := util.UnlinkCall(c.namenode, &myhdfs.UnlinkArg{Parent: parent, Name: name})
	if err != nil {
		return false, err
	}
	return reply.Found, myhdfs.NewError(reply.ErrorCode, reply.Err)
}

// Rename is a client API, moves a directory entry
func (c *Client) Rename(srcDir myhdfs.Inum, srcName string, dstDir myhdfs.Inum, dstName string) (bool, error) {
	reply, err := util.RenameCall(c.namenode, &myhdfs.RenameArg{SrcDir: srcDir, SrcName: srcName, DstDir: dstDir, DstName: dstName})
	if err != nil {
		return false, err
	}
	return reply.Found, myhdfs.NewError(reply.ErrorCode, reply.Err)
}

func (c *Client) GetAttr(inum myhdfs.Inum) (myhdfs.Attr, error) {
	reply, err := util.GetAttrCall(c.namenode, &myhdfs.GetAttrArg{Inum: inum})
	if err != nil {
		return myhdfs.Attr{}, err
	}
	return reply.Attr, myhdfs.NewError(reply.ErrorCode, reply.Err)
}

// writeReplicas writes data into [offset, offset+len(data)) of a block on every datanode
func (c *Client) writeReplicas(bid myhdfs.BlockID, nodes []myhdfs.DatanodeID, offset uint64, data []byte) error {
	if len(nodes) == 0 {
		return myhdfs.ErrNoDatanode
	}
	arg := &myhdfs.WriteBlockArg{BlockID: bid, Offset: offset, Length: uint64(len(data)), Data: data}
	for _, dn := range nodes {
		reply, err := util.WriteBlockCall(dn.Address(), arg)
		if err == nil {
			err = myhdfs.NewError(reply.ErrorCode, reply.Err)
		}
		if err != nil {
			return fmt.Errorf("write block %v on %v: %w", bid, dn.Address().ToString(), err)
		}
	}
	return nil
}

// Append is a client API, appends data to the end of a file and completes it.
// The partial last block is filled before new blocks are appended.
func (c *Client) Append(inum myhdfs.Inum, data []byte) error {
	c.locBuf.Invalidate(inum)
	defer c.locBuf.Invalidate(inum)
	blocks, err := c.locBuf.Get(inum)
	if err != nil {
		return err
	}
	var size uint64
	for _, b := range blocks {
		size += b.Length
	}
	newSize := size + uint64(len(data))
	if newSize > myhdfs.MaxFile*myhdfs.BlockSize {
		return myhdfs.ErrFileTooLarge
	}

	if used := size % myhdfs.BlockSize; used != 0 && len(data) > 0 {
		last := blocks[len(blocks)-1]
		n := min(uint64(myhdfs.BlockSize)-used, uint64(len(data)))
		if err := c.writeReplicas(last.BlockID, last.Locations, used, data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	for len(data) > 0 {
		reply, err := util.AppendBlockCall(c.namenode, &myhdfs.AppendBlockArg{Inum: inum})
		if err != nil {
			return err
		}
		if err := myhdfs.NewError(reply.ErrorCode, reply.Err); err != nil {
			return err
		}
		n := min(myhdfs.BlockSize, len(data))
		if err := c.writeReplicas(reply.Block.BlockID, reply.Block.Locations, 0, data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}

	reply, err := util.CompleteCall(c.namenode, &myhdfs.CompleteArg{Inum: inum, Size: uint32(newSize)})
	if err != nil {
		return err
	}
	return myhdfs.NewError(reply.ErrorCode, reply.Err)
}

// readReplica reads one located block from the first datanode able to serve it
func (c *Client) readReplica(b myhdfs.LocatedBlock) ([]byte, error) {
	var lastErr error = myhdfs.ErrNoDatanode
	for _, dn := range util.Shuffle(b.Locations) {
		reply, err := util.ReadBlockCall(dn.Address(), &myhdfs.ReadBlockArg{BlockID: b.BlockID, Offset: 0, Length: b.Length})
		if err == nil {
			err = myhdfs.NewError(reply.ErrorCode, reply.Err)
		}
		if err == nil {
			return reply.Data, nil
		}
		log.Warnf("read block %v from %v: %v", b.BlockID, dn.Address().ToString(), err)
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) readBlocks(blocks []myhdfs.LocatedBlock) ([]byte, error) {
	var data []byte
	for _, b := range blocks {
		part, err := c.readReplica(b)
		if err != nil {
			return nil, err
		}
		data = append(data, part...)
	}
	return data, nil
}

// ReadFile is a client API, reads the whole content of a file.
// Cached locations are refreshed once if no replica could serve a block.
func (c *Client) ReadFile(inum myhdfs.Inum) ([]byte, error) {
	blocks, err := c.locBuf.Get(inum)
	if err != nil {
		return nil, err
	}
	data, err := c.readBlocks(blocks)
	if err == nil {
		return data, nil
	}
	c.locBuf.Invalidate(inum)
	if blocks, err = c.locBuf.Get(inum); err != nil {
		return nil, err
	}
	return c.readBlocks(blocks)
}
