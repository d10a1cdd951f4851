package datanode

import (
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/util"
)

var ErrOffsetBeyondBlock = myhdfs.Error{Code: myhdfs.InvalidArgument, Err: "offset beyond block content"}

// heartbeat tells the namenode that this datanode is alive
func (dn *Datanode) heartbeat() error {
	_, err := util.HeartbeatCall(dn.namenode, &myhdfs.HeartbeatArg{ID: dn.ID()})
	return err
}

// ReadBlock returns length bytes of block bid starting at offset, clipped to
// the block. An offset past the block gives an empty result.
func (dn *Datanode) ReadBlock(bid myhdfs.BlockID, offset, length uint64) ([]byte, error) {
	content, err := dn.ec.ReadBlock(bid)
	if err != nil {
		return nil, err
	}
	if offset > uint64(len(content)) {
		return []byte{}, nil
	}
	end := uint64(len(content))
	if length < end-offset {
		end = offset + length
	}
	return content[offset:end], nil
}

// WriteBlock replaces [offset, offset+length) of block bid with data.
// The block is not extended: the result is cut at BlockSize.
func (dn *Datanode) WriteBlock(bid myhdfs.BlockID, offset, length uint64, data []byte) error {
	content, err := dn.ec.ReadBlock(bid)
	if err != nil {
		return err
	}
	if offset > uint64(len(content)) {
		dn.logger.Warnf("write_block: offset %v beyond block %v", offset, bid)
		return ErrOffsetBeyondBlock
	}
	tail := uint64(len(content))
	if length < tail-offset {
		tail = offset + length
	}
	out := make([]byte, 0, len(content)+len(data))
	out = append(out, content[:offset]...)
	out = append(out, data...)
	out = append(out, content[tail:]...)
	if len(out) > myhdfs.BlockSize {
		out = out[:myhdfs.BlockSize]
	}
	return dn.ec.WriteBlock(bid, out)
}
