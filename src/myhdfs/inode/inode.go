package inode

import (
	"encoding/binary"

	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
)

// inodeSize is the on-disk size of one inode record
const inodeSize = 4*5 + 4*(myhdfs.NDirect+1)

// Inode is the fixed-layout metadata record of a file or directory.
// Blocks[NDirect] holds the indirect block once the file has more than NDirect blocks.
type Inode struct {
	Type   myhdfs.InodeType
	Size   uint32
	Atime  uint32 // last access time, updated by ReadFile
	Mtime  uint32 // last modify time, updated by WriteFile
	Ctime  uint32 // last change of the inode, updated by every put
	Blocks [myhdfs.NDirect + 1]myhdfs.BlockID
}

func (ino *Inode) Attr() myhdfs.Attr {
	return myhdfs.Attr{
		Type:  ino.Type,
		Size:  ino.Size,
		Atime: ino.Atime,
		Mtime: ino.Mtime,
		Ctime: ino.Ctime,
	}
}

func (ino *Inode) encode(b []byte) {
	le := binary.LittleEndian
	le.PutUint32(b[0:], uint32(ino.Type))
	le.PutUint32(b[4:], ino.Size)
	le.PutUint32(b[8:], ino.Atime)
	le.PutUint32(b[12:], ino.Mtime)
	le.PutUint32(b[16:], ino.Ctime)
	for i, id := range ino.Blocks {
		le.PutUint32(b[20+4*i:], uint32(id))
	}
}

func decodeInode(b []byte) *Inode {
	le := binary.LittleEndian
	ino := &Inode{
		Type:  myhdfs.InodeType(le.Uint32(b[0:])),
		Size:  le.Uint32(b[4:]),
		Atime: le.Uint32(b[8:]),
		Mtime: le.Uint32(b[12:]),
		Ctime: le.Uint32(b[16:]),
	}
	for i := range ino.Blocks {
		ino.Blocks[i] = myhdfs.BlockID(le.Uint32(b[20+4*i:]))
	}
	return ino
}

// indirect is the content of an indirect block: always NIndirect slots
type indirect [myhdfs.NIndirect]myhdfs.BlockID

func decodeIndirect(b []byte) *indirect {
	var ind indirect
	for i := range ind {
		ind[i] = myhdfs.BlockID(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return &ind
}

func (ind *indirect) encode() []byte {
	b := make([]byte, myhdfs.BlockSize)
	for i, id := range ind {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(id))
	}
	return b
}

// blockCount is the number of blocks needed to hold size bytes
func blockCount(size uint32) int {
	return int((uint64(size) + myhdfs.BlockSize - 1) / myhdfs.BlockSize)
}
