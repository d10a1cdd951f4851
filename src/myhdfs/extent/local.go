package extent

import (
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/inode"
)

// Local serves extent operations from an in-process inode manager.
type Local struct {
	im *inode.Manager
}

func NewLocal(im *inode.Manager) *Local {
	return &Local{im: im}
}

func (l *Local) Get(inum myhdfs.Inum) ([]byte, error) {
	return l.im.ReadFile(inum)
}

func (l *Local) Put(inum myhdfs.Inum, data []byte) error {
	return l.im.WriteFile(inum, data)
}

func (l *Local) Create(t myhdfs.InodeType) (myhdfs.Inum, error) {
	return l.im.AllocInode(t)
}

func (l *Local) Remove(inum myhdfs.Inum) error {
	return l.im.RemoveFile(inum)
}

func (l *Local) GetAttr(inum myhdfs.Inum) (myhdfs.Attr, error) {
	return l.im.GetAttr(inum)
}

func (l *Local) ReadBlock(id myhdfs.BlockID) ([]byte, error) {
	return l.im.ReadBlock(id)
}

func (l *Local) WriteBlock(id myhdfs.BlockID, data []byte) error {
	return l.im.WriteBlock(id, data)
}

func (l *Local) AppendBlock(inum myhdfs.Inum) (myhdfs.BlockID, error) {
	return l.im.AppendBlock(inum)
}

func (l *Local) GetBlockIDs(inum myhdfs.Inum) ([]myhdfs.BlockID, error) {
	return l.im.GetBlockIDs(inum)
}

func (l *Local) Complete(inum myhdfs.Inum, size uint32) error {
	return l.im.Complete(inum, size)
}
