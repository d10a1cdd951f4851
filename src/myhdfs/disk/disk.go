package disk

import (
	"fmt"

	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	log "github.com/sirupsen/logrus"
)

// Disk is the physical substrate: BlockNum blocks of BlockSize bytes kept in memory.
// block number ranges from 0 to BlockNum-1
type Disk struct {
	blocks []byte
}

func NewDisk() *Disk {
	return &Disk{blocks: make([]byte, myhdfs.DiskSize)}
}

// LoadDisk rebuilds a disk from an image produced by Image.
func LoadDisk(image []byte) (*Disk, error) {
	if len(image) != myhdfs.DiskSize {
		return nil, fmt.Errorf("disk image has %d bytes, want %d", len(image), myhdfs.DiskSize)
	}
	d := NewDisk()
	copy(d.blocks, image)
	return d, nil
}

// Image returns a copy of the whole disk.
func (d *Disk) Image() []byte {
	image := make([]byte, len(d.blocks))
	copy(image, d.blocks)
	return image
}

func (d *Disk) block(id myhdfs.BlockID) []byte {
	start := int(id) * myhdfs.BlockSize
	return d.blocks[start : start+myhdfs.BlockSize]
}

func (d *Disk) ReadBlock(id myhdfs.BlockID, buf []byte) error {
	if buf == nil {
		log.Error("disk read_block: read buffer is nil")
		return myhdfs.ErrNilBuffer
	}
	if id >= myhdfs.BlockNum {
		log.Errorf("disk read_block: invalid block id %v", id)
		return myhdfs.ErrInvalidBlock
	}
	copy(buf, d.block(id))
	return nil
}

// WriteBlock writes buf into block id. A short buf leaves the tail of the block zeroed.
func (d *Disk) WriteBlock(id myhdfs.BlockID, buf []byte) error {
	if buf == nil {
		log.Error("disk write_block: write buffer is nil")
		return myhdfs.ErrNilBuffer
	}
	if id >= myhdfs.BlockNum {
		log.Errorf("disk write_block: invalid block id %v", id)
		return myhdfs.ErrInvalidBlock
	}
	b := d.block(id)
	n := copy(b, buf)
	clear(b[n:])
	return nil
}
