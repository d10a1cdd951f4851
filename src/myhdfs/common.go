package myhdfs

import "time"

// disk layout
const (
	DiskSize  = 1024 * 1024 * 16
	BlockSize = 512
	BlockNum  = DiskSize / BlockSize

	// bits per block, used by the free block bitmap
	BPB = BlockSize * 8

	InodeNum = 1024
	// inodes per block
	IPB = 2

	NDirect   = 32            // direct block slots in one inode
	NIndirect = BlockSize / 4 // block ids held by the indirect block
	MaxFile   = NDirect + NIndirect

	// first block that may hold data: super block, bitmap region and inode table come before it
	FirstDataBlock = 3 + BlockNum/BPB + InodeNum/IPB

	RootInum Inum = 1
)

// IBlock returns the block containing inode i (i starts from 1).
// 3 : super block, inode free block bitmap and the last half-full data free block bitmap
func IBlock(i Inum, nblocks uint32) BlockID {
	return BlockID(nblocks/BPB + (uint32(i)-1)/IPB + 3)
}

// BBlock returns the bitmap block holding the bit of block b.
// 2 : super block and inode free block bitmap
func BBlock(b BlockID) BlockID {
	return b/BPB + 2
}

// system config
const (
	// namenode
	HeartbeatTickInterval = 1 * time.Second
	AliveTicks            = 3 // a datanode is alive iff tick - lastHeartbeat < AliveTicks

	// datanode
	HeartbeatInterval = 1 * time.Second

	// extent server
	ExtentStoreInterval = 30 * time.Minute

	// client
	ServerTimeout      = 5 * time.Second
	LocationExpire     = 3 * time.Second
	LocationBufferTick = 500 * time.Millisecond
)
