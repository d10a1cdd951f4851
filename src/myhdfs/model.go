package myhdfs

import (
	"net"
	"strconv"
)

type Inum uint32
type BlockID uint32

type InodeType uint32

const (
	TypeFree InodeType = iota
	TypeFile
	TypeDir
	TypeSymlink
)

func (t InodeType) String() string {
	switch t {
	case TypeFree:
		return "free"
	case TypeFile:
		return "file"
	case TypeDir:
		return "dir"
	case TypeSymlink:
		return "symlink"
	}
	return "unknown"
}

type ServerAddress struct {
	Hostname string
	Port     uint16
}

func (server ServerAddress) ToString() string {
	return net.JoinHostPort(server.Hostname, strconv.FormatUint(uint64(server.Port), 10))
}

func (server ServerAddress) IsEmpty() bool {
	return server.Port == 0 || server.Hostname == ""
}

// ParseAddress turns "host:port" into a ServerAddress.
func ParseAddress(s string) (ServerAddress, error) {
	host, port, err := net.SplitHostPort(s)
	if err != nil {
		return ServerAddress{}, err
	}
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return ServerAddress{}, err
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return ServerAddress{Hostname: host, Port: uint16(p)}, nil
}

// Attr is the inode metadata visible to callers
type Attr struct {
	Type  InodeType `json:"Type"`
	Size  uint32    `json:"Size"`
	Atime uint32    `json:"Atime"`
	Mtime uint32    `json:"Mtime"`
	Ctime uint32    `json:"Ctime"`
}

// DatanodeID identifies a datanode. It is comparable and used as a registry key.
type DatanodeID struct {
	IPAddr       string `json:"IPAddr"`
	Hostname     string `json:"Hostname"`
	DatanodeUUID string `json:"DatanodeUUID"`
	XferPort     uint16 `json:"XferPort"`
	InfoPort     uint16 `json:"InfoPort"`
	IPCPort      uint16 `json:"IPCPort"`
}

// Address is where the datanode serves block I/O.
func (id DatanodeID) Address() ServerAddress {
	return ServerAddress{Hostname: id.IPAddr, Port: id.XferPort}
}

// LocatedBlock is a block of a file together with the datanodes able to serve it
type LocatedBlock struct {
	BlockID   BlockID      `json:"BlockID"`
	Offset    uint64       `json:"Offset"`
	Length    uint64       `json:"Length"`
	Locations []DatanodeID `json:"Locations"`
}

// DirEntry is one decoded directory entry
type DirEntry struct {
	Name string `json:"Name"`
	Inum Inum   `json:"Inum"`
}

// ExtentService is the raw get/put/block I/O boundary shared by the namenode and datanodes.
type ExtentService interface {
	Get(inum Inum) ([]byte, error)
	Put(inum Inum, data []byte) error
	Create(t InodeType) (Inum, error)
	Remove(inum Inum) error
	GetAttr(inum Inum) (Attr, error)
	ReadBlock(id BlockID) ([]byte, error)
	WriteBlock(id BlockID, data []byte) error
	AppendBlock(inum Inum) (BlockID, error)
	GetBlockIDs(inum Inum) ([]BlockID, error)
	Complete(inum Inum, size uint32) error
}

// LockService hands out exclusive per-inode locks.
type LockService interface {
	Acquire(inum Inum) error
	Release(inum Inum) error
}
