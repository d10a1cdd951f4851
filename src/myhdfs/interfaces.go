package myhdfs

/*
 *  Extent server
 */

type ExtentGetArg struct {
	Inum Inum `json:"Inum"`
}
type ExtentGetReply struct {
	Data      []byte    `json:"Data"`
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

type ExtentPutArg struct {
	Inum Inum   `json:"Inum"`
	Data []byte `json:"Data"`
}
type ExtentPutReply struct {
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

type ExtentCreateArg struct {
	Type InodeType `json:"Type"`
}
type ExtentCreateReply struct {
	Inum      Inum      `json:"Inum"`
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

type ExtentRemoveArg struct {
	Inum Inum `json:"Inum"`
}
type ExtentRemoveReply struct {
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

type GetAttrArg struct {
	Inum Inum `json:"Inum"`
}
type GetAttrReply struct {
	Attr      Attr      `json:"Attr"`
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

type ExtentReadBlockArg struct {
	BlockID BlockID `json:"BlockID"`
}
type ExtentReadBlockReply struct {
	Data      []byte    `json:"Data"`
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

type ExtentWriteBlockArg struct {
	BlockID BlockID `json:"BlockID"`
	Data    []byte  `json:"Data"`
}
type ExtentWriteBlockReply struct {
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

type ExtentAppendBlockArg struct {
	Inum Inum `json:"Inum"`
}
type ExtentAppendBlockReply struct {
	BlockID   BlockID   `json:"BlockID"`
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

type GetBlockIDsArg struct {
	Inum Inum `json:"Inum"`
}
type GetBlockIDsReply struct {
	BlockIDs  []BlockID `json:"BlockIDs"`
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

type ExtentCompleteArg struct {
	Inum Inum   `json:"Inum"`
	Size uint32 `json:"Size"`
}
type ExtentCompleteReply struct {
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

/*
 *  Datanode
 */

// block IO, offset and length are relative to the block
type ReadBlockArg struct {
	BlockID BlockID `json:"BlockID"`
	Offset  uint64  `json:"Offset"`
	Length  uint64  `json:"Length"`
}
type ReadBlockReply struct {
	Data      []byte    `json:"Data"`
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

type WriteBlockArg struct {
	BlockID BlockID `json:"BlockID"`
	Offset  uint64  `json:"Offset"`
	Length  uint64  `json:"Length"`
	Data    []byte  `json:"Data"`
}
type WriteBlockReply struct {
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

/*
 *  Namenode
 */

// handshake
type RegisterDatanodeArg struct {
	ID DatanodeID `json:"ID"`
}
type RegisterDatanodeReply struct{}

type HeartbeatArg struct {
	ID DatanodeID `json:"ID"`
}
type HeartbeatReply struct{}

type GetDatanodesArg struct{}
type GetDatanodesReply struct {
	Datanodes []DatanodeID `json:"Datanodes"`
}

// block info
type GetBlockLocationsArg struct {
	Inum Inum `json:"Inum"`
}
type GetBlockLocationsReply struct {
	Blocks    []LocatedBlock `json:"Blocks"`
	ErrorCode ErrorCode      `json:"ErrorCode"`
	Err       string         `json:"Err"`
}

type AppendBlockArg struct {
	Inum Inum `json:"Inum"`
}
type AppendBlockReply struct {
	Block     LocatedBlock `json:"Block"`
	ErrorCode ErrorCode    `json:"ErrorCode"`
	Err       string       `json:"Err"`
}

type CompleteArg struct {
	Inum Inum   `json:"Inum"`
	Size uint32 `json:"Size"`
}
type CompleteReply struct {
	OK        bool      `json:"OK"`
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

// namespace operation
type CreateArg struct {
	Parent Inum   `json:"Parent"`
	Name   string `json:"Name"`
}
type CreateReply struct {
	Inum      Inum      `json:"Inum"`
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

type MkdirArg struct {
	Parent Inum   `json:"Parent"`
	Name   string `json:"Name"`
}
type MkdirReply struct {
	Inum      Inum      `json:"Inum"`
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

type LookupArg struct {
	Parent Inum   `json:"Parent"`
	Name   string `json:"Name"`
}
type LookupReply struct {
	Found     bool      `json:"Found"`
	Inum      Inum      `json:"Inum"`
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

type ReaddirArg struct {
	Inum Inum `json:"Inum"`
}
type ReaddirReply struct {
	Entries   []DirEntry `json:"Entries"`
	ErrorCode ErrorCode  `json:"ErrorCode"`
	Err       string     `json:"Err"`
}

type UnlinkArg struct {
	Parent Inum   `json:"Parent"`
	Name   string `json:"Name"`
}
type UnlinkReply struct {
	Found     bool      `json:"Found"`
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

type RenameArg struct {
	SrcDir  Inum   `json:"SrcDir"`
	SrcName string `json:"SrcName"`
	DstDir  Inum   `json:"DstDir"`
	DstName string `json:"DstName"`
}
type RenameReply struct {
	Found     bool      `json:"Found"`
	ErrorCode ErrorCode `json:"ErrorCode"`
	Err       string    `json:"Err"`
}

// shutdown

type ShutdownArg struct {
}

type ShutdownReply struct {
}

type PingArg struct{}
type PingReply struct {
	Address string `json:"Address"`
}
