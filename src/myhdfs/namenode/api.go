package namenode

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
)

// bind parses the json args, answering 400 on failure
func (nn *Namenode) bind(con *gin.Context, args any) bool {
	if jsonErr := con.ShouldBindJSON(args); jsonErr != nil {
		nn.logger.Error("json bind error ", jsonErr)
		con.JSON(http.StatusBadRequest, gin.H{})
		return false
	}
	return true
}

// RPCShutdown shuts down the namenode
func (nn *Namenode) RPCShutdown(con *gin.Context) {
	con.JSON(http.StatusOK, myhdfs.ShutdownReply{})
	// closing the server drops this connection, answer first
	go nn.Stop()
}

// RPCPing is called by a datanode before it registers
func (nn *Namenode) RPCPing(con *gin.Context) {
	con.JSON(http.StatusOK, myhdfs.PingReply{Address: nn.address.ToString()})
}

// RPCRegisterDatanode is called once by every datanode on start
func (nn *Namenode) RPCRegisterDatanode(con *gin.Context) {
	var args myhdfs.RegisterDatanodeArg
	var reply myhdfs.RegisterDatanodeReply
	if !nn.bind(con, &args) {
		return
	}
	if err := nn.RegisterDatanode(args.ID); err != nil {
		nn.logger.Error("register datanode error ", err)
		con.JSON(http.StatusInternalServerError, gin.H{})
		return
	}
	con.JSON(http.StatusOK, reply)
}

// RPCHeartbeat is called by datanodes to let the namenode know they are alive
func (nn *Namenode) RPCHeartbeat(con *gin.Context) {
	var args myhdfs.HeartbeatArg
	var reply myhdfs.HeartbeatReply
	if !nn.bind(con, &args) {
		return
	}
	nn.DatanodeHeartbeat(args.ID)
	con.JSON(http.StatusOK, reply)
}

func (nn *Namenode) RPCGetDatanodes(con *gin.Context) {
	var reply myhdfs.GetDatanodesReply
	reply.Datanodes = nn.GetDatanodes()
	con.JSON(http.StatusOK, reply)
}

func (nn *Namenode) RPCGetBlockLocations(con *gin.Context) {
	var args myhdfs.GetBlockLocationsArg
	var reply myhdfs.GetBlockLocationsReply
	if !nn.bind(con, &args) {
		return
	}
	blocks, err := nn.GetBlockLocations(args.Inum)
	reply.Blocks = blocks
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

func (nn *Namenode) RPCAppendBlock(con *gin.Context) {
	var args myhdfs.AppendBlockArg
	var reply myhdfs.AppendBlockReply
	if !nn.bind(con, &args) {
		return
	}
	block, err := nn.AppendBlock(args.Inum)
	reply.Block = block
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

func (nn *Namenode) RPCComplete(con *gin.Context) {
	var args myhdfs.CompleteArg
	var reply myhdfs.CompleteReply
	if !nn.bind(con, &args) {
		return
	}
	ok, err := nn.Complete(args.Inum, args.Size)
	reply.OK = ok
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

func (nn *Namenode) RPCCreate(con *gin.Context) {
	var args myhdfs.CreateArg
	var reply myhdfs.CreateReply
	if !nn.bind(con, &args) {
		return
	}
	inum, err := nn.Create(args.Parent, args.Name)
	reply.Inum = inum
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

func (nn *Namenode) RPCMkdir(con *gin.Context) {
	var args myhdfs.MkdirArg
	var reply myhdfs.MkdirReply
	if !nn.bind(con, &args) {
		return
	}
	inum, err := nn.Mkdir(args.Parent, args.Name)
	reply.Inum = inum
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

func (nn *Namenode) RPCLookup(con *gin.Context) {
	var args myhdfs.LookupArg
	var reply myhdfs.LookupReply
	if !nn.bind(con, &args) {
		return
	}
	found, inum, err := nn.Lookup(args.Parent, args.Name)
	reply.Found, reply.Inum = found, inum
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

func (nn *Namenode) RPCReaddir(con *gin.Context) {
	var args myhdfs.ReaddirArg
	var reply myhdfs.ReaddirReply
	if !nn.bind(con, &args) {
		return
	}
	entries, err := nn.Readdir(args.Inum)
	reply.Entries = entries
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

func (nn *Namenode) RPCUnlink(con *gin.Context) {
	var args myhdfs.UnlinkArg
	var reply myhdfs.UnlinkReply
	if !nn.bind(con, &args) {
		return
	}
	found, err := nn.Unlink(args.Parent, args.Name)
	reply.Found = found
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

func (nn *Namenode) RPCRename(con *gin.Context) {
	var args myhdfs.RenameArg
	var reply myhdfs.RenameReply
	if !nn.bind(con, &args) {
		return
	}
	found, err := nn.Rename(args.SrcDir, args.SrcName, args.DstDir, args.DstName)
	reply.Found = found
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

func (nn *Namenode) RPCGetAttr(con *gin.Context) {
	var args myhdfs.GetAttrArg
	var reply myhdfs.GetAttrReply
	if !nn.bind(con, &args) {
		return
	}
	attr, err := nn.GetAttr(args.Inum)
	reply.Attr = attr
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}
