package datanode

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
)

// RPCShutdown shuts down the datanode
func (dn *Datanode) RPCShutdown(con *gin.Context) {
	con.JSON(http.StatusOK, myhdfs.ShutdownReply{})
	// closing the server drops this connection, answer first
	go dn.Stop()
}

// RPCReadBlock is called by clients and by the namenode during replication
func (dn *Datanode) RPCReadBlock(con *gin.Context) {
	var args myhdfs.ReadBlockArg
	var reply myhdfs.ReadBlockReply
	// parse json args
	if jsonErr := con.ShouldBindJSON(&args); jsonErr != nil {
		dn.logger.Error("json bind error ", jsonErr)
		con.JSON(http.StatusBadRequest, gin.H{})
		return
	}
	data, err := dn.ReadBlock(args.BlockID, args.Offset, args.Length)
	reply.Data = data
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

// RPCWriteBlock is called by clients and by the namenode during replication
func (dn *Datanode) RPCWriteBlock(con *gin.Context) {
	var args myhdfs.WriteBlockArg
	var reply myhdfs.WriteBlockReply
	// parse json args
	if jsonErr := con.ShouldBindJSON(&args); jsonErr != nil {
		dn.logger.Error("json bind error ", jsonErr)
		con.JSON(http.StatusBadRequest, gin.H{})
		return
	}
	err := dn.WriteBlock(args.BlockID, args.Offset, args.Length, args.Data)
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}
