package extent

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
)

// bind parses the json args, answering 400 on failure
func (s *Server) bind(con *gin.Context, args any) bool {
	if jsonErr := con.ShouldBindJSON(args); jsonErr != nil {
		s.logger.Error("json bind error ", jsonErr)
		con.JSON(http.StatusBadRequest, gin.H{})
		return false
	}
	return true
}

// Shutdown shuts down the extent server
func (s *Server) Shutdown(con *gin.Context) {
	con.JSON(http.StatusOK, myhdfs.ShutdownReply{})
	// closing the server drops this connection, answer first
	go s.Stop()
}

// Get returns the whole content of an inode
func (s *Server) Get(con *gin.Context) {
	var args myhdfs.ExtentGetArg
	var reply myhdfs.ExtentGetReply
	if !s.bind(con, &args) {
		return
	}
	data, err := s.store.Get(args.Inum)
	reply.Data = data
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

// Put replaces the content of an inode
func (s *Server) Put(con *gin.Context) {
	var args myhdfs.ExtentPutArg
	var reply myhdfs.ExtentPutReply
	if !s.bind(con, &args) {
		return
	}
	err := s.store.Put(args.Inum, args.Data)
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

// Create allocates an inode of the given type
func (s *Server) Create(con *gin.Context) {
	var args myhdfs.ExtentCreateArg
	var reply myhdfs.ExtentCreateReply
	if !s.bind(con, &args) {
		return
	}
	inum, err := s.store.Create(args.Type)
	reply.Inum = inum
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

// Remove removes an inode, directories recursively
func (s *Server) Remove(con *gin.Context) {
	var args myhdfs.ExtentRemoveArg
	var reply myhdfs.ExtentRemoveReply
	if !s.bind(con, &args) {
		return
	}
	err := s.store.Remove(args.Inum)
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

func (s *Server) GetAttr(con *gin.Context) {
	var args myhdfs.GetAttrArg
	var reply myhdfs.GetAttrReply
	if !s.bind(con, &args) {
		return
	}
	attr, err := s.store.GetAttr(args.Inum)
	reply.Attr = attr
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

// ReadBlock returns one whole block
func (s *Server) ReadBlock(con *gin.Context) {
	var args myhdfs.ExtentReadBlockArg
	var reply myhdfs.ExtentReadBlockReply
	if !s.bind(con, &args) {
		return
	}
	data, err := s.store.ReadBlock(args.BlockID)
	reply.Data = data
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

// WriteBlock overwrites one whole block
func (s *Server) WriteBlock(con *gin.Context) {
	var args myhdfs.ExtentWriteBlockArg
	var reply myhdfs.ExtentWriteBlockReply
	if !s.bind(con, &args) {
		return
	}
	err := s.store.WriteBlock(args.BlockID, args.Data)
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

// AppendBlock allocates a new last block for an inode
func (s *Server) AppendBlock(con *gin.Context) {
	var args myhdfs.ExtentAppendBlockArg
	var reply myhdfs.ExtentAppendBlockReply
	if !s.bind(con, &args) {
		return
	}
	bid, err := s.store.AppendBlock(args.Inum)
	reply.BlockID = bid
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

func (s *Server) GetBlockIDs(con *gin.Context) {
	var args myhdfs.GetBlockIDsArg
	var reply myhdfs.GetBlockIDsReply
	if !s.bind(con, &args) {
		return
	}
	ids, err := s.store.GetBlockIDs(args.Inum)
	reply.BlockIDs = ids
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}

// Complete sets the final size of an inode
func (s *Server) Complete(con *gin.Context) {
	var args myhdfs.ExtentCompleteArg
	var reply myhdfs.ExtentCompleteReply
	if !s.bind(con, &args) {
		return
	}
	err := s.store.Complete(args.Inum, args.Size)
	reply.ErrorCode, reply.Err = myhdfs.Describe(err)
	con.JSON(http.StatusOK, reply)
}
