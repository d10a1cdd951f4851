package extent

import (
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/util"
)

// Client talks to a remote extent Server. Remote failures come back as myhdfs.Error.
type Client struct {
	server myhdfs.ServerAddress
}

func NewClient(server myhdfs.ServerAddress) *Client {
	return &Client{server: server}
}

func (c *Client) Get(inum myhdfs.Inum) ([]byte, error) {
	reply, err := util.ExtentGetCall(c.server, &myhdfs.ExtentGetArg{Inum: inum})
	if err != nil {
		return nil, err
	}
	return reply.Data, myhdfs.NewError(reply.ErrorCode, reply.Err)
}

func (c *Client) Put(inum myhdfs.Inum, data []byte) error {
	reply, err := util.ExtentPutCall(c.server, &myhdfs.ExtentPutArg{Inum: inum, Data: data})
	if err != nil {
		return err
	}
	return myhdfs.NewError(reply.ErrorCode, reply.Err)
}

func (c *Client) Create(t myhdfs.InodeType) (myhdfs.Inum, error) {
	reply, err := util.ExtentCreateCall(c.server, &myhdfs.ExtentCreateArg{Type: t})
	if err != nil {
		return 0, err
	}
	return reply.Inum, myhdfs.NewError(reply.ErrorCode, reply.Err)
}

func (c *Client) Remove(inum myhdfs.Inum) error {
	reply, err := util.ExtentRemoveCall(c.server, &myhdfs.ExtentRemoveArg{Inum: inum})
	if err != nil {
		return err
	}
	return myhdfs.NewError(reply.ErrorCode, reply.Err)
}

func (c *Client) GetAttr(inum myhdfs.Inum) (myhdfs.Attr, error) {
	reply, err := util.GetAttrCall(c.server, &myhdfs.GetAttrArg{Inum: inum})
	if err != nil {
		return myhdfs.Attr{}, err
	}
	return reply.Attr, myhdfs.NewError(reply.ErrorCode, reply.Err)
}

func (c *Client) ReadBlock(id myhdfs.BlockID) ([]byte, error) {
	reply, err := util.ExtentReadBlockCall(c.server, &myhdfs.ExtentReadBlockArg{BlockID: id})
	if err != nil {
		return nil, err
	}
	return reply.Data, myhdfs.NewError(reply.ErrorCode, reply.Err)
}

func (c *Client) WriteBlock(id myhdfs.BlockID, data []byte) error {
	reply, err := util.ExtentWriteBlockCall(c.server, &myhdfs.ExtentWriteBlockArg{BlockID: id, Data: data})
	if err != nil {
		return err
	}
	return myhdfs.NewError(reply.ErrorCode, reply.Err)
}

func (c *Client) AppendBlock(inum myhdfs.Inum) (myhdfs.BlockID, error) {
	reply, err := util.ExtentAppendBlockCall(c.server, &myhdfs.ExtentAppendBlockArg{Inum: inum})
	if err != nil {
		return 0, err
	}
	return reply.BlockID, myhdfs.NewError(reply.ErrorCode, reply.Err)
}

func (c *Client) GetBlockIDs(inum myhdfs.Inum) ([]myhdfs.BlockID, error) {
	reply, err := util.GetBlockIDsCall(c.server, &myhdfs.GetBlockIDsArg{Inum: inum})
	if err != nil {
		return nil, err
	}
	return reply.BlockIDs, myhdfs.NewError(reply.ErrorCode, reply.Err)
}

func (c *Client) Complete(inum myhdfs.Inum, size uint32) error {
	reply, err := util.ExtentCompleteCall(c.server, &myhdfs.ExtentCompleteArg{Inum: inum, Size: size})
	if err != nil {
		return err
	}
	return myhdfs.NewError(reply.ErrorCode, reply.Err)
}
