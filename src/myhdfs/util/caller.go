package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
)

var httpClient = &http.Client{Timeout: myhdfs.ServerTimeout}

// call posts arg as json to route on server and decodes the json reply
func call[A, R any](server myhdfs.ServerAddress, route string, arg *A) (*R, error) {
	var reply = new(R)
	// json turns to bytes
	argBytes, jsonMarshalErr := json.Marshal(arg)
	if jsonMarshalErr != nil {
		return nil, jsonMarshalErr
	}
	// post
	url := "http://" + server.ToString() + route
	req, requestErr := http.NewRequest("POST", url, bytes.NewBuffer(argBytes))
	if requestErr != nil {
		return nil, requestErr
	}
	req.Header.Set("Content-Type", "application/json")
	resp, respErr := httpClient.Do(req)
	if respErr != nil {
		return nil, myhdfs.Error{Code: myhdfs.RemoteUnavailable, Err: respErr.Error()}
	}
	defer resp.Body.Close()
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%v%v: %v", server.ToString(), route, resp.Status)
	}
	jsonUnmarshalErr := json.Unmarshal(body, reply)
	if jsonUnmarshalErr != nil {
		return nil, jsonUnmarshalErr
	}
	return reply, nil
}

// ShutdownCall asks any of the servers to shut down
func ShutdownCall(server myhdfs.ServerAddress) error {
	_, err := call[myhdfs.ShutdownArg, myhdfs.ShutdownReply](server, "/shutdown", &myhdfs.ShutdownArg{})
	return err
}

// ===============Extent server======================

// ExtentGetCall Extent.Get
func ExtentGetCall(server myhdfs.ServerAddress, arg *myhdfs.ExtentGetArg) (*myhdfs.ExtentGetReply, error) {
	return call[myhdfs.ExtentGetArg, myhdfs.ExtentGetReply](server, "/extent/get", arg)
}

// ExtentPutCall Extent.Put
func ExtentPutCall(server myhdfs.ServerAddress, arg *myhdfs.ExtentPutArg) (*myhdfs.ExtentPutReply, error) {
	return call[myhdfs.ExtentPutArg, myhdfs.ExtentPutReply](server, "/extent/put", arg)
}

// ExtentCreateCall Extent.Create
func ExtentCreateCall(server myhdfs.ServerAddress, arg *myhdfs.ExtentCreateArg) (*myhdfs.ExtentCreateReply, error) {
	return call[myhdfs.ExtentCreateArg, myhdfs.ExtentCreateReply](server, "/extent/create", arg)
}

// ExtentRemoveCall Extent.Remove
func ExtentRemoveCall(server myhdfs.ServerAddress, arg *myhdfs.ExtentRemoveArg) (*myhdfs.ExtentRemoveReply, error) {
	return call[myhdfs.ExtentRemoveArg, myhdfs.ExtentRemoveReply](server, "/extent/remove", arg)
}

// GetAttrCall Extent.GetAttr, also served by the namenode
func GetAttrCall(server myhdfs.ServerAddress, arg *myhdfs.GetAttrArg) (*myhdfs.GetAttrReply, error) {
	return call[myhdfs.GetAttrArg, myhdfs.GetAttrReply](server, "/attr", arg)
}

// ExtentReadBlockCall Extent.ReadBlock
func ExtentReadBlockCall(server myhdfs.ServerAddress, arg *myhdfs.ExtentReadBlockArg) (*myhdfs.ExtentReadBlockReply, error) {
	return call[myhdfs.ExtentReadBlockArg, myhdfs.ExtentReadBlockReply](server, "/extent/block/read", arg)
}

// ExtentWriteBlockCall Extent.WriteBlock
func ExtentWriteBlockCall(server myhdfs.ServerAddress, arg *myhdfs.ExtentWriteBlockArg) (*myhdfs.ExtentWriteBlockReply, error) {
	return call[myhdfs.ExtentWriteBlockArg, myhdfs.ExtentWriteBlockReply](server, "/extent/block/write", arg)
}

// ExtentAppendBlockCall Extent.AppendBlock
func ExtentAppendBlockCall(server myhdfs.ServerAddress, arg *myhdfs.ExtentAppendBlockArg) (*myhdfs.ExtentAppendBlockReply, error) {
	return call[myhdfs.ExtentAppendBlockArg, myhdfs.ExtentAppendBlockReply](server, "/extent/block/append", arg)
}

// GetBlockIDsCall Extent.GetBlockIDs
func GetBlockIDsCall(server myhdfs.ServerAddress, arg *myhdfs.GetBlockIDsArg) (*myhdfs.GetBlockIDsReply, error) {
	return call[myhdfs.GetBlockIDsArg, myhdfs.GetBlockIDsReply](server, "/extent/block/ids", arg)
}

// ExtentCompleteCall Extent.Complete
func ExtentCompleteCall(server myhdfs.ServerAddress, arg *myhdfs.ExtentCompleteArg) (*myhdfs.ExtentCompleteReply, error) {
	return call[myhdfs.ExtentCompleteArg, myhdfs.ExtentCompleteReply](server, "/extent/complete", arg)
}

// ===============Datanode======================

// ReadBlockCall Datanode.ReadBlock for client to read part of a block
func ReadBlockCall(server myhdfs.ServerAddress, arg *myhdfs.ReadBlockArg) (*myhdfs.ReadBlockReply, error) {
	return call[myhdfs.ReadBlockArg, myhdfs.ReadBlockReply](server, "/block/read", arg)
}

// WriteBlockCall Datanode.WriteBlock, used by clients and by the namenode during replication
func WriteBlockCall(server myhdfs.ServerAddress, arg *myhdfs.WriteBlockArg) (*myhdfs.WriteBlockReply, error) {
	return call[myhdfs.WriteBlockArg, myhdfs.WriteBlockReply](server, "/block/write", arg)
}

// ===============Namenode======================

// PingCall checks the namenode is reachable
func PingCall(server myhdfs.ServerAddress) (*myhdfs.PingReply, error) {
	return call[myhdfs.PingArg, myhdfs.PingReply](server, "/ping", &myhdfs.PingArg{})
}

// RegisterDatanodeCall Namenode.RegisterDatanode
func RegisterDatanodeCall(server myhdfs.ServerAddress, arg *myhdfs.RegisterDatanodeArg) (*myhdfs.RegisterDatanodeReply, error) {
	return call[myhdfs.RegisterDatanodeArg, myhdfs.RegisterDatanodeReply](server, "/datanode/register", arg)
}

// HeartbeatCall Namenode.DatanodeHeartbeat
func HeartbeatCall(server myhdfs.ServerAddress, arg *myhdfs.HeartbeatArg) (*myhdfs.HeartbeatReply, error) {
	return call[myhdfs.HeartbeatArg, myhdfs.HeartbeatReply](server, "/heartbeat", arg)
}

// GetDatanodesCall Namenode.GetDatanodes
func GetDatanodesCall(server myhdfs.ServerAddress) (*myhdfs.GetDatanodesReply, error) {
	return call[myhdfs.GetDatanodesArg, myhdfs.GetDatanodesReply](server, "/datanodes", &myhdfs.GetDatanodesArg{})
}

// GetBlockLocationsCall Namenode.GetBlockLocations
func GetBlockLocationsCall(server myhdfs.ServerAddress, arg *myhdfs.GetBlockLocationsArg) (*myhdfs.GetBlockLocationsReply, error) {
	return call[myhdfs.GetBlockLocationsArg, myhdfs.GetBlockLocationsReply](server, "/block/locations", arg)
}

// AppendBlockCall Namenode.AppendBlock
func AppendBlockCall(server myhdfs.ServerAddress, arg *myhdfs.AppendBlockArg) (*myhdfs.AppendBlockReply, error) {
	return call[myhdfs.AppendBlockArg, myhdfs.AppendBlockReply](server, "/block/append", arg)
}

// CompleteCall Namenode.Complete
func CompleteCall(server myhdfs.ServerAddress, arg *myhdfs.CompleteArg) (*myhdfs.CompleteReply, error) {
	return call[myhdfs.CompleteArg, myhdfs.CompleteReply](server, "/file/complete", arg)
}

// CreateCall Namenode.Create
func CreateCall(server myhdfs.ServerAddress, arg *myhdfs.CreateArg) (*myhdfs.CreateReply, error) {
	return call[myhdfs.CreateArg, myhdfs.CreateReply](server, "/file/create", arg)
}

// MkdirCall Namenode.Mkdir
func MkdirCall(server myhdfs.ServerAddress, arg *myhdfs.MkdirArg) (*myhdfs.MkdirReply, error) {
	return call[myhdfs.MkdirArg, myhdfs.MkdirReply](server, "/mkdir", arg)
}

// LookupCall Namenode.Lookup
func LookupCall(server myhdfs.ServerAddress, arg *myhdfs.LookupArg) (*myhdfs.LookupReply, error) {
	return call[myhdfs.LookupArg, myhdfs.LookupReply](server, "/lookup", arg)
}

// ReaddirCall Namenode.Readdir
func ReaddirCall(server myhdfs.ServerAddress, arg *myhdfs.ReaddirArg) (*myhdfs.ReaddirReply, error) {
	return call[myhdfs.ReaddirArg, myhdfs.ReaddirReply](server, "/readdir", arg)
}

// UnlinkCall Namenode.Unlink
func UnlinkCall(server myhdfs.ServerAddress, arg *myhdfs.UnlinkArg) (*myhdfs.UnlinkReply, error) {
	return call[myhdfs.UnlinkArg, myhdfs.UnlinkReply](server, "/file/unlink", arg)
}

// RenameCall Namenode.Rename
func RenameCall(server myhdfs.ServerAddress, arg *myhdfs.RenameArg) (*myhdfs.RenameReply, error) {
	return call[myhdfs.RenameArg, myhdfs.RenameReply](server, "/file/rename", arg)
}
