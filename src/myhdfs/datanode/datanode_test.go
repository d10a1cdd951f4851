package datanode

import (
	"errors"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/extent"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/inode"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/util"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// newBlock returns a datanode over a fresh disk and one allocated block
func newBlock(t *testing.T) (*Datanode, myhdfs.BlockID) {
	t.Helper()
	im, err := inode.NewManager()
	if err != nil {
		t.Fatal(err)
	}
	inum, _ := im.AllocInode(myhdfs.TypeFile)
	bid, err := im.AppendBlock(inum)
	if err != nil {
		t.Fatal(err)
	}
	return NewDatanode(extent.NewLocal(im)), bid
}

func TestPartialReadWrite(t *testing.T) {
	dn, bid := newBlock(t)

	if err := dn.WriteBlock(bid, 0, 5, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := dn.WriteBlock(bid, 3, 2, []byte("LO")); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		offset, length uint64
		want           string
	}{
		{0, 5, "helLO"},
		{1, 3, "elL"},
		{4, 0, ""},
		{myhdfs.BlockSize + 1, 10, ""},
	}
	for _, tt := range tests {
		got, err := dn.ReadBlock(bid, tt.offset, tt.length)
		if err != nil || string(got) != tt.want {
			t.Errorf("ReadBlock(%d, %d) = %q, %v; want %q", tt.offset, tt.length, got, err, tt.want)
		}
	}
	// reads are clipped to the block
	if got, _ := dn.ReadBlock(bid, myhdfs.BlockSize-2, 10); len(got) != 2 {
		t.Errorf("read at the end of the block returned %d bytes", len(got))
	}
}

func TestWriteSplice(t *testing.T) {
	dn, bid := newBlock(t)
	dn.WriteBlock(bid, 0, 10, []byte("0123456789"))

	// data longer than the range shifts the rest of the block
	if err := dn.WriteBlock(bid, 2, 1, []byte("ab")); err != nil {
		t.Fatal(err)
	}
	if got, _ := dn.ReadBlock(bid, 0, 11); string(got) != "01ab3456789" {
		t.Errorf("after splice %q", got)
	}
	// the block never grows past BlockSize
	if err := dn.WriteBlock(bid, myhdfs.BlockSize-1, 1, []byte("xyz")); err != nil {
		t.Fatal(err)
	}
	if got, _ := dn.ReadBlock(bid, myhdfs.BlockSize-1, 10); string(got) != "x" {
		t.Errorf("tail %q", got)
	}
	err := dn.WriteBlock(bid, myhdfs.BlockSize+1, 1, []byte("x"))
	if !errors.Is(err, ErrOffsetBeyondBlock) || myhdfs.CodeOf(err) != myhdfs.InvalidArgument {
		t.Errorf("write past the block err = %v", err)
	}
	if _, err := dn.ReadBlock(myhdfs.BlockNum, 0, 1); !errors.Is(err, myhdfs.ErrInvalidBlock) {
		t.Errorf("read of invalid block err = %v", err)
	}
}

func TestHugeLength(t *testing.T) {
	dn, bid := newBlock(t)
	content := strings.Repeat("a", myhdfs.BlockSize)
	dn.WriteBlock(bid, 0, myhdfs.BlockSize, []byte(content))

	got, err := dn.ReadBlock(bid, 10, math.MaxUint64)
	if err != nil || len(got) != myhdfs.BlockSize-10 {
		t.Fatalf("ReadBlock = %d bytes, %v", len(got), err)
	}
	// the range covers the rest of the block, nothing of it survives
	if err := dn.WriteBlock(bid, 10, math.MaxUint64, []byte("XY")); err != nil {
		t.Fatal(err)
	}
	got, _ = dn.ReadBlock(bid, 0, myhdfs.BlockSize)
	want := content[:10] + "XY" + strings.Repeat("\x00", myhdfs.BlockSize-12)
	if string(got) != want {
		t.Errorf("after write block = %q", got[:16])
	}
}

// fakeNamenode counts the calls of datanodes
type fakeNamenode struct {
	pings, registers, heartbeats atomic.Int32
	rejectRegister               bool
}

func (f *fakeNamenode) start(t *testing.T) myhdfs.ServerAddress {
	t.Helper()
	router := gin.New()
	router.POST("/ping", func(con *gin.Context) {
		f.pings.Add(1)
		con.JSON(http.StatusOK, myhdfs.PingReply{})
	})
	router.POST("/datanode/register", func(con *gin.Context) {
		if f.rejectRegister {
			con.JSON(http.StatusInternalServerError, gin.H{})
			return
		}
		f.registers.Add(1)
		con.JSON(http.StatusOK, myhdfs.RegisterDatanodeReply{})
	})
	router.POST("/heartbeat", func(con *gin.Context) {
		f.heartbeats.Add(1)
		con.JSON(http.StatusOK, myhdfs.HeartbeatReply{})
	})
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	addr, err := myhdfs.ParseAddress(strings.TrimPrefix(ts.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	return addr
}

func TestInitHeartbeatAndStop(t *testing.T) {
	nn := &fakeNamenode{}
	addr := nn.start(t)
	dn, bid := newBlock(t)
	dn.interval = 10 * time.Millisecond

	if err := dn.Init(addr, "127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}
	id := dn.ID()
	if id.IPAddr != "127.0.0.1" || id.XferPort == 0 || id.DatanodeUUID == "" {
		t.Errorf("id = %+v", id)
	}
	if nn.pings.Load() != 1 || nn.registers.Load() != 1 {
		t.Errorf("pings = %d, registers = %d", nn.pings.Load(), nn.registers.Load())
	}

	deadline := time.Now().Add(2 * time.Second)
	for nn.heartbeats.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if nn.heartbeats.Load() < 3 {
		t.Fatalf("only %d heartbeats", nn.heartbeats.Load())
	}

	// block I/O over http
	w, err := util.WriteBlockCall(id.Address(), &myhdfs.WriteBlockArg{BlockID: bid, Offset: 0, Length: 3, Data: []byte("abc")})
	if err != nil || w.ErrorCode != myhdfs.Success {
		t.Fatalf("WriteBlockCall = %+v, %v", w, err)
	}
	r, err := util.ReadBlockCall(id.Address(), &myhdfs.ReadBlockArg{BlockID: bid, Offset: 1, Length: 2})
	if err != nil || string(r.Data) != "bc" {
		t.Fatalf("ReadBlockCall = %+v, %v", r, err)
	}

	dn.Stop()
	time.Sleep(30 * time.Millisecond)
	n := nn.heartbeats.Load()
	time.Sleep(50 * time.Millisecond)
	if nn.heartbeats.Load() != n {
		t.Error("heartbeats continue after Stop")
	}
}

func TestInitFailure(t *testing.T) {
	rejecting := &fakeNamenode{rejectRegister: true}
	// a port nobody listens on
	l, _ := net.Listen("tcp", "127.0.0.1:0")
	unreachable, _ := myhdfs.ParseAddress(l.Addr().String())
	l.Close()

	for name, addr := range map[string]myhdfs.ServerAddress{
		"register rejected":    rejecting.start(t),
		"namenode unreachable": unreachable,
	} {
		t.Run(name, func(t *testing.T) {
			dn, _ := newBlock(t)
			dn.interval = 10 * time.Millisecond
			if err := dn.Init(addr, "127.0.0.1:0"); err == nil {
				t.Fatal("Init succeeded")
			}
			time.Sleep(50 * time.Millisecond)
			if dn.running {
				t.Error("heartbeat loop started")
			}
			if conn, err := net.Dial("tcp", dn.ID().Address().ToString()); err == nil {
				conn.Close()
				t.Error("datanode still accepts connections")
			}
		})
	}
	if rejecting.heartbeats.Load() != 0 {
		t.Errorf("%d heartbeats after failed init", rejecting.heartbeats.Load())
	}
}

func TestBadRequest(t *testing.T) {
	dn, _ := newBlock(t)
	w := httptest.NewRecorder()
	dn.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/block/read", strings.NewReader("nope")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}
