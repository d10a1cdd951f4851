package extent

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var local = myhdfs.ServerAddress{Hostname: "127.0.0.1", Port: 0}

// newTestServer starts s behind an httptest server and returns a client for it
func newTestServer(t *testing.T, root string) (*Server, *Client) {
	t.Helper()
	s := NewServer(local, root)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Stop()
	})
	addr, err := myhdfs.ParseAddress(strings.TrimPrefix(ts.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	return s, NewClient(addr)
}

func TestClientRoundTrip(t *testing.T) {
	_, c := newTestServer(t, "")

	inum, err := c.Create(myhdfs.TypeFile)
	if err != nil || inum != 2 {
		t.Fatalf("Create = %v, %v", inum, err)
	}
	data := bytes.Repeat([]byte("extent "), 100)
	if err := c.Put(inum, data); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(inum)
	if err != nil || !bytes.Equal(got, data) {
		t.Fatalf("Get = %d bytes, %v", len(got), err)
	}
	attr, err := c.GetAttr(inum)
	if err != nil || attr.Type != myhdfs.TypeFile || attr.Size != uint32(len(data)) {
		t.Fatalf("GetAttr = %+v, %v", attr, err)
	}

	bid, err := c.AppendBlock(inum)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.WriteBlock(bid, []byte("tail")); err != nil {
		t.Fatal(err)
	}
	block, err := c.ReadBlock(bid)
	if err != nil || len(block) != myhdfs.BlockSize || string(block[:4]) != "tail" {
		t.Fatalf("ReadBlock = %d bytes, %v", len(block), err)
	}
	ids, err := c.GetBlockIDs(inum)
	if err != nil || len(ids) != 3 || ids[2] != bid {
		t.Fatalf("GetBlockIDs = %v, %v", ids, err)
	}
	size := uint32(2*myhdfs.BlockSize + 4)
	if err := c.Complete(inum, size); err != nil {
		t.Fatal(err)
	}
	if attr, _ := c.GetAttr(inum); attr.Size != size {
		t.Errorf("size after complete = %d", attr.Size)
	}

	if err := c.Remove(inum); err != nil {
		t.Fatal(err)
	}
	_, err = c.Get(inum)
	if !errors.Is(err, myhdfs.ErrNotFound) || myhdfs.CodeOf(err) != myhdfs.NotFound {
		t.Errorf("Get after remove err = %v", err)
	}
}

func TestRemoteErrors(t *testing.T) {
	_, c := newTestServer(t, "")
	if _, err := c.Create(myhdfs.TypeFree); !errors.Is(err, myhdfs.ErrBadType) {
		t.Errorf("Create(free) err = %v", err)
	}
	if err := c.WriteBlock(myhdfs.BlockNum, []byte("x")); !errors.Is(err, myhdfs.ErrInvalidBlock) {
		t.Errorf("WriteBlock out of range err = %v", err)
	}
	if err := c.WriteBlock(myhdfs.FirstDataBlock, nil); !errors.Is(err, myhdfs.ErrNilBuffer) {
		t.Errorf("WriteBlock(nil) err = %v", err)
	}
	big := make([]byte, myhdfs.MaxFile*myhdfs.BlockSize+1)
	if err := c.Put(myhdfs.RootInum, big); myhdfs.CodeOf(err) != myhdfs.OversizeRequest {
		t.Errorf("oversize Put err = %v", err)
	}
}

func TestBadRequest(t *testing.T) {
	s := NewServer(local, "")
	defer s.Stop()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/extent/get", strings.NewReader("{not json"))
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestImageSurvivesRestart(t *testing.T) {
	root := t.TempDir()
	s := NewServer(local, root)
	inum, _ := s.Store().Create(myhdfs.TypeFile)
	if err := s.Store().Put(inum, []byte("kept across restarts")); err != nil {
		t.Fatal(err)
	}
	s.Stop()
	if _, err := os.Stat(path.Join(root, MetaFileName)); err != nil {
		t.Fatalf("no image stored: %v", err)
	}

	s = NewServer(local, root)
	defer s.Stop()
	got, err := s.Store().Get(inum)
	if err != nil || string(got) != "kept across restarts" {
		t.Fatalf("Get after restart = %q, %v", got, err)
	}
	if next, _ := s.Store().Create(myhdfs.TypeFile); next != inum+1 {
		t.Errorf("next inode = %v, want %v", next, inum+1)
	}
}
