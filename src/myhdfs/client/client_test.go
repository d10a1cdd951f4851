package client

import (
	"bytes"
	"errors"
	"math/rand"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/datanode"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/extent"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/inode"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/lock"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/namenode"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newExtent(t *testing.T) myhdfs.ExtentService {
	t.Helper()
	im, err := inode.NewManager()
	if err != nil {
		t.Fatal(err)
	}
	return extent.NewLocal(im)
}

func startNamenode(t *testing.T) (*namenode.Namenode, myhdfs.ServerAddress) {
	t.Helper()
	nn := namenode.NewNamenode(namenode.Config{
		Address: myhdfs.ServerAddress{Hostname: "127.0.0.1", Port: 0},
		Extent:  newExtent(t),
		Lock:    lock.NewManager(),
	})
	ts := httptest.NewServer(nn.Handler())
	t.Cleanup(func() {
		ts.Close()
		nn.Stop()
	})
	addr, err := myhdfs.ParseAddress(strings.TrimPrefix(ts.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	return nn, addr
}

// startDatanode starts a datanode with a disk of its own
func startDatanode(t *testing.T, nn myhdfs.ServerAddress) *datanode.Datanode {
	t.Helper()
	dn := datanode.NewDatanode(newExtent(t))
	if err := dn.Init(nn, "127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(dn.Stop)
	return dn
}

func newClient(t *testing.T, nn myhdfs.ServerAddress) *Client {
	c := NewClient(nn)
	t.Cleanup(c.Close)
	return c
}

func randomData(n int) []byte {
	data := make([]byte, n)
	rand.Read(data)
	return data
}

func TestWriteReadAndReplication(t *testing.T) {
	nn, addr := startNamenode(t)
	dn1 := startDatanode(t, addr)
	c := newClient(t, addr)

	d, err := c.Mkdir(myhdfs.RootInum, "d")
	if err != nil {
		t.Fatal(err)
	}
	f, err := c.Create(d, "f")
	if err != nil {
		t.Fatal(err)
	}
	first := randomData(1300)
	if err := c.Append(f, first); err != nil {
		t.Fatal(err)
	}
	got, err := c.ReadFile(f)
	if err != nil || !bytes.Equal(got, first) {
		t.Fatalf("ReadFile = %d bytes, %v", len(got), err)
	}

	// fills the partial last block before appending new ones
	second := randomData(300)
	if err := c.Append(f, second); err != nil {
		t.Fatal(err)
	}
	want := append(append([]byte{}, first...), second...)
	got, err = c.ReadFile(f)
	if err != nil || !bytes.Equal(got, want) {
		t.Fatalf("ReadFile after append = %d bytes, %v", len(got), err)
	}
	if attr, _ := c.GetAttr(f); attr.Size != uint32(len(want)) || attr.Type != myhdfs.TypeFile {
		t.Errorf("attr = %+v", attr)
	}

	// a late datanode receives every block, so the file survives losing the first one
	startDatanode(t, addr)
	if alive := nn.GetDatanodes(); len(alive) != 2 {
		t.Fatalf("alive = %v", alive)
	}
	dn1.Stop()
	got, err = c.ReadFile(f)
	if err != nil || !bytes.Equal(got, want) {
		t.Fatalf("ReadFile without the first datanode = %d bytes, %v", len(got), err)
	}
}

func TestNamespaceThroughClient(t *testing.T) {
	_, addr := startNamenode(t)
	startDatanode(t, addr)
	c := newClient(t, addr)

	f, _ := c.Create(myhdfs.RootInum, "a.txt")
	if err := c.Append(f, []byte("small")); err != nil {
		t.Fatal(err)
	}
	if found, err := c.Rename(myhdfs.RootInum, "a.txt", myhdfs.RootInum, "b.txt"); !found || err != nil {
		t.Fatalf("Rename = %v, %v", found, err)
	}
	entries, err := c.Readdir(myhdfs.RootInum)
	if err != nil || len(entries) != 1 || entries[0].Name != "b.txt" || entries[0].Inum != f {
		t.Fatalf("Readdir = %v, %v", entries, err)
	}
	if found, inum, _ := c.Lookup(myhdfs.RootInum, "b.txt"); !found || inum != f {
		t.Errorf("Lookup = %v, %v", found, inum)
	}
	if _, err := c.Create(myhdfs.RootInum, "b.txt"); !errors.Is(err, myhdfs.ErrExist) {
		t.Errorf("duplicate Create err = %v", err)
	}
	if found, err := c.Unlink(myhdfs.RootInum, "b.txt"); !found || err != nil {
		t.Fatalf("Unlink = %v, %v", found, err)
	}
	if _, err := c.ReadFile(f); !errors.Is(err, myhdfs.ErrNotFound) {
		t.Errorf("ReadFile after unlink err = %v", err)
	}
}

func TestAppendWithoutDatanodes(t *testing.T) {
	_, addr := startNamenode(t)
	c := newClient(t, addr)
	f, _ := c.Create(myhdfs.RootInum, "f")
	if err := c.Append(f, []byte("data")); !errors.Is(err, myhdfs.ErrNoDatanode) {
		t.Errorf("err = %v", err)
	}
	if err := c.Append(f, make([]byte, myhdfs.MaxFile*myhdfs.BlockSize+1)); !errors.Is(err, myhdfs.ErrFileTooLarge) {
		t.Errorf("oversize append err = %v", err)
	}
}
