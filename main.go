package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/client"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/datanode"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/extent"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/inode"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/lock"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/namenode"
	log "github.com/sirupsen/logrus"
)

var (
	role         = flag.String("role", "demo", "extent, namenode, datanode or demo")
	addr         = flag.String("addr", "127.0.0.1:5400", "address to serve on")
	namenodeAddr = flag.String("namenode", "127.0.0.1:5401", "namenode address")
	extentAddr   = flag.String("extent", "127.0.0.1:5400", "extent server address")
	root         = flag.String("root", "", "directory for the extent disk image, empty keeps it in memory")
	async        = flag.Bool("async", false, "replicate blocks to new datanodes in background")
)

func mustParse(s string) myhdfs.ServerAddress {
	a, err := myhdfs.ParseAddress(s)
	if err != nil {
		log.Fatalf("bad address %q: %v", s, err)
	}
	return a
}

func waitSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
}

func main() {
	flag.Parse()
	wg := &sync.WaitGroup{}
	switch *role {
	case "extent":
		s := extent.NewServer(mustParse(*addr), *root)
		go s.Start(wg)
		waitSignal()
		s.Stop()
	case "namenode":
		nn := namenode.NewNamenode(namenode.Config{
			Address:          mustParse(*addr),
			Extent:           extent.NewClient(mustParse(*extentAddr)),
			Lock:             lock.NewManager(),
			AsyncReplication: *async,
		})
		go nn.Start(wg)
		waitSignal()
		nn.Stop()
	case "datanode":
		im, err := inode.NewManager()
		if err != nil {
			log.Fatal(err)
		}
		dn := datanode.NewDatanode(extent.NewLocal(im))
		if err := dn.Init(mustParse(*namenodeAddr), *addr); err != nil {
			log.Fatal(err)
		}
		waitSignal()
		dn.Stop()
	case "demo":
		demo(wg)
	default:
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}
	wg.Wait()
}

func demo(wg *sync.WaitGroup) {
	extentAddress := myhdfs.ServerAddress{Hostname: "127.0.0.1", Port: 5400}
	namenodeAddress := myhdfs.ServerAddress{Hostname: "127.0.0.1", Port: 5401}

	es := extent.NewServer(extentAddress, *root)
	go es.Start(wg)
	nn := namenode.NewNamenode(namenode.Config{
		Address: namenodeAddress,
		Extent:  extent.NewClient(extentAddress),
		Lock:    lock.NewManager(),
	})
	go nn.Start(wg)
	time.Sleep(time.Second)

	var nodes []*datanode.Datanode
	for _, bind := range []string{"127.0.0.1:5402", "127.0.0.1:5403"} {
		im, err := inode.NewManager()
		if err != nil {
			log.Fatal(err)
		}
		dn := datanode.NewDatanode(extent.NewLocal(im))
		if err := dn.Init(namenodeAddress, bind); err != nil {
			log.Error(err)
			continue
		}
		nodes = append(nodes, dn)
	}

	c := client.NewClient(namenodeAddress)
	defer c.Close()

	dir, err := c.Mkdir(myhdfs.RootInum, "dir1")
	if err != nil {
		log.Error(err)
		return
	}
	file, err := c.Create(dir, "test1.txt")
	if err != nil {
		log.Error(err)
		return
	}
	if _, err := c.Create(dir, "test1.txt"); err != nil {
		fmt.Println(err.Error())
	}
	if err := c.Append(file, []byte("hello myhdfs\n")); err != nil {
		log.Error(err)
		return
	}
	data, err := c.ReadFile(file)
	if err != nil {
		log.Error(err)
		return
	}
	fmt.Print(string(data))

	if _, err := c.Rename(dir, "test1.txt", myhdfs.RootInum, "moved.txt"); err != nil {
		log.Error(err)
	}
	entries, err := c.Readdir(myhdfs.RootInum)
	if err != nil {
		log.Error(err)
	}
	fmt.Println(entries)

	for _, dn := range nodes {
		dn.Stop()
	}
	nn.Stop()
	es.Stop()
}
