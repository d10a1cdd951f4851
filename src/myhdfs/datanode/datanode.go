package datanode

import (
	"errors"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/util"
	log "github.com/sirupsen/logrus"
)

// Datanode serves partial block I/O on top of an extent service and reports
// itself to the namenode every HeartbeatInterval.
type Datanode struct {
	sync.Mutex
	id       myhdfs.DatanodeID
	namenode myhdfs.ServerAddress // namenode address
	engine   *gin.Engine
	logger   *log.Entry
	srv      *http.Server
	shutdown chan struct{}
	running  bool // heartbeat loop started
	dead     bool // set to true if server is shutdown

	ec       myhdfs.ExtentService
	interval time.Duration
}

func (dn *Datanode) setupRouter() {
	router := dn.engine
	router.POST("/shutdown", dn.RPCShutdown)
	router.POST("/block/read", dn.RPCReadBlock)
	router.POST("/block/write", dn.RPCWriteBlock)
}

func NewDatanode(ec myhdfs.ExtentService) *Datanode {
	dn := &Datanode{
		engine:   gin.Default(),
		logger:   log.WithField("datanode", "uninitialized"),
		shutdown: make(chan struct{}),
		ec:       ec,
		interval: myhdfs.HeartbeatInterval,
	}
	dn.setupRouter()
	return dn
}

func (dn *Datanode) ID() myhdfs.DatanodeID {
	dn.Lock()
	defer dn.Unlock()
	return dn.id
}

// Init listens on bind, registers on the namenode and starts heartbeats.
// Any failure closes the listener and nothing keeps running.
func (dn *Datanode) Init(namenode myhdfs.ServerAddress, bind string) error {
	l, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}
	id := newDatanodeID(l.Addr().(*net.TCPAddr))

	srv := &http.Server{Handler: dn.engine}

	dn.Lock()
	dn.id = id
	dn.namenode = namenode
	dn.srv = srv
	dn.logger = log.WithField("datanode", id.Address().ToString())
	dn.Unlock()

	// the namenode copies blocks to us while we register, so serve first
	go func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			dn.logger.Error(err.Error())
		}
	}()

	fail := func(err error) error {
		dn.logger.Error("init error ", err)
		srv.Close()
		l.Close()
		return err
	}
	if _, err := util.PingCall(namenode); err != nil {
		return fail(err)
	}
	if _, err := util.RegisterDatanodeCall(namenode, &myhdfs.RegisterDatanodeArg{ID: id}); err != nil {
		return fail(err)
	}

	dn.Lock()
	dn.running = true
	dn.Unlock()
	go dn.startBackground()
	dn.logger.Infof("datanode is now running, uuid = %v, namenode addr = %v", id.DatanodeUUID, namenode.ToString())
	return nil
}

// newDatanodeID derives the identity of a datanode from its listen address
func newDatanodeID(addr *net.TCPAddr) myhdfs.DatanodeID {
	ip := addr.IP.String()
	if addr.IP.IsUnspecified() {
		ip = "127.0.0.1"
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	return myhdfs.DatanodeID{
		IPAddr:       ip,
		Hostname:     hostname,
		DatanodeUUID: uuid.New().String(),
		XferPort:     uint16(addr.Port),
	}
}

// Handler returns the http handler of the datanode, mainly for tests.
func (dn *Datanode) Handler() http.Handler {
	return dn.engine
}

func (dn *Datanode) startBackground() {
	heartbeatTicker := time.NewTicker(dn.interval)
	defer heartbeatTicker.Stop()
	quickStart := make(chan bool, 1) // send first heartbeat right away..
	quickStart <- true
	for {
		var err error
		select {
		case <-dn.shutdown:
			return
		case <-quickStart:
			err = dn.heartbeat()
		case <-heartbeatTicker.C:
			err = dn.heartbeat()
		}
		if err != nil {
			dn.logger.Errorf("background(heartbeat) error %v", err)
		}
	}
}

// Stop ends the heartbeat loop and closes the listener and every open connection.
func (dn *Datanode) Stop() {
	dn.Lock()
	defer dn.Unlock()
	if !dn.dead {
		dn.logger.Warning("Shutdown")
		dn.dead = true
		close(dn.shutdown)
		if dn.srv != nil {
			dn.srv.Close()
		}
	}
}
