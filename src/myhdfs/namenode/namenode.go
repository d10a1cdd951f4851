package namenode

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	log "github.com/sirupsen/logrus"
)

// Config configures a Namenode. Extent and Lock are required.
type Config struct {
	Address myhdfs.ServerAddress
	Extent  myhdfs.ExtentService
	Lock    myhdfs.LockService

	// MasterDatanode is the source of block copies for newly registered datanodes.
	// The first registered datanode is used when it is zero.
	MasterDatanode myhdfs.DatanodeID
	// AsyncReplication registers a datanode at once and copies the blocks in background.
	AsyncReplication bool
	// TickInterval defaults to myhdfs.HeartbeatTickInterval.
	TickInterval time.Duration
}

// Namenode owns the namespace and knows which datanodes are alive.
type Namenode struct {
	sync.Mutex
	address  myhdfs.ServerAddress
	engine   *gin.Engine
	logger   *log.Entry
	srv      *http.Server
	shutdown chan struct{}
	dead     bool // set to true if server is shutdown

	ec    myhdfs.ExtentService
	lc    myhdfs.LockService
	async bool

	nsLock  sync.Mutex // serializes directory mutations
	dm      *datanodeManager
	written *blockSet

	// replicate copies one block between datanodes, replaced in tests
	replicate func(bid myhdfs.BlockID, from, to myhdfs.DatanodeID) error
}

func (nn *Namenode) setupRouter() {
	router := nn.engine
	router.POST("/shutdown", nn.RPCShutdown)
	router.POST("/ping", nn.RPCPing)
	router.POST("/datanode/register", nn.RPCRegisterDatanode)
	router.POST("/heartbeat", nn.RPCHeartbeat)
	router.POST("/datanodes", nn.RPCGetDatanodes)
	router.POST("/block/locations", nn.RPCGetBlockLocations)
	router.POST("/block/append", nn.RPCAppendBlock)
	router.POST("/file/complete", nn.RPCComplete)
	router.POST("/file/create", nn.RPCCreate)
	router.POST("/file/unlink", nn.RPCUnlink)
	router.POST("/file/rename", nn.RPCRename)
	router.POST("/mkdir", nn.RPCMkdir)
	router.POST("/lookup", nn.RPCLookup)
	router.POST("/readdir", nn.RPCReaddir)
	router.POST("/attr", nn.RPCGetAttr)
}

func NewNamenode(cfg Config) *Namenode {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = myhdfs.HeartbeatTickInterval
	}
	nn := &Namenode{
		address:  cfg.Address,
		engine:   gin.Default(),
		logger:   log.WithField("namenode", cfg.Address.ToString()),
		shutdown: make(chan struct{}),
		dead:     false,
		ec:       cfg.Extent,
		lc:       cfg.Lock,
		async:    cfg.AsyncReplication,
		dm:       newDatanodeManager(cfg.MasterDatanode),
		written:  newBlockSet(),
	}
	nn.replicate = nn.replicateBlock
	nn.setupRouter()
	go nn.startBackground(cfg.TickInterval)
	nn.logger.Infof("namenode is now running, tick = %v", cfg.TickInterval)
	return nn
}

// Handler returns the http handler of the namenode, mainly for tests.
func (nn *Namenode) Handler() http.Handler {
	return nn.engine
}

func (nn *Namenode) startBackground(interval time.Duration) {
	heartbeatTicker := time.NewTicker(interval)
	defer heartbeatTicker.Stop()
	for {
		select {
		case <-nn.shutdown:
			return
		case <-heartbeatTicker.C:
			nn.dm.tick()
		}
	}
}

// Serve serves requests on l until the namenode is shut down.
func (nn *Namenode) Serve(l net.Listener) error {
	srv := &http.Server{Handler: nn.engine}
	nn.Lock()
	if nn.dead {
		nn.Unlock()
		l.Close()
		return nil
	}
	nn.srv = srv
	nn.Unlock()
	err := srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (nn *Namenode) Start(group *sync.WaitGroup) {
	group.Add(1)
	defer group.Done()
	l, err := net.Listen("tcp", ":"+strconv.FormatUint(uint64(nn.address.Port), 10))
	if err != nil {
		nn.logger.Error(err.Error())
		return
	}
	if err := nn.Serve(l); err != nil {
		nn.logger.Error(err.Error())
	}
}

// Stop stops the tick loop and closes the listener.
func (nn *Namenode) Stop() {
	nn.Lock()
	defer nn.Unlock()
	if !nn.dead {
		nn.logger.Warning("Shutdown")
		nn.dead = true
		close(nn.shutdown)
		if nn.srv != nil {
			nn.srv.Close()
		}
	}
}
