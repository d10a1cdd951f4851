package extent

import (
	"encoding/gob"
	"errors"
	"net"
	"net/http"
	"os"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/disk"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/inode"
	log "github.com/sirupsen/logrus"
)

const (
	MetaFileName = "myhdfs-extent.meta"
	FilePerm     = 0755
)

// Server exposes one disk over http. Both the namenode and every datanode
// reach the same disk through it.
type Server struct {
	sync.Mutex
	address    myhdfs.ServerAddress
	serverRoot string // where the disk image is stored, nothing is stored if empty
	engine     *gin.Engine
	logger     *log.Entry
	srv        *http.Server
	shutdown   chan struct{}
	dead       bool // set to true if server is shutdown

	im    *inode.Manager
	store *Local
}

func (s *Server) setupRouter() {
	router := s.engine
	router.POST("/shutdown", s.Shutdown)
	router.POST("/extent/get", s.Get)
	router.POST("/extent/put", s.Put)
	router.POST("/extent/create", s.Create)
	router.POST("/extent/remove", s.Remove)
	router.POST("/attr", s.GetAttr)
	router.POST("/extent/block/read", s.ReadBlock)
	router.POST("/extent/block/write", s.WriteBlock)
	router.POST("/extent/block/append", s.AppendBlock)
	router.POST("/extent/block/ids", s.GetBlockIDs)
	router.POST("/extent/complete", s.Complete)
}

// NewServer loads the disk image from serverRoot, or formats a new disk if there is none.
func NewServer(address myhdfs.ServerAddress, serverRoot string) *Server {
	s := &Server{
		address:    address,
		serverRoot: serverRoot,
		engine:     gin.Default(),
		logger:     log.WithField("extent", address.ToString()),
		shutdown:   make(chan struct{}),
		dead:       false,
	}
	if serverRoot != "" {
		if err := os.MkdirAll(serverRoot, FilePerm); err != nil {
			log.Fatal("error in mkdir ", err)
		}
	}
	// load metadata for recovery
	if err := s.loadMeta(); err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warning("error in load disk image: ", err)
		}
		im, err := inode.NewManager()
		if err != nil {
			log.Fatal("error in format disk ", err)
		}
		s.im = im
	}
	s.store = NewLocal(s.im)
	s.setupRouter()
	go s.startBackground()
	s.logger.Infof("extent server is now running, root path = %v", serverRoot)
	return s
}

// Handler returns the http handler of the server, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Store returns the extent operations served by s.
func (s *Server) Store() myhdfs.ExtentService {
	return s.store
}

func (s *Server) startBackground() {
	storeTicker := time.NewTicker(myhdfs.ExtentStoreInterval)
	defer storeTicker.Stop()
	for {
		select {
		case <-s.shutdown:
			return
		case <-storeTicker.C:
			if err := s.storeMeta(); err != nil {
				s.logger.Error("background(storemeta) error ", err)
			}
		}
	}
}

// Serve serves requests on l until the server is shut down.
func (s *Server) Serve(l net.Listener) error {
	srv := &http.Server{Handler: s.engine}
	s.Lock()
	if s.dead {
		s.Unlock()
		l.Close()
		return nil
	}
	s.srv = srv
	s.Unlock()
	err := srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Start(group *sync.WaitGroup) {
	group.Add(1)
	defer group.Done()
	l, err := net.Listen("tcp", ":"+strconv.FormatUint(uint64(s.address.Port), 10))
	if err != nil {
		s.logger.Error(err.Error())
		return
	}
	if err := s.Serve(l); err != nil {
		s.logger.Error(err.Error())
	}
}

// Stop stops the background task, closes the listener and stores the disk image.
func (s *Server) Stop() {
	s.Lock()
	if !s.dead {
		s.logger.Warning("Shutdown")
		s.dead = true
		close(s.shutdown)
		if s.srv != nil {
			s.srv.Close()
		}
	}
	s.Unlock()
	if err := s.storeMeta(); err != nil {
		s.logger.Warning("error in store disk image: ", err)
	}
}

type PersistentDisk struct {
	Image []byte
}

// loadMeta loads the disk image
func (s *Server) loadMeta() error {
	if s.serverRoot == "" {
		return os.ErrNotExist
	}
	filename := path.Join(s.serverRoot, MetaFileName)
	file, err := os.OpenFile(filename, os.O_RDONLY, FilePerm)
	if err != nil {
		return err
	}
	defer file.Close()

	var meta PersistentDisk
	dec := gob.NewDecoder(file)
	if err := dec.Decode(&meta); err != nil {
		return err
	}

	d, err := disk.LoadDisk(meta.Image)
	if err != nil {
		return err
	}
	bm, err := disk.OpenBlockManager(d)
	if err != nil {
		return err
	}
	im, err := inode.OpenManager(bm)
	if err != nil {
		return err
	}
	s.im = im
	s.logger.Infof("disk image loaded from %v, %v data blocks in use", filename, bm.UsedDataBlocks())
	return nil
}

// storeMeta stores the disk image
func (s *Server) storeMeta() error {
	if s.serverRoot == "" {
		return nil
	}
	filename := path.Join(s.serverRoot, MetaFileName)
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FilePerm)
	if err != nil {
		return err
	}
	defer file.Close()

	meta := PersistentDisk{Image: s.im.BlockManager().Image()}
	s.logger.Infof("store disk image")
	enc := gob.NewEncoder(file)
	return enc.Encode(meta)
}
