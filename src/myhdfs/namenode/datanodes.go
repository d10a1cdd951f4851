package namenode

import (
	"sort"
	"sync"

	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	log "github.com/sirupsen/logrus"
)

// datanodeManager keeps the tick of the last heartbeat of every datanode.
// Datanodes are never removed, stale ones are filtered out when listed.
type datanodeManager struct {
	sync.RWMutex
	datanodes        map[myhdfs.DatanodeID]uint64
	heartbeatCounter uint64
	master           myhdfs.DatanodeID
}

func newDatanodeManager(master myhdfs.DatanodeID) *datanodeManager {
	return &datanodeManager{
		datanodes: make(map[myhdfs.DatanodeID]uint64),
		master:    master,
	}
}

func (dm *datanodeManager) tick() {
	dm.Lock()
	defer dm.Unlock()
	dm.heartbeatCounter++
}

func (dm *datanodeManager) Heartbeat(id myhdfs.DatanodeID) {
	dm.Lock()
	defer dm.Unlock()
	dm.datanodes[id] = dm.heartbeatCounter
}

// Register inserts id at the current tick. The first datanode becomes the
// replication master unless one was configured.
func (dm *datanodeManager) Register(id myhdfs.DatanodeID) {
	dm.Lock()
	defer dm.Unlock()
	if _, ok := dm.datanodes[id]; !ok {
		log.Info("new datanode ", id.Address().ToString(), " ", id.DatanodeUUID)
	}
	dm.datanodes[id] = dm.heartbeatCounter
	if dm.master == (myhdfs.DatanodeID{}) {
		dm.master = id
	}
}

// Master returns the datanode blocks are copied from. A master that is not
// alive is replaced by the first alive datanode; false if there is none.
func (dm *datanodeManager) Master() (myhdfs.DatanodeID, bool) {
	dm.Lock()
	defer dm.Unlock()
	if last, ok := dm.datanodes[dm.master]; ok && dm.alive(last) {
		return dm.master, true
	}
	alive := dm.aliveLocked()
	if len(alive) == 0 {
		return myhdfs.DatanodeID{}, false
	}
	if dm.master != (myhdfs.DatanodeID{}) {
		log.Warn("master datanode ", dm.master.Address().ToString(), " is not alive, using ", alive[0].Address().ToString())
	}
	dm.master = alive[0]
	return dm.master, true
}

func (dm *datanodeManager) alive(last uint64) bool {
	return dm.heartbeatCounter-last < myhdfs.AliveTicks
}

// Alive lists the datanodes whose last heartbeat is less than AliveTicks ticks old.
func (dm *datanodeManager) Alive() []myhdfs.DatanodeID {
	dm.RLock()
	defer dm.RUnlock()
	return dm.aliveLocked()
}

func (dm *datanodeManager) aliveLocked() []myhdfs.DatanodeID {
	ret := make([]myhdfs.DatanodeID, 0, len(dm.datanodes))
	for id, last := range dm.datanodes {
		if dm.alive(last) {
			ret = append(ret, id)
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		a, b := ret[i].Address(), ret[j].Address()
		if a.ToString() != b.ToString() {
			return a.ToString() < b.ToString()
		}
		return ret[i].DatanodeUUID < ret[j].DatanodeUUID
	})
	return ret
}
