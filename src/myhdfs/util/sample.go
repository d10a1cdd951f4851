package util

import (
	"math/rand"

	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
)

// Sample randomly chooses k elements from {0, 1, ..., n-1}.
// n should not be less than k.
func Sample(n, k int) ([]int, error) {
	if n < k {
		return nil, myhdfs.Error{Code: myhdfs.InvalidArgument, Err: "population is not enough for sampling"}
	}
	return rand.Perm(n)[:k], nil
}

// Shuffle returns the datanodes in random order, used to spread reads over replicas.
func Shuffle(nodes []myhdfs.DatanodeID) []myhdfs.DatanodeID {
	idx, _ := Sample(len(nodes), len(nodes))
	ret := make([]myhdfs.DatanodeID, len(nodes))
	for i, j := range idx {
		ret[i] = nodes[j]
	}
	return ret
}
