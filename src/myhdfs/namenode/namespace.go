package namenode

import (
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
	"github.com/jry-king/SJTU-SE-labs/src/myhdfs/dirent"
)

// readDir returns the raw entries of dir, ErrNotDir if it is not a directory
func (nn *Namenode) readDir(dir myhdfs.Inum) ([]byte, error) {
	attr, err := nn.ec.GetAttr(dir)
	if err != nil {
		return nil, err
	}
	if attr.Type != myhdfs.TypeDir {
		return nil, myhdfs.ErrNotDir
	}
	return nn.ec.Get(dir)
}

// mknod creates an inode of type t under parent. nsLock must be held.
func (nn *Namenode) mknod(parent myhdfs.Inum, name string, t myhdfs.InodeType) (myhdfs.Inum, error) {
	if _, err := dirent.Encode(name, 0); err != nil {
		return 0, err
	}
	buf, err := nn.readDir(parent)
	if err != nil {
		return 0, err
	}
	if _, _, found := dirent.Lookup(buf, name); found {
		return 0, myhdfs.ErrExist
	}
	inum, err := nn.ec.Create(t)
	if err != nil {
		return 0, err
	}
	if buf, err = dirent.Append(buf, name, inum); err != nil {
		return 0, err
	}
	if err := nn.ec.Put(parent, buf); err != nil {
		return 0, err
	}
	nn.logger.Debugf("%v %q created in inode %v as inode %v", t, name, parent, inum)
	return inum, nil
}

// Create makes a new file and returns it locked. The lock is released by Complete.
func (nn *Namenode) Create(parent myhdfs.Inum, name string) (myhdfs.Inum, error) {
	nn.nsLock.Lock()
	inum, err := nn.mknod(parent, name, myhdfs.TypeFile)
	nn.nsLock.Unlock()
	if err != nil {
		return 0, err
	}
	if err := nn.lc.Acquire(inum); err != nil {
		return 0, err
	}
	return inum, nil
}

func (nn *Namenode) Mkdir(parent myhdfs.Inum, name string) (myhdfs.Inum, error) {
	nn.nsLock.Lock()
	defer nn.nsLock.Unlock()
	return nn.mknod(parent, name, myhdfs.TypeDir)
}

func (nn *Namenode) Lookup(parent myhdfs.Inum, name string) (bool, myhdfs.Inum, error) {
	buf, err := nn.readDir(parent)
	if err != nil {
		return false, 0, err
	}
	inum, _, found := dirent.Lookup(buf, name)
	return found, inum, nil
}

func (nn *Namenode) Readdir(dir myhdfs.Inum) ([]myhdfs.DirEntry, error) {
	buf, err := nn.readDir(dir)
	if err != nil {
		return nil, err
	}
	return dirent.Parse(buf), nil
}

// Unlink removes name from parent together with its inode.
func (nn *Namenode) Unlink(parent myhdfs.Inum, name string) (bool, error) {
	nn.nsLock.Lock()
	defer nn.nsLock.Unlock()

	buf, err := nn.readDir(parent)
	if err != nil {
		return false, err
	}
	inum, pos, found := dirent.Lookup(buf, name)
	if !found {
		return false, nil
	}
	files := nn.filesBelow(inum)
	if err := nn.ec.Remove(inum); err != nil {
		return false, err
	}
	if err := nn.ec.Put(parent, dirent.Remove(buf, pos)); err != nil {
		return false, err
	}
	// a file created but never completed still holds its lock
	for _, f := range files {
		if err := nn.lc.Release(f); err == nil {
			nn.logger.Debugf("unlink: released lock of inode %v", f)
		}
	}
	nn.logger.Debugf("unlink: %q (inode %v) removed from inode %v", name, inum, parent)
	return true, nil
}

// filesBelow lists the regular files at and below inum.
func (nn *Namenode) filesBelow(inum myhdfs.Inum) []myhdfs.Inum {
	var files []myhdfs.Inum
	visited := make(map[myhdfs.Inum]bool)
	stack := []myhdfs.Inum{inum}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		attr, err := nn.ec.GetAttr(cur)
		if err != nil {
			continue
		}
		if attr.Type != myhdfs.TypeDir {
			files = append(files, cur)
			continue
		}
		buf, err := nn.ec.Get(cur)
		if err != nil {
			continue
		}
		for _, e := range dirent.Parse(buf) {
			stack = append(stack, e.Inum)
		}
	}
	return files
}

// Rename moves the entry srcName of srcDir to dstName in dstDir.
// It returns false if srcName does not exist.
func (nn *Namenode) Rename(srcDir myhdfs.Inum, srcName string, dstDir myhdfs.Inum, dstName string) (bool, error) {
	nn.nsLock.Lock()
	defer nn.nsLock.Unlock()
	nn.logger.Debugf("rename: %q in inode %v to %q in inode %v", srcName, srcDir, dstName, dstDir)

	if _, err := dirent.Encode(dstName, 0); err != nil {
		return false, err
	}
	src, err := nn.readDir(srcDir)
	if err != nil {
		return false, err
	}
	inum, pos, found := dirent.Lookup(src, srcName)
	if !found {
		return false, nil
	}
	src = dirent.Remove(src, pos)

	var dst []byte
	if srcDir == dstDir {
		dst = src
	} else if dst, err = nn.readDir(dstDir); err != nil {
		return false, err
	}
	if _, _, exist := dirent.Lookup(dst, dstName); exist {
		return false, myhdfs.ErrExist
	}
	if dst, err = dirent.Append(dst, dstName, inum); err != nil {
		return false, err
	}

	if srcDir != dstDir {
		if err := nn.ec.Put(srcDir, src); err != nil {
			return false, err
		}
	}
	if err := nn.ec.Put(dstDir, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (nn *Namenode) GetAttr(inum myhdfs.Inum) (myhdfs.Attr, error) {
	return nn.ec.GetAttr(inum)
}

func (nn *Namenode) Isfile(inum myhdfs.Inum) bool {
	attr, err := nn.ec.GetAttr(inum)
	return err == nil && attr.Type == myhdfs.TypeFile
}

func (nn *Namenode) Isdir(inum myhdfs.Inum) bool {
	attr, err := nn.ec.GetAttr(inum)
	return err == nil && attr.Type == myhdfs.TypeDir
}
