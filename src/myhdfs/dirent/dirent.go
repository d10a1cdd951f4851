// Package dirent packs directory contents: a directory's data is a sequence of
// fixed 64-byte entries, a NUL padded name followed by a little-endian inode number.
package dirent

import (
	"bytes"
	"encoding/binary"

	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
)

const (
	MaxNameLen = 60
	InumLen    = 4
	EntryLen   = MaxNameLen + InumLen
)

// Encode returns the on-disk form of one entry.
func Encode(name string, inum myhdfs.Inum) ([]byte, error) {
	if len(name) > MaxNameLen {
		return nil, myhdfs.ErrNameTooLong
	}
	if name == "" || bytes.IndexByte([]byte(name), 0) >= 0 {
		return nil, myhdfs.ErrBadName
	}
	e := make([]byte, EntryLen)
	copy(e, name)
	binary.LittleEndian.PutUint32(e[MaxNameLen:], uint32(inum))
	return e, nil
}

func decode(e []byte) myhdfs.DirEntry {
	name := e[:MaxNameLen]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return myhdfs.DirEntry{
		Name: string(name),
		Inum: myhdfs.Inum(binary.LittleEndian.Uint32(e[MaxNameLen:EntryLen])),
	}
}

// Parse decodes every whole entry in buf. A trailing partial entry is ignored.
func Parse(buf []byte) []myhdfs.DirEntry {
	entries := make([]myhdfs.DirEntry, 0, len(buf)/EntryLen)
	for pos := 0; pos+EntryLen <= len(buf); pos += EntryLen {
		entries = append(entries, decode(buf[pos:pos+EntryLen]))
	}
	return entries
}

// Lookup finds name in buf and returns its inode number and byte position.
func Lookup(buf []byte, name string) (myhdfs.Inum, int, bool) {
	for pos := 0; pos+EntryLen <= len(buf); pos += EntryLen {
		e := decode(buf[pos : pos+EntryLen])
		if e.Name == name {
			return e.Inum, pos, true
		}
	}
	return 0, -1, false
}

// Append adds an entry at the end of buf.
func Append(buf []byte, name string, inum myhdfs.Inum) ([]byte, error) {
	e, err := Encode(name, inum)
	if err != nil {
		return buf, err
	}
	out := make([]byte, 0, len(buf)+EntryLen)
	out = append(out, buf...)
	return append(out, e...), nil
}

// Remove drops the entry starting at pos.
func Remove(buf []byte, pos int) []byte {
	out := make([]byte, 0, len(buf)-EntryLen)
	out = append(out, buf[:pos]...)
	return append(out, buf[pos+EntryLen:]...)
}
