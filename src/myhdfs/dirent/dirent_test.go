package dirent

import (
	"errors"
	"strings"
	"testing"

	"github.com/jry-king/SJTU-SE-labs/src/myhdfs"
)

func TestAppendLookupRemove(t *testing.T) {
	var buf []byte
	var err error
	for i, name := range []string{"a.txt", "b", "dir"} {
		buf, err = Append(buf, name, myhdfs.Inum(i+2))
		if err != nil {
			t.Fatal(err)
		}
	}
	if len(buf) != 3*EntryLen {
		t.Fatalf("len = %d", len(buf))
	}
	inum, pos, ok := Lookup(buf, "b")
	if !ok || inum != 3 || pos != EntryLen {
		t.Fatalf("Lookup(b) = %d, %d, %v", inum, pos, ok)
	}
	// prefix of an existing name must not match
	if _, _, ok := Lookup(buf, "di"); ok {
		t.Error("prefix matched")
	}
	buf = Remove(buf, pos)
	entries := Parse(buf)
	if len(entries) != 2 || entries[0].Name != "a.txt" || entries[1].Name != "dir" || entries[1].Inum != 4 {
		t.Fatalf("entries after remove = %+v", entries)
	}
}

func TestNameLimits(t *testing.T) {
	if _, err := Encode(strings.Repeat("x", MaxNameLen), 2); err != nil {
		t.Errorf("max length name rejected: %v", err)
	}
	if _, err := Encode(strings.Repeat("x", MaxNameLen+1), 2); !errors.Is(err, myhdfs.ErrNameTooLong) {
		t.Errorf("long name err = %v", err)
	}
	if _, err := Encode("", 2); err == nil {
		t.Error("empty name accepted")
	}
	full := strings.Repeat("y", MaxNameLen)
	buf, _ := Append(nil, full, 9)
	if e := Parse(buf); e[0].Name != full || e[0].Inum != 9 {
		t.Errorf("full name entry = %+v", e[0])
	}
}

func TestParseIgnoresPartialTail(t *testing.T) {
	buf, _ := Append(nil, "a", 2)
	buf = append(buf, 'z', 'z')
	if n := len(Parse(buf)); n != 1 {
		t.Errorf("Parse returned %d entries", n)
	}
}
