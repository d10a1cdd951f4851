package myhdfs

import "testing"

func TestAddress(t *testing.T) {
	id := DatanodeID{IPAddr: "10.0.0.1", Hostname: "host", XferPort: 7000}
	if got := id.Address().ToString(); got != "10.0.0.1:7000" {
		t.Errorf("ToString = %q", got)
	}
	if id.Address().IsEmpty() {
		t.Error("address of a datanode is empty")
	}
	if !(ServerAddress{Hostname: "10.0.0.1"}).IsEmpty() {
		t.Error("address without port is not empty")
	}

	tests := []struct {
		in   string
		want ServerAddress
	}{
		{"127.0.0.1:5400", ServerAddress{Hostname: "127.0.0.1", Port: 5400}},
		{":5401", ServerAddress{Hostname: "127.0.0.1", Port: 5401}},
	}
	for _, tt := range tests {
		got, err := ParseAddress(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseAddress(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseAddress("127.0.0.1:70000"); err == nil {
		t.Error("port out of range accepted")
	}
}
