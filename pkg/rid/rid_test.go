package rid_test

import (
	"testing"

	"relindex/pkg/rid"
)

func TestIsValid(t *testing.T) {
	if rid.New(0, 5).IsValid() {
		t.Fatal("page number 0 must never be valid")
	}
	if !rid.New(1, 0).IsValid() {
		t.Fatal("slot number 0 is a legitimate slot")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	want := rid.New(1234, 56)
	got := rid.Unmarshal(want.Marshal())
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestPutIntoLargerBuffer(t *testing.T) {
	buf := make([]byte, 16)
	want := rid.New(-1, 2) // negative page numbers are opaque to this package
	want.Put(buf[4:12])
	got := rid.Unmarshal(buf[4:12])
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
