package cbor

import (
	"bytes"
	"testing"
)

func TestBufferSinkAppend(t *testing.T) {
	buf := make([]byte, 4)
	sink := NewBufferSink(buf)
	if err := sink.Append([]byte{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Append([]byte{3, 4}); err != nil {
		t.Fatal(err)
	}
	if sink.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", sink.Len())
	}
	if !bytes.Equal(sink.Bytes(), []byte{1, 2, 3, 4}) {
		t.Errorf("got %v", sink.Bytes())
	}
}

func TestBufferSinkOverflowLatches(t *testing.T) {
	buf := make([]byte, 2)
	sink := NewBufferSink(buf)
	if err := sink.Append([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected ErrOutOfMemory")
	} else if Kind(err) != ErrOutOfMemory {
		t.Fatalf("got %v, want ErrOutOfMemory", err)
	}
	if sink.ExtraBytesNeeded() != 1 {
		t.Fatalf("ExtraBytesNeeded() = %d, want 1", sink.ExtraBytesNeeded())
	}
	// A further append keeps accumulating the shortfall rather than panicking.
	if err := sink.Append([]byte{4, 5}); err == nil {
		t.Fatal("expected continued ErrOutOfMemory")
	}
	if sink.ExtraBytesNeeded() != 3 {
		t.Fatalf("ExtraBytesNeeded() = %d, want 3", sink.ExtraBytesNeeded())
	}
}

func TestGrowingSinkReset(t *testing.T) {
	sink := NewGrowingSink(0)
	if err := sink.Append([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	if sink.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", sink.Len())
	}
	sink.Reset()
	if sink.Len() != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", sink.Len())
	}
}

func TestWriterSinkStreams(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)
	if err := sink.Append([]byte("stream")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "stream" {
		t.Fatalf("got %q, want stream", buf.String())
	}
}
