package prettyprint

import (
	"bytes"
	"testing"

	cbor "github.com/cbor-stream/cbor"
)

func render(t *testing.T, data []byte) string {
	t.Helper()
	p := cbor.NewParser(cbor.NewBufferSource(data))
	root, err := p.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, &root); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf.String()
}

func TestWriteArrayOfScalars(t *testing.T) {
	sink := cbor.NewGrowingSink(0)
	e := cbor.NewEncoder(sink)
	arr, err := e.CreateArray(3)
	if err != nil {
		t.Fatal(err)
	}
	if err := arr.EncodeUint(1); err != nil {
		t.Fatal(err)
	}
	if err := arr.EncodeNegativeInt(0); err != nil {
		t.Fatal(err)
	}
	if err := arr.EncodeBool(true); err != nil {
		t.Fatal(err)
	}
	if err := e.CloseContainer(&arr); err != nil {
		t.Fatal(err)
	}

	got := render(t, sink.Bytes())
	want := "[1, -1, true]"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriteMapWithTextKeys(t *testing.T) {
	sink := cbor.NewGrowingSink(0)
	e := cbor.NewEncoder(sink)
	m, err := e.CreateMap(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.EncodeTextString("a"); err != nil {
		t.Fatal(err)
	}
	if err := m.EncodeUint(1); err != nil {
		t.Fatal(err)
	}
	if err := e.CloseContainer(&m); err != nil {
		t.Fatal(err)
	}

	got := render(t, sink.Bytes())
	want := `{"a": 1}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriteTaggedByteString(t *testing.T) {
	sink := cbor.NewGrowingSink(0)
	e := cbor.NewEncoder(sink)
	if err := e.EncodeTag(uint64(cbor.TagExpectedBase16)); err != nil {
		t.Fatal(err)
	}
	if err := e.EncodeByteString([]byte("Hello")); err != nil {
		t.Fatal(err)
	}

	got := render(t, sink.Bytes())
	want := "23(h'48656c6c6f')"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatFloatSpecialValues(t *testing.T) {
	sink := cbor.NewGrowingSink(0)
	e := cbor.NewEncoder(sink)
	if err := e.EncodeFloat16Bits(0x7E00); err != nil {
		t.Fatal(err)
	}
	got := render(t, sink.Bytes())
	if got != "NaN" {
		t.Errorf("got %q, want NaN", got)
	}
}
