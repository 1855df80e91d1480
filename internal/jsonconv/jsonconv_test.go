package jsonconv

import (
	"bytes"
	"testing"

	cbor "github.com/cbor-stream/cbor"
)

func render(t *testing.T, data []byte, opts Options) string {
	t.Helper()
	p := cbor.NewParser(cbor.NewBufferSource(data))
	root, err := p.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, &root, opts); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf.String()
}

func TestWriteObjectWithTextKeys(t *testing.T) {
	sink := cbor.NewGrowingSink(0)
	e := cbor.NewEncoder(sink)
	m, err := e.CreateMap(2)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.EncodeTextString("name"); err != nil {
		t.Fatal(err)
	}
	if err := m.EncodeTextString("Alice"); err != nil {
		t.Fatal(err)
	}
	if err := m.EncodeTextString("ok"); err != nil {
		t.Fatal(err)
	}
	if err := m.EncodeBool(true); err != nil {
		t.Fatal(err)
	}
	if err := e.CloseContainer(&m); err != nil {
		t.Fatal(err)
	}

	got := render(t, sink.Bytes(), Options{})
	want := `{"name":"Alice","ok":true}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriteNonStringMapKeyViaPrettyPrinter(t *testing.T) {
	sink := cbor.NewGrowingSink(0)
	e := cbor.NewEncoder(sink)
	m, err := e.CreateMap(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.EncodeUint(1); err != nil {
		t.Fatal(err)
	}
	if err := m.EncodeTextString("one"); err != nil {
		t.Fatal(err)
	}
	if err := e.CloseContainer(&m); err != nil {
		t.Fatal(err)
	}

	got := render(t, sink.Bytes(), Options{})
	want := `{"1":"one"}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestByteStringEncodingPolicy(t *testing.T) {
	sink := cbor.NewGrowingSink(0)
	e := cbor.NewEncoder(sink)
	if err := e.EncodeByteString([]byte("hi")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		enc  ByteStringEncoding
		want string
	}{
		{"base64url", Base64URL, `"aGk"`},
		{"base64", Base64, `"aGk="`},
		{"base16", Base16, `"6869"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(t, sink.Bytes(), Options{ByteStrings: tt.enc})
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteEscapesControlCharacters(t *testing.T) {
	sink := cbor.NewGrowingSink(0)
	e := cbor.NewEncoder(sink)
	if err := e.EncodeTextString("a\nb\tc"); err != nil {
		t.Fatal(err)
	}
	got := render(t, sink.Bytes(), Options{})
	want := `"a\nb\tc"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
