package pattern

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIncrementing(t *testing.T) {
	b := Incrementing(300)
	if len(b) != 300 {
		t.Fatalf("len = %d, want 300", len(b))
	}
	for i, v := range b {
		if v != byte(i%256) {
			t.Fatalf("b[%d] = 0x%02X, want 0x%02X", i, v, byte(i%256))
		}
	}
}

func TestDumpAndParseHex(t *testing.T) {
	data := Incrementing(256)

	var buf bytes.Buffer
	if err := DumpHex(&buf, 0x1000, data); err != nil {
		t.Fatalf("DumpHex: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(buf.String()), ":00000001FF") {
		t.Errorf("image should end with an EOF record, got:\n%s", buf.String())
	}

	img, err := ParseHex(&buf)
	if err != nil {
		t.Fatalf("ParseHex: %v", err)
	}
	if len(img.Segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(img.Segments))
	}
	if img.Segments[0].Address != 0x1000 {
		t.Errorf("Address = 0x%X, want 0x1000", img.Segments[0].Address)
	}
	if !bytes.Equal(img.Window(0x1000, 256, 0xFF), data) {
		t.Error("window does not match dumped data")
	}
}

func TestParseHexMappedAddress(t *testing.T) {
	src := ":020000049000" + "6A\n" +
		":0410000001020304E2\n" +
		":00000001FF\n"

	img, err := ParseHex(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseHex: %v", err)
	}
	if got := img.Segments[0].Address; got != 0x1000 {
		t.Errorf("Address = 0x%08X, want mapped base stripped to 0x00001000", got)
	}

	w := img.Window(0x0FFE, 8, 0xFF)
	want := []byte{0xFF, 0xFF, 0x01, 0x02, 0x03, 0x04, 0xFF, 0xFF}
	if !bytes.Equal(w, want) {
		t.Errorf("Window = % X, want % X", w, want)
	}
}

func TestParseHexErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "garbage", src: "not a hex file\n"},
		{name: "bad checksum", src: ":0410000001020304E3\n:00000001FF\n"},
		{name: "no data", src: ":00000001FF\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseHex(strings.NewReader(tt.src)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDumpHexEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := DumpHex(&buf, 0, nil); err == nil {
		t.Error("expected error for empty data")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readback.hex")
	data := Incrementing(64)

	if err := Save(path, 0x2000, data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(img.Window(0x2000, 64, 0x00), data) {
		t.Error("loaded image does not match saved data")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.hex")); err == nil {
		t.Error("expected error for missing file")
	}
}
