package pattern

import (
	"fmt"
	"io"
	"os"

	"github.com/marcinbor85/gohex"

	"github.com/moffa90/go-ospinor/ospi"
)

// HexLineLength is the number of data bytes per Intel HEX record written by DumpHex.
const HexLineLength = 16

// Fill writes the incrementing pattern (index mod 256) into dst.
func Fill(dst []byte) {
	for i := range dst {
		dst[i] = byte(i)
	}
}

// Incrementing returns n bytes of the incrementing pattern.
func Incrementing(n int) []byte {
	b := make([]byte, n)
	Fill(b)
	return b
}

// Segment is a contiguous run of bytes in an image.
type Segment struct {
	// Address is the flash offset of the first byte
	Address uint32

	// Data is the segment content
	Data []byte
}

// Image is a flash image read from an Intel HEX file.
type Image struct {
	// Segments holds the data segments in ascending address order
	Segments []Segment
}

// Load parses an Intel HEX file from the given path.
//
// Example:
//
//	img, err := pattern.Load("pattern.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseHex(f)
}

// ParseHex parses an Intel HEX image from any io.Reader.
func ParseHex(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, fmt.Errorf("failed to parse intel hex: %w", err)
	}

	segs := mem.GetDataSegments()
	if len(segs) == 0 {
		return nil, fmt.Errorf("no data records found")
	}

	img := &Image{Segments: make([]Segment, 0, len(segs))}
	for _, s := range segs {
		addr := s.Address
		if addr >= ospi.MappedBase {
			addr -= ospi.MappedBase
		}
		data := make([]byte, len(s.Data))
		copy(data, s.Data)
		img.Segments = append(img.Segments, Segment{Address: addr, Data: data})
	}

	return img, nil
}

// Window returns n bytes of the image starting at addr, with bytes not covered
// by any segment set to pad.
func (img *Image) Window(addr uint32, n int, pad byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = pad
	}

	end := int64(addr) + int64(n)
	for _, s := range img.Segments {
		sEnd := int64(s.Address) + int64(len(s.Data))
		if sEnd <= int64(addr) || int64(s.Address) >= end {
			continue
		}
		for i, b := range s.Data {
			p := int64(s.Address) + int64(i)
			if p >= int64(addr) && p < end {
				out[p-int64(addr)] = b
			}
		}
	}

	return out
}

// DumpHex writes data at flash offset addr as an Intel HEX image.
func DumpHex(w io.Writer, addr uint32, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("data cannot be empty")
	}

	mem := gohex.NewMemory()
	if err := mem.AddBinary(addr, data); err != nil {
		return fmt.Errorf("add binary: %w", err)
	}
	if err := mem.DumpIntelHex(w, HexLineLength); err != nil {
		return fmt.Errorf("dump intel hex: %w", err)
	}
	return nil
}

// Save writes data at flash offset addr to an Intel HEX file.
func Save(path string, addr uint32, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := DumpHex(f, addr, data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
