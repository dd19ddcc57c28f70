package ospi

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeDirectTransfer(t *testing.T) {
	tests := []struct {
		name    string
		t       DirectTransfer
		dir     Direction
		want    []byte
		wantErr bool
		errMsg  string
	}{
		{
			name: "write enable",
			t:    DirectTransfer{Command: OpWriteEnable, CommandLength: 1},
			dir:  DirWrite,
			want: []byte{0x06},
		},
		{
			name: "read id",
			t:    DirectTransfer{Command: OpReadID, CommandLength: 1, DataLength: 4},
			dir:  DirRead,
			want: []byte{0x9F, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name: "write address mode",
			t: DirectTransfer{
				Command: OpWriteVolatileConfig, CommandLength: 1,
				Address: VolatileConfigAddressMode, AddressLength: 3,
				Data: AddressMode4Byte, DataLength: 1,
			},
			dir:  DirWrite,
			want: []byte{0x81, 0x00, 0x00, 0x05, 0xFE},
		},
		{
			name: "read volatile config with dummy cycles",
			t: DirectTransfer{
				Command: OpReadVolatileConfig, CommandLength: 1,
				AddressLength: 3, DataLength: 1, DummyCycles: 8,
			},
			dir:  DirRead,
			want: []byte{0x85, 0x00, 0x00, 0x00, 0xFF, 0x00},
		},
		{
			name: "two byte command and 4-byte address",
			t: DirectTransfer{
				Command: 0x06F9, CommandLength: 2,
				Address: 0x01020304, AddressLength: 4,
				Data: 0xAABBCCDD, DataLength: 4,
			},
			dir:  DirWrite,
			want: []byte{0x06, 0xF9, 0x01, 0x02, 0x03, 0x04, 0xDD, 0xCC, 0xBB, 0xAA},
		},
		{
			name:    "zero descriptor",
			t:       DirectTransfer{},
			dir:     DirWrite,
			wantErr: true,
			errMsg:  "command length must be 1 or 2",
		},
		{
			name:    "command too wide",
			t:       DirectTransfer{Command: 0x1234, CommandLength: 1},
			dir:     DirWrite,
			wantErr: true,
			errMsg:  "does not fit in 1 byte",
		},
		{
			name:    "bad address length",
			t:       DirectTransfer{Command: OpRead, CommandLength: 1, AddressLength: 2},
			dir:     DirRead,
			wantErr: true,
			errMsg:  "address length must be 0, 3 or 4",
		},
		{
			name: "3-byte address at top of space",
			t: DirectTransfer{
				Command: OpReadVolatileConfig, CommandLength: 1,
				Address: 0x00FFFFFF, AddressLength: 3, DataLength: 1,
			},
			dir:  DirRead,
			want: []byte{0x85, 0xFF, 0xFF, 0xFF, 0x00},
		},
		{
			name: "address too wide for 3 bytes",
			t: DirectTransfer{
				Command: OpWriteVolatileConfig, CommandLength: 1,
				Address: 0x01000005, AddressLength: 3, DataLength: 1,
			},
			dir:     DirWrite,
			wantErr: true,
			errMsg:  "exceed the 3-byte address space",
		},
		{
			name:    "data too long",
			t:       DirectTransfer{Command: OpReadID, CommandLength: 1, DataLength: 5},
			dir:     DirRead,
			wantErr: true,
			errMsg:  "exceeds maximum 4 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := EncodeDirectTransfer(&tt.t, tt.dir)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(frame, tt.want) {
				t.Errorf("frame = % X, want % X", frame, tt.want)
			}
		})
	}
}

func TestEncodeDirectTransferNil(t *testing.T) {
	if _, err := EncodeDirectTransfer(nil, DirRead); err == nil {
		t.Error("expected error for nil transfer")
	}
}

func TestDecodeDirectRead(t *testing.T) {
	tr := DirectTransfer{Command: OpReadID, CommandLength: 1, DataLength: 4}
	rx := []byte{0xFF, 0x34, 0x5A, 0x1A, 0x0F}

	if err := DecodeDirectRead(&tr, rx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Data != DeviceIDVariantB {
		t.Errorf("Data = 0x%08X, want 0x%08X", tr.Data, DeviceIDVariantB)
	}

	if err := DecodeDirectRead(&tr, []byte{0x01}); err == nil {
		t.Error("expected error for short response")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tr := DirectTransfer{Command: OpReadFlagStatus, CommandLength: 1, DataLength: 1}
	frame, err := EncodeDirectTransfer(&tr, DirRead)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the device answers in the data slot
	rx := make([]byte, len(frame))
	rx[len(rx)-1] = FlagReady | FlagAddress4Byte

	if err := DecodeDirectRead(&tr, rx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ParseFlagStatus(byte(tr.Data)).Address4Byte {
		t.Errorf("Data = 0x%02X, want 4-byte flag set", tr.Data)
	}
}

func TestBuildPageProgram(t *testing.T) {
	page := make([]byte, PageSize)
	for i := range page {
		page[i] = byte(i)
	}

	tests := []struct {
		name    string
		addr    uint32
		addrLen uint8
		data    []byte
		wantHdr []byte
		wantErr bool
		errMsg  string
	}{
		{
			name:    "full page 3-byte",
			addr:    0x1000,
			addrLen: 3,
			data:    page,
			wantHdr: []byte{OpPageProgram, 0x00, 0x10, 0x00},
		},
		{
			name:    "full page 4-byte",
			addr:    0x01001000,
			addrLen: 4,
			data:    page,
			wantHdr: []byte{OpPageProgram4B, 0x01, 0x00, 0x10, 0x00},
		},
		{
			name:    "partial page at offset",
			addr:    0x10F0,
			addrLen: 3,
			data:    page[:16],
			wantHdr: []byte{OpPageProgram, 0x00, 0x10, 0xF0},
		},
		{
			name:    "empty",
			addr:    0,
			addrLen: 3,
			data:    nil,
			wantErr: true,
			errMsg:  "data cannot be empty",
		},
		{
			name:    "too long",
			addr:    0,
			addrLen: 3,
			data:    make([]byte, PageSize+1),
			wantErr: true,
			errMsg:  "exceeds page size",
		},
		{
			name:    "crosses page",
			addr:    0x10F1,
			addrLen: 3,
			data:    page[:16],
			wantErr: true,
			errMsg:  "crosses a page boundary",
		},
		{
			name:    "last page of 3-byte space",
			addr:    0x00FFFF00,
			addrLen: 3,
			data:    page,
			wantHdr: []byte{OpPageProgram, 0xFF, 0xFF, 0x00},
		},
		{
			name:    "above 16 MiB with 3-byte address",
			addr:    0x01000000,
			addrLen: 3,
			data:    []byte{0xAA},
			wantErr: true,
			errMsg:  "exceed the 3-byte address space",
		},
		{
			name:    "bad address length",
			addr:    0,
			addrLen: 2,
			data:    page[:1],
			wantErr: true,
			errMsg:  "address length must be 3 or 4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := BuildPageProgram(tt.addr, tt.addrLen, tt.data)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(frame[:len(tt.wantHdr)], tt.wantHdr) {
				t.Errorf("header = % X, want % X", frame[:len(tt.wantHdr)], tt.wantHdr)
			}
			if !bytes.Equal(frame[len(tt.wantHdr):], tt.data) {
				t.Error("payload does not match data")
			}
		})
	}
}

func TestBuildRead(t *testing.T) {
	frame, err := BuildRead(0x1000, 4, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{OpRead4B, 0x00, 0x00, 0x10, 0x00, 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(frame, want) {
		t.Errorf("frame = % X, want % X", frame, want)
	}

	if _, err := BuildRead(0, 3, 0); err == nil {
		t.Error("expected error for zero length")
	}

	if _, err := BuildRead(0x01234567, 3, 1); err == nil {
		t.Error("expected error for an address above 16 MiB in 3-byte mode")
	}
	if _, err := BuildRead(0x00FFFFF0, 3, 32); err == nil {
		t.Error("expected error for a read running past 16 MiB in 3-byte mode")
	}
	if _, err := BuildRead(0x00FFFFF0, 3, 16); err != nil {
		t.Errorf("read ending at 16 MiB: %v", err)
	}
	if _, err := BuildRead(0x01234567, 4, 1); err != nil {
		t.Errorf("4-byte read above 16 MiB: %v", err)
	}
}

func TestPageChunks(t *testing.T) {
	tests := []struct {
		name string
		addr uint32
		n    int
		want []Chunk
	}{
		{
			name: "aligned single page",
			addr: 0x1000,
			n:    256,
			want: []Chunk{{Address: 0x1000, Offset: 0, Length: 256}},
		},
		{
			name: "unaligned spans two pages",
			addr: 0x10F0,
			n:    32,
			want: []Chunk{
				{Address: 0x10F0, Offset: 0, Length: 16},
				{Address: 0x1100, Offset: 16, Length: 16},
			},
		},
		{
			name: "zero length",
			addr: 0,
			n:    0,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PageChunks(tt.addr, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d chunks, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
