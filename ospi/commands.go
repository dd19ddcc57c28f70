package ospi

import (
	"encoding/binary"
	"fmt"
)

// EncodeDirectTransfer constructs the full-duplex SPI frame for a direct transfer.
//
// Frame structure:
//
//	[CMD(1-2)][ADDR(0,3,4)][DUMMY(n)][DATA(0-4)]
//
// For reads the data field is filled with 0x00 placeholders; the device's
// answer is clocked in during those bytes and extracted with DecodeDirectRead.
func EncodeDirectTransfer(t *DirectTransfer, dir Direction) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("transfer cannot be nil")
	}
	if err := validate(t); err != nil {
		return nil, err
	}

	dummy := dummyBytes(t.DummyCycles)
	frame := make([]byte, 0, int(t.CommandLength)+int(t.AddressLength)+dummy+int(t.DataLength))

	// Command (big-endian)
	if t.CommandLength == 2 {
		frame = append(frame, byte(t.Command>>8))
	}
	frame = append(frame, byte(t.Command))

	frame = appendAddress(frame, t.Address, t.AddressLength)

	for i := 0; i < dummy; i++ {
		frame = append(frame, 0xFF)
	}

	// Data (wire order, least significant byte first)
	for i := 0; i < int(t.DataLength); i++ {
		if dir == DirWrite {
			frame = append(frame, byte(t.Data>>(8*i)))
		} else {
			frame = append(frame, 0x00)
		}
	}

	return frame, nil
}

// DecodeDirectRead extracts the data field of a direct read from the bytes
// received during the frame built by EncodeDirectTransfer.
func DecodeDirectRead(t *DirectTransfer, rx []byte) error {
	if t == nil {
		return fmt.Errorf("transfer cannot be nil")
	}
	n := int(t.DataLength)
	if len(rx) < n {
		return fmt.Errorf("response too short: got %d bytes, need at least %d", len(rx), n)
	}

	data := rx[len(rx)-n:]
	var v uint32
	for i, b := range data {
		v |= uint32(b) << (8 * i)
	}
	t.Data = v
	return nil
}

// BuildPageProgram constructs a Page Program frame.
//
// Frame structure:
//
//	[CMD][ADDR(3,4)][DATA...]
//
// The data must not be empty, must not exceed PageSize and must not cross a
// page boundary.
func BuildPageProgram(addr uint32, addrLen uint8, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data cannot be empty")
	}
	if len(data) > PageSize {
		return nil, fmt.Errorf("data length %d exceeds page size %d bytes", len(data), PageSize)
	}
	if int(addr%PageSize)+len(data) > PageSize {
		return nil, fmt.Errorf("write of %d bytes at 0x%08X crosses a page boundary", len(data), addr)
	}

	cmd, err := addressedOpcode(addrLen, OpPageProgram, OpPageProgram4B)
	if err != nil {
		return nil, err
	}
	if err := checkAddressRange(addr, addrLen, len(data)); err != nil {
		return nil, err
	}

	frame := make([]byte, 0, 1+int(addrLen)+len(data))
	frame = append(frame, cmd)
	frame = appendAddress(frame, addr, addrLen)
	frame = append(frame, data...)

	return frame, nil
}

// BuildRead constructs a Read frame with n placeholder bytes for the data.
//
// Frame structure:
//
//	[CMD][ADDR(3,4)][0x00 * n]
func BuildRead(addr uint32, addrLen uint8, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("read length must be positive, got %d", n)
	}

	cmd, err := addressedOpcode(addrLen, OpRead, OpRead4B)
	if err != nil {
		return nil, err
	}
	if err := checkAddressRange(addr, addrLen, n); err != nil {
		return nil, err
	}

	frame := make([]byte, 0, 1+int(addrLen)+n)
	frame = append(frame, cmd)
	frame = appendAddress(frame, addr, addrLen)
	frame = append(frame, make([]byte, n)...)

	return frame, nil
}

// Chunk is a page-aligned slice of a buffered write.
type Chunk struct {
	Address uint32
	Offset  int
	Length  int
}

// PageChunks splits a write of n bytes at addr into chunks that never cross a
// page boundary.
func PageChunks(addr uint32, n int) []Chunk {
	var chunks []Chunk
	offset := 0
	for offset < n {
		room := PageSize - int((addr+uint32(offset))%PageSize)
		length := n - offset
		if length > room {
			length = room
		}
		chunks = append(chunks, Chunk{
			Address: addr + uint32(offset),
			Offset:  offset,
			Length:  length,
		})
		offset += length
	}
	return chunks
}

// validate checks a descriptor's field lengths.
func validate(t *DirectTransfer) error {
	if t.CommandLength != 1 && t.CommandLength != 2 {
		return fmt.Errorf("command length must be 1 or 2 bytes, got %d", t.CommandLength)
	}
	if t.CommandLength == 1 && t.Command > 0xFF {
		return fmt.Errorf("command 0x%04X does not fit in 1 byte", t.Command)
	}
	switch t.AddressLength {
	case 0, 3, 4:
	default:
		return fmt.Errorf("address length must be 0, 3 or 4 bytes, got %d", t.AddressLength)
	}
	if err := checkAddressRange(t.Address, t.AddressLength, 1); err != nil {
		return err
	}
	if t.DataLength > MaxDirectData {
		return fmt.Errorf("data length %d exceeds maximum %d bytes", t.DataLength, MaxDirectData)
	}
	return nil
}

func addressedOpcode(addrLen uint8, op3, op4 byte) (byte, error) {
	switch addrLen {
	case 3:
		return op3, nil
	case 4:
		return op4, nil
	default:
		return 0, fmt.Errorf("address length must be 3 or 4 bytes, got %d", addrLen)
	}
}

// checkAddressRange rejects n bytes at addr that do not fit in the space
// reachable with 3-byte addresses.
func checkAddressRange(addr uint32, addrLen uint8, n int) error {
	if addrLen == 3 && uint64(addr)+uint64(n) > AddressSpace3Byte {
		return fmt.Errorf("%d bytes at 0x%08X exceed the 3-byte address space", n, addr)
	}
	return nil
}

func appendAddress(frame []byte, addr uint32, addrLen uint8) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], addr)
	return append(frame, buf[4-int(addrLen):]...)
}

func dummyBytes(cycles uint8) int {
	return (int(cycles) + 7) / 8
}
