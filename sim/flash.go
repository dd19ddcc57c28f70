// Package sim provides an in-memory NOR flash that implements ospi.Driver.
//
// The simulated device validates commands the way a real part does: program
// and erase need the write enable latch, commands are refused while an
// operation is in progress, and a reset pulse restores the power-on register
// state. Faults can be injected per operation or per opcode, and every call is
// recorded so tests can check ordering.
//
//	flash := sim.New(sim.WithID(ospi.DeviceIDVariantB), sim.WithWriteBusyPolls(3))
//	runner := bringup.New(flash)
//	err := runner.Run(ctx, bringup.NewBuffers())
package sim

import (
	"fmt"
	"strings"
	"sync"

	"github.com/moffa90/go-ospinor/ospi"
)

// Op names a driver call.
type Op string

// Driver calls recorded by Flash.
const (
	OpOpen           Op = "open"
	OpClose          Op = "close"
	OpSetProtocol    Op = "set-protocol"
	OpDirectTransfer Op = "direct-transfer"
	OpWrite          Op = "write"
	OpRead           Op = "read"
	OpStatus         Op = "status"
	OpSetReset       Op = "set-reset"
)

// Call is one recorded driver call.
type Call struct {
	Op Op

	// Command is the opcode for direct transfers
	Command uint16

	// Address is the flash offset for reads and writes
	Address uint32
}

func (c Call) String() string {
	switch c.Op {
	case OpDirectTransfer:
		return fmt.Sprintf("%s 0x%02X", c.Op, c.Command)
	case OpWrite, OpRead:
		return fmt.Sprintf("%s 0x%08X", c.Op, c.Address)
	default:
		return string(c.Op)
	}
}

// Flash is a simulated NOR flash device.
// Flash is safe for concurrent use.
type Flash struct {
	mu sync.Mutex

	cfg Config
	mem []byte

	open      bool
	protocol  ospi.Protocol
	inReset   bool
	addr4     bool
	ioMode    byte
	wel       bool
	busyPolls int
	busy      bool
	stuck     bool

	failOps  map[Op]ospi.Code
	failCmds map[uint16]ospi.Code
	calls    []Call
}

// New creates a simulated flash with erased (0xFF) memory.
func New(opts ...Option) *Flash {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &Flash{
		cfg:      cfg,
		mem:      make([]byte, cfg.Size),
		ioMode:   ospi.IOModeExtendedSPI,
		failOps:  make(map[Op]ospi.Code),
		failCmds: make(map[uint16]ospi.Code),
	}
	fill(f.mem, 0xFF)
	return f
}

// FailOn makes every subsequent call of op fail with code.
func (f *Flash) FailOn(op Op, code ospi.Code) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOps[op] = code
}

// FailOnCommand makes every subsequent direct transfer with opcode cmd fail with code.
func (f *Flash) FailOnCommand(cmd uint16, code ospi.Code) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCmds[cmd] = code
}

// Calls returns the recorded driver calls in order.
func (f *Flash) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Trace returns the recorded calls formatted one per line.
func (f *Flash) Trace() string {
	var sb strings.Builder
	for _, c := range f.Calls() {
		sb.WriteString(c.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Memory returns a copy of n bytes of flash content at addr. Bytes past the
// end of the array read as 0xFF.
func (f *Flash) Memory(addr uint32, n int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]byte, n)
	fill(out, 0xFF)
	if int64(addr) < int64(len(f.mem)) {
		copy(out, f.mem[addr:])
	}
	return out
}

// Address4Byte reports whether the device is in 4-byte address mode.
func (f *Flash) Address4Byte() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addr4
}

// Protocol returns the protocol last selected with SetProtocol.
func (f *Flash) Protocol() ospi.Protocol {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.protocol
}

// IsOpen reports whether the driver is open.
func (f *Flash) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Open implements ospi.Driver.
func (f *Flash) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: OpOpen}); err != nil {
		return err
	}
	if f.open {
		return fail(OpOpen, ospi.CodeInUse)
	}
	f.open = true
	return nil
}

// Close implements ospi.Driver.
func (f *Flash) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: OpClose}); err != nil {
		return err
	}
	if !f.open {
		return fail(OpClose, ospi.CodeNotOpen)
	}
	f.open = false
	return nil
}

// SetProtocol implements ospi.Driver.
func (f *Flash) SetProtocol(p ospi.Protocol) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: OpSetProtocol}); err != nil {
		return err
	}
	if !f.open {
		return fail(OpSetProtocol, ospi.CodeNotOpen)
	}
	switch p {
	case ospi.ProtocolExtendedSPI, ospi.ProtocolOctalSTR, ospi.ProtocolOctalDTR:
	default:
		return fail(OpSetProtocol, ospi.CodeInvalidArgument)
	}
	f.protocol = p
	return nil
}

// SetReset implements ospi.Driver. A low level holds the device in reset;
// the rising edge restores the power-on register state.
func (f *Flash) SetReset(high bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: OpSetReset}); err != nil {
		return err
	}
	if !f.open {
		return fail(OpSetReset, ospi.CodeNotOpen)
	}

	if !high {
		f.inReset = true
		return nil
	}
	if f.inReset {
		f.inReset = false
		f.addr4 = false
		f.ioMode = ospi.IOModeExtendedSPI
		f.wel = false
		f.busy = false
		f.stuck = false
		f.busyPolls = 0
	}
	return nil
}

// DirectTransfer implements ospi.Driver.
func (f *Flash) DirectTransfer(t *ospi.DirectTransfer, dir ospi.Direction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t == nil {
		return fail(OpDirectTransfer, ospi.CodeInvalidArgument)
	}
	if err := f.record(Call{Op: OpDirectTransfer, Command: t.Command}); err != nil {
		return err
	}
	if code, ok := f.failCmds[t.Command]; ok {
		return fail(OpDirectTransfer, code)
	}
	if err := f.ready(OpDirectTransfer); err != nil {
		return err
	}
	if _, err := ospi.EncodeDirectTransfer(t, dir); err != nil {
		return fail(OpDirectTransfer, ospi.CodeInvalidArgument)
	}

	switch t.Command {
	case ospi.OpReadStatus:
		if dir != ospi.DirRead {
			return fail(OpDirectTransfer, ospi.CodeInvalidArgument)
		}
		t.Data = uint32(f.poll().Byte())
		return nil

	case ospi.OpReadFlagStatus:
		if dir != ospi.DirRead {
			return fail(OpDirectTransfer, ospi.CodeInvalidArgument)
		}
		var v byte
		if !f.busy {
			v |= ospi.FlagReady
		}
		if f.addr4 {
			v |= ospi.FlagAddress4Byte
		}
		t.Data = uint32(v)
		return nil
	}

	if f.busy {
		return fail(OpDirectTransfer, ospi.CodeDeviceBusy)
	}

	switch t.Command {
	case ospi.OpWriteEnable:
		f.wel = true

	case ospi.OpReadID:
		if dir != ospi.DirRead {
			return fail(OpDirectTransfer, ospi.CodeInvalidArgument)
		}
		t.Data = f.cfg.ID & dataMask(t.DataLength)

	case ospi.OpWriteVolatileConfig:
		if dir != ospi.DirWrite {
			return fail(OpDirectTransfer, ospi.CodeInvalidArgument)
		}
		if !f.wel {
			return fail(OpDirectTransfer, ospi.CodeWriteProtected)
		}
		f.wel = false
		switch t.Address {
		case ospi.VolatileConfigAddressMode:
			f.addr4 = t.Data&0x01 == 0
		case ospi.VolatileConfigIOMode:
			f.ioMode = byte(t.Data)
		default:
			return fail(OpDirectTransfer, ospi.CodeInvalidArgument)
		}

	case ospi.OpReadVolatileConfig:
		if dir != ospi.DirRead {
			return fail(OpDirectTransfer, ospi.CodeInvalidArgument)
		}
		switch t.Address {
		case ospi.VolatileConfigAddressMode:
			if f.addr4 {
				t.Data = ospi.AddressMode4Byte
			} else {
				t.Data = ospi.AddressMode3Byte
			}
		case ospi.VolatileConfigIOMode:
			t.Data = uint32(f.ioMode)
		default:
			return fail(OpDirectTransfer, ospi.CodeInvalidArgument)
		}

	case ospi.OpChipErase, ospi.OpChipEraseAlt:
		if dir != ospi.DirWrite {
			return fail(OpDirectTransfer, ospi.CodeInvalidArgument)
		}
		if !f.wel {
			return fail(OpDirectTransfer, ospi.CodeWriteProtected)
		}
		f.wel = false
		fill(f.mem, 0xFF)
		f.startBusy(f.cfg.EraseBusyPolls, false)

	default:
		return fail(OpDirectTransfer, ospi.CodeUnsupported)
	}

	return nil
}

// Write implements ospi.Driver with NOR semantics: programming only clears bits.
func (f *Flash) Write(src []byte, addr uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: OpWrite, Address: addr}); err != nil {
		return err
	}
	if err := f.ready(OpWrite); err != nil {
		return err
	}
	if f.busy {
		return fail(OpWrite, ospi.CodeDeviceBusy)
	}
	if err := f.checkRange(OpWrite, addr, len(src)); err != nil {
		return err
	}
	if !f.wel {
		return fail(OpWrite, ospi.CodeWriteProtected)
	}

	for i, b := range src {
		f.mem[int(addr)+i] &= b
	}
	f.wel = false
	f.startBusy(f.cfg.WriteBusyPolls, f.cfg.StuckBusy)
	return nil
}

// Read implements ospi.Driver.
func (f *Flash) Read(dst []byte, addr uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: OpRead, Address: addr}); err != nil {
		return err
	}
	if err := f.ready(OpRead); err != nil {
		return err
	}
	if f.busy {
		return fail(OpRead, ospi.CodeDeviceBusy)
	}
	if err := f.checkRange(OpRead, addr, len(dst)); err != nil {
		return err
	}

	copy(dst, f.mem[addr:int(addr)+len(dst)])
	if c := f.cfg.CorruptOffset; c >= 0 && int64(addr) <= c && c < int64(addr)+int64(len(dst)) {
		dst[c-int64(addr)] ^= 0xFF
	}
	return nil
}

// Status implements ospi.Driver. Each call counts as one poll of a pending
// erase or program.
func (f *Flash) Status() (ospi.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: OpStatus}); err != nil {
		return ospi.Status{}, err
	}
	if err := f.ready(OpStatus); err != nil {
		return ospi.Status{}, err
	}
	return f.poll(), nil
}

// record appends c to the call log and applies any injected fault for its op.
func (f *Flash) record(c Call) error {
	f.calls = append(f.calls, c)
	if code, ok := f.failOps[c.Op]; ok {
		return fail(c.Op, code)
	}
	return nil
}

// ready checks the driver is open and the device is out of reset.
func (f *Flash) ready(op Op) error {
	if !f.open {
		return fail(op, ospi.CodeNotOpen)
	}
	if f.inReset {
		return fail(op, ospi.CodeAssertion)
	}
	return nil
}

func (f *Flash) checkRange(op Op, addr uint32, n int) error {
	if int64(addr)+int64(n) > int64(len(f.mem)) {
		return fail(op, ospi.CodeInvalidArgument)
	}
	if int64(addr)+int64(n) > ospi.AddressSpace3Byte && !f.addr4 {
		return fail(op, ospi.CodeInvalidArgument)
	}
	return nil
}

func (f *Flash) startBusy(polls int, stuck bool) {
	f.busy = polls > 0 || stuck
	f.busyPolls = polls
	f.stuck = stuck
}

// poll returns the current status and advances a pending operation by one poll.
func (f *Flash) poll() ospi.Status {
	s := ospi.Status{WriteInProgress: f.busy, WriteEnabled: f.wel}
	if f.busy && !f.stuck {
		f.busyPolls--
		if f.busyPolls <= 0 {
			f.busy = false
		}
	}
	return s
}

func fail(op Op, code ospi.Code) error {
	return &ospi.DriverError{Operation: string(op), Code: code}
}

func dataMask(n uint8) uint32 {
	if n >= 4 {
		return 0xFFFFFFFF
	}
	return 1<<(8*uint32(n)) - 1
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
