// Package ospi describes the command vocabulary of an octal/quad SPI NOR flash.
//
// This package provides the descriptors, frame builders and register parsers
// used to talk to a NOR flash device through a peripheral driver, plus the
// Driver interface that such a peripheral driver implements.
//
// # Direct Transfers
//
// Register-level commands bypass the memory-mapped path and are described by
// a DirectTransfer:
//
//	[CMD(1-2)][ADDR(0,3,4)][DUMMY(cycles/8)][DATA(0-4)]
//
// Where:
//   - CMD  = opcode, big-endian when two bytes long
//   - ADDR = big-endian address
//   - DATA = little-endian in wire order (first byte is bits 0..7)
//
// The descriptors a bring-up sequence needs are collected in a Table, indexed
// by the closed TransferKind enumeration:
//
//	table := ospi.DefaultTable()
//	t := table.Lookup(ospi.TransferReadID)
//	err := drv.DirectTransfer(&t, ospi.DirRead)
//	fmt.Printf("ID: 0x%08X\n", t.Data)
//
// # Frame Builders
//
// Drivers that speak plain SPI (for example Linux spidev) turn descriptors and
// buffered accesses into full-duplex frames:
//
//	tx, err := ospi.EncodeDirectTransfer(&t, ospi.DirRead)
//	tx, err := ospi.BuildPageProgram(addr, 4, page)
//	tx, err := ospi.BuildRead(addr, 4, len(dst))
//
// # Error Handling
//
// Drivers report failures as *DriverError carrying a Code:
//
//	if ospi.CodeOf(err) == ospi.CodeDeviceBusy {
//	    // ...
//	}
//	// err.Error() returns: "write failed: device busy (0x06)"
package ospi
