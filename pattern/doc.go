// Package pattern provides the flash test patterns and their Intel HEX images.
//
// # Test Pattern
//
// The bring-up test writes one page holding the incrementing pattern
// 0x00, 0x01, ..., 0xFF:
//
//	buf := pattern.Incrementing(256)
//
// # Intel HEX Images
//
// A custom pattern can be loaded from an Intel HEX file, and a readback can be
// saved as one for inspection with standard tools:
//
//	img, err := pattern.Load("pattern.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	page := img.Window(0x1000, 256, 0xFF)
//
//	err = pattern.Save("readback.hex", 0x1000, readback)
//
// Addresses in images are flash offsets. Files that carry CPU addresses in the
// memory-mapped window are accepted too; Load strips ospi.MappedBase.
package pattern
