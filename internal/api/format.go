package api

import "strconv"

// uint64Hex renders a peer MAC / controlee address as a 0x-prefixed hex
// string, matching how the CLI (cmd/uwbctl) prints addresses.
func uint64Hex(v uint64) string {
	return "0x" + strconv.FormatUint(v, 16)
}
