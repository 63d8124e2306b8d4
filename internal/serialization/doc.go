// Package serialization writes packed constant buffers in SafeTensors format so
// they can be inspected or loaded by other tools.
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON, tensor name to dtype, shape and data offsets]
//	  [Tensor data: raw bytes in header order]
//
// Each region of a packed buffer becomes one tensor of shape [vectors, 4]. The
// header metadata records the precision, the layout and a SHA-256 checksum of
// the data section.
package serialization
