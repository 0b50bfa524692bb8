// Package ndr implements the subset of DCE/RPC Network Data Representation
// needed by PAC structures: little-endian primitives with NDR alignment,
// fixed and conformant arrays, conformant-varying UTF-16 strings, deferred
// unique pointers, and the TypeSerialization1 common/private headers.
//
// # NDR in a Nutshell
//
// NDR is the binary marshaling convention underneath MS-RPC. The rules that
// matter for the PAC:
//
//   - Every primitive is aligned to its own size (a uint32 starts on a
//     4-byte boundary), with zero bytes as padding.
//   - A conformant array is prefixed with a 32-bit maximum count; a varying
//     array adds a 32-bit offset and actual count.
//   - A pointer field is encoded inline as a 32-bit referent token (nonzero
//     means present). The pointed-to data is deferred: it is written after
//     all inline fields of the enclosing structure, in pointer declaration
//     order.
//   - A top-level serialized object is wrapped in a TypeSerialization1
//     header carrying the format version and endianness.
//
// Only NDR syntax version 1 in little-endian form is supported, which is
// the only form Windows emits for PACs.
package ndr
