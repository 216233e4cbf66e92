// Package page decodes individual MDF pages: the fixed 96-byte page header,
// the slot offset array at the tail of the page, and the page/record
// classification needed by everything above it.
//
// A Page is an immutable view over one 8 KiB block. Where the bytes come from
// is abstracted behind the Provider interface so that the same decoding stack
// works over plain files, memory maps, or extracted backup streams, and so
// that multi-gigabyte databases never have to be resident in memory.
package page
