// Package catalog reconstructs the system catalog of an MDF database: the
// boot page, the well-known system base tables (allocation units, rowsets,
// objects, columns, scalar types) and, from those, the live table schemas
// used to decode everything else.
//
// The bootstrap schemas for the system base tables are compile-time constant
// data: they are stable across the file versions in scope and cannot be
// discovered from the file without circularity.
package catalog
