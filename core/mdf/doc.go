// Package mdf is the top-level reading interface over an MDF database: it
// builds the system catalog, exposes the tables it finds, and iterates rows
// lazily, resolving forwarding stubs and off-row values on the way.
//
// Databases are frequently opened precisely because they are damaged, so the
// package degrades instead of refusing: a partially readable catalog still
// opens, bad slots surface as per-row errors without ending the iteration,
// and tables whose page chains are gone can still be scanned for
// heuristically.
package mdf
