// Package stash reads and writes the paged shared stash file.
//
// A shared stash is a sequence of independent pages, each a 64-byte header
// followed by one item list:
//
//	+-------+-------+---------+------+--------+----------+-----------+
//	| magic | flags | version | gold | length | reserved | item list |
//	|  u32  |  u32  |   u32   | u32  |  u32   | 44 bytes |  "JM" ... |
//	+-------+-------+---------+------+--------+----------+-----------+
//
// The length field covers the header and the item list. Only version 98
// stashes are supported.
//
// Pages can be read three ways. ScanPages walks the headers only, Page decodes
// a single page on demand, and Refresh decodes every page in file order,
// checking that each item list ends exactly where its header says. Refresh
// stops at the first corrupt page since a wrong length desynchronizes every
// following page; the pages decoded before it stay available.
package stash
