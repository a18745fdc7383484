// Package section defines the byte-structured parts of a character file: the
// fixed header, the quest, waypoint and NPC regions, and the rolling checksum.
//
// # File Structure
//
// A character file starts with a fixed-size header whose field offsets depend on
// the version epoch, followed by byte-aligned sections in this order:
//
//	┌──────────────────────────────────────────────────────┐
//	│ Header (fixed size per epoch)                        │
//	│  - magic 0xAA55AA55, version                         │
//	│  - file size, checksum (later versions)              │
//	│  - name, status, class, level, timestamps, ...       │
//	├──────────────────────────────────────────────────────┤
//	│ Quests     "Woo!" + version + size (298 bytes)       │
//	│ Waypoints  "WS" + version + size (80 bytes)          │
//	│ NPC        "w4" + size (52 bytes)                    │
//	├──────────────────────────────────────────────────────┤
//	│ Stat block "gf" ... "if" + skills                    │
//	├──────────────────────────────────────────────────────┤
//	│ Items, corpse items, mercenary and golem items        │
//	└──────────────────────────────────────────────────────┘
//
// Header bytes are kept verbatim. Typed accessors read and patch single fields
// in place, so bytes without an accessor survive a round trip unchanged.
//
// # Checksum
//
// Files from 1.09 on carry a 32-bit checksum. It is computed over the whole
// file with the checksum field itself read as zero: for every byte b,
// sum = rotl(sum, 1) + b.
package section
