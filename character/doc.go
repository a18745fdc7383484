// Package character reads, edits and writes single-character save files.
//
// A save file is a fixed header followed by byte-aligned sections:
//
//	+--------+-------+-----------+-----+-------+--------+---------+------+------+----------+
//	| header | Woo!  | WS        | w4  | gf if | JM     | JM      | jf   | kf   | trailing |
//	|        | quest | waypoints | npc | stats | items  | corpses | merc | golem|          |
//	+--------+-------+-----------+-----+-------+--------+---------+------+------+----------+
//
// Corpses follow the main item list from 1.07 on. The mercenary and golem
// sections are only present for expansion characters. A Character moves
// through the states Unopened, Open (header validated), Parsed (all sections
// decoded) and then Modified or Saved.
//
// Optional sections that fail to decode are treated as absent unless strict
// validation is requested; their bytes are kept verbatim so saving an
// unmodified file still reproduces it. Checksum mismatches are a warning in
// the same way.
package character
