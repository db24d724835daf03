// Package record provides a generic fixed-layout binary file.
//
// A file is a header of K int64 "info" slots followed by an append-only
// sequence of fixed-size records:
//
//	+----------------+----------------+-----+----------+----------+-----+
//	| slot 1 (8B LE) | slot 2 (8B LE) | ... | record 0 | record 1 | ... |
//	+----------------+----------------+-----+----------+----------+-----+
//
// Records are addressed by absolute byte Offset. The offset of ordinal i is
// HeaderSize() + i*RecordSize(). Records are never physically removed; a
// record type reports itself as a tombstone through Tombstoned and every
// scan skips tombstones via Live.
//
// Slot semantics belong to the owning manager (typically slot 1 is the
// record count, a high-water mark that includes tombstones). Callers bound
// their loops by that count and must not keep offsets across Initialise.
//
// Misuse (a slot outside 1..K, an offset inside the header, off a record
// boundary or past end of file) is reported as *BoundsError. It signals a
// programming error in the caller, not a user-recoverable condition.
package record
