package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// SlotSize is the width in bytes of one header info slot.
const SlotSize = 8

const (
	opInfo      = "info"
	opWriteInfo = "write info"
)

// Offset is an absolute byte position of a record inside a File.
type Offset int64

// NoOffset marks the absence of a record.
const NoOffset Offset = -1

// Record is implemented by every type stored in a File.
// Tombstoned reports whether the record has been soft-deleted.
type Record interface {
	Tombstoned() bool
}

// Live is the shared tombstone predicate used by every scan.
func Live[T Record](rec T) bool {
	return !rec.Tombstoned()
}

// Codec converts a record to and from its fixed-size byte form.
type Codec[T any] interface {
	// Size returns the encoded width of one record in bytes.
	Size() int
	// Encode writes rec into buf, which is exactly Size() bytes long.
	Encode(rec T, buf []byte)
	// Decode reads a record from buf, which is exactly Size() bytes long.
	Decode(buf []byte) T
}

// File is a header of info slots followed by fixed-size records of type T.
// A File exclusively owns its handle; it is not safe for concurrent use.
type File[T Record] struct {
	path  string
	f     *os.File
	slots int
	codec Codec[T]
}

// Open opens or creates the file at path. A file too short to hold the
// header is initialised.
func Open[T Record](path string, slots int, codec Codec[T]) (*File[T], error) {
	if slots < 1 {
		return nil, fmt.Errorf("open %s: need at least one info slot, got %d", path, slots)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	rf := &File[T]{path: path, f: f, slots: slots, codec: codec}

	size, err := rf.Size()
	if err != nil {
		f.Close()
		return nil, err
	}
	if size < rf.HeaderSize() {
		if err := rf.Initialise(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return rf, nil
}

// Close releases the file handle. Closing twice is harmless.
func (rf *File[T]) Close() error {
	if rf.f == nil {
		return nil
	}
	err := rf.f.Close()
	rf.f = nil
	return err
}

// Path returns the backing file path.
func (rf *File[T]) Path() string {
	return rf.path
}

// Slots returns the number of header info slots.
func (rf *File[T]) Slots() int {
	return rf.slots
}

// HeaderSize returns the byte size of the info slot header.
func (rf *File[T]) HeaderSize() int64 {
	return int64(rf.slots) * SlotSize
}

// RecordSize returns the byte size of one record.
func (rf *File[T]) RecordSize() int64 {
	return int64(rf.codec.Size())
}

// Offset returns the offset of the given zero-based ordinal.
func (rf *File[T]) Offset(ordinal int64) Offset {
	return Offset(rf.HeaderSize() + ordinal*rf.RecordSize())
}

// Size returns the current length of the backing file.
func (rf *File[T]) Size() (int64, error) {
	info, err := rf.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", rf.path, err)
	}
	return info.Size(), nil
}

// Stored returns how many whole records follow the header. torn is true
// when the file ends in a partial record.
func (rf *File[T]) Stored() (n int64, torn bool, err error) {
	size, err := rf.Size()
	if err != nil {
		return 0, false, err
	}
	body := size - rf.HeaderSize()
	if body < 0 {
		return 0, true, nil
	}
	return body / rf.RecordSize(), body%rf.RecordSize() != 0, nil
}

// CheckCount compares the record count kept in slot with the records
// actually stored.
func (rf *File[T]) CheckCount(slot int) error {
	count, err := rf.Info(slot)
	if err != nil {
		return err
	}
	stored, torn, err := rf.Stored()
	if err != nil {
		return err
	}
	if count != stored || torn {
		return &CountError{Path: rf.path, Count: count, Stored: stored, Torn: torn}
	}
	return nil
}

// Initialise truncates the file and zeroes every header slot.
// All previously returned offsets become invalid.
func (rf *File[T]) Initialise() error {
	if err := rf.f.Truncate(0); err != nil {
		return fmt.Errorf("initialise %s: %w", rf.path, err)
	}
	header := make([]byte, rf.HeaderSize())
	if _, err := rf.f.WriteAt(header, 0); err != nil {
		return fmt.Errorf("initialise %s: %w", rf.path, err)
	}
	return nil
}

// Info reads header slot (1-based).
func (rf *File[T]) Info(slot int) (int64, error) {
	if slot < 1 || slot > rf.slots {
		return 0, &BoundsError{Path: rf.path, Op: opInfo, Slot: slot}
	}
	var buf [SlotSize]byte
	if _, err := rf.f.ReadAt(buf[:], int64(slot-1)*SlotSize); err != nil {
		return 0, fmt.Errorf("read info %d of %s: %w", slot, rf.path, err)
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}

// SetInfo writes header slot (1-based).
func (rf *File[T]) SetInfo(slot int, value int64) error {
	if slot < 1 || slot > rf.slots {
		return &BoundsError{Path: rf.path, Op: opWriteInfo, Slot: slot}
	}
	var buf [SlotSize]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(value))
	if _, err := rf.f.WriteAt(buf[:], int64(slot-1)*SlotSize); err != nil {
		return fmt.Errorf("write info %d of %s: %w", slot, rf.path, err)
	}
	return nil
}

// Read returns the record stored at off.
func (rf *File[T]) Read(off Offset) (T, error) {
	var zero T
	if err := rf.checkOffset("read", off); err != nil {
		return zero, err
	}
	buf := make([]byte, rf.codec.Size())
	if _, err := rf.f.ReadAt(buf, int64(off)); err != nil {
		return zero, fmt.Errorf("read %s at %d: %w", rf.path, off, err)
	}
	return rf.codec.Decode(buf), nil
}

// Append writes rec after the last record and returns its offset.
func (rf *File[T]) Append(rec T) (Offset, error) {
	size, err := rf.Size()
	if err != nil {
		return NoOffset, err
	}
	body := size - rf.HeaderSize()
	if body < 0 || body%rf.RecordSize() != 0 {
		return NoOffset, &BoundsError{Path: rf.path, Op: "append", Offset: Offset(size)}
	}

	off := Offset(size)
	buf := make([]byte, rf.codec.Size())
	rf.codec.Encode(rec, buf)
	if _, err := rf.f.WriteAt(buf, int64(off)); err != nil {
		return NoOffset, fmt.Errorf("append to %s: %w", rf.path, err)
	}
	return off, nil
}

// Update overwrites the record at a previously returned offset.
func (rf *File[T]) Update(rec T, off Offset) error {
	if err := rf.checkOffset("update", off); err != nil {
		return err
	}
	buf := make([]byte, rf.codec.Size())
	rf.codec.Encode(rec, buf)
	if _, err := rf.f.WriteAt(buf, int64(off)); err != nil {
		return fmt.Errorf("update %s at %d: %w", rf.path, off, err)
	}
	return nil
}

// Scan visits the first n records in ordinal order, skipping tombstones.
// Returning ErrStop from fn ends the scan without error.
func (rf *File[T]) Scan(n int64, fn func(off Offset, rec T) error) error {
	for i := int64(0); i < n; i++ {
		off := rf.Offset(i)
		rec, err := rf.Read(off)
		if err != nil {
			return err
		}
		if !Live(rec) {
			continue
		}
		if err := fn(off, rec); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (rf *File[T]) checkOffset(op string, off Offset) error {
	size, err := rf.Size()
	if err != nil {
		return err
	}
	rel := int64(off) - rf.HeaderSize()
	if rel < 0 || rel%rf.RecordSize() != 0 || int64(off)+rf.RecordSize() > size {
		return &BoundsError{Path: rf.path, Op: op, Offset: off}
	}
	return nil
}
