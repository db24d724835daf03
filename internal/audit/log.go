// Package audit keeps the append-only audit trail.
//
// Entries go to one of two channels, system actions and financial actions.
// The single info slot holds the entry count and bounds every scan.
package audit

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/roach88/bookstore/internal/record"
)

const (
	infoSlots = 1
	slotCount = 1
)

const (
	actorWidth   = 31
	channelWidth = 8
	actionWidth  = 128

	// MaxActionLen is the longest action text kept; longer text is cut.
	MaxActionLen = actionWidth - 1
)

// Channel tags an entry as a system or financial action.
type Channel string

const (
	System    Channel = "SYS"
	Financial Channel = "FIN"
)

// Entry is one audit record.
type Entry struct {
	Actor   string
	Channel Channel
	Action  string
	Time    time.Time
}

// Tombstoned implements record.Record. Audit entries are never removed.
func (Entry) Tombstoned() bool {
	return false
}

type entryCodec struct{}

func (entryCodec) Size() int { return actorWidth + channelWidth + actionWidth + 8 }

func (entryCodec) Encode(e Entry, buf []byte) {
	enc := record.NewEncoder(buf)
	enc.String(e.Actor, actorWidth)
	enc.String(string(e.Channel), channelWidth)
	enc.String(e.Action, actionWidth)
	enc.Int64(e.Time.Unix())
}

func (entryCodec) Decode(buf []byte) Entry {
	d := record.NewDecoder(buf)
	return Entry{
		Actor:   d.String(actorWidth),
		Channel: Channel(d.String(channelWidth)),
		Action:  d.String(actionWidth),
		Time:    time.Unix(d.Int64(), 0).UTC(),
	}
}

// Clock supplies entry timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// ActorTotals counts one actor's entries per channel.
type ActorTotals struct {
	Actor     string
	System    int64
	Financial int64
}

// Total is the actor's entry count over both channels.
func (a ActorTotals) Total() int64 {
	return a.System + a.Financial
}

// Log owns the audit file.
type Log struct {
	file   *record.File[Entry]
	clock  Clock
	logger *slog.Logger
}

// Open opens the audit file at path. A nil clock means SystemClock.
func Open(path string, clock Clock, logger *slog.Logger) (*Log, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	f, err := record.Open[Entry](path, infoSlots, entryCodec{})
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &Log{file: f, clock: clock, logger: logger}, nil
}

// Close releases the audit file.
func (l *Log) Close() error {
	return l.file.Close()
}

// Count returns the number of entries.
func (l *Log) Count() (int64, error) {
	return l.file.Info(slotCount)
}

// Record appends one entry and bumps the count.
func (l *Log) Record(channel Channel, actor, action string) error {
	if channel != System && channel != Financial {
		return fmt.Errorf("record: unknown channel %q", channel)
	}
	if len(action) > MaxActionLen {
		action = action[:MaxActionLen]
	}
	n, err := l.Count()
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}
	e := Entry{Actor: actor, Channel: channel, Action: action, Time: l.clock.Now()}
	if _, err := l.file.Append(e); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	if err := l.file.SetInfo(slotCount, n+1); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	l.logger.Debug("audit entry recorded", "actor", actor, "channel", string(channel), "action", action)
	return nil
}

// Replay returns every entry in recording order.
func (l *Log) Replay() ([]Entry, error) {
	n, err := l.Count()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, n)
	err = l.file.Scan(n, func(_ record.Offset, e Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replay audit log: %w", err)
	}
	return entries, nil
}

// ByActor groups entries by actor, case-sensitively, sorted by actor.
func (l *Log) ByActor() ([]ActorTotals, error) {
	entries, err := l.Replay()
	if err != nil {
		return nil, err
	}
	byActor := make(map[string]*ActorTotals)
	for _, e := range entries {
		t, ok := byActor[e.Actor]
		if !ok {
			t = &ActorTotals{Actor: e.Actor}
			byActor[e.Actor] = t
		}
		if e.Channel == Financial {
			t.Financial++
		} else {
			t.System++
		}
	}

	totals := make([]ActorTotals, 0, len(byActor))
	for _, t := range byActor {
		totals = append(totals, *t)
	}
	slices.SortFunc(totals, func(a, b ActorTotals) int {
		return strings.Compare(a.Actor, b.Actor)
	})
	return totals, nil
}

// Verify checks the count slot against the file.
func (l *Log) Verify() error {
	return l.file.CheckCount(slotCount)
}
