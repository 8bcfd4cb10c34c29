// Package timeline turns an ordered block sequence into display rows,
// annotating each block with the time elapsed since the one before it.
//
// The delta computation is a fold: Step takes the current State and a block
// and returns the next State. State is never shared or captured, so the
// sequential dependency between blocks stays visible at every call site.
package timeline

import (
	"time"

	"github.com/pkg/errors"

	"github.com/dmagro/chain-blocks/internal/rpc"
)

// ErrNonMonotonic means a block's timestamp is earlier than the timestamp of
// the block fetched before it.
var ErrNonMonotonic = errors.New("block timestamps are not monotonic")

const (
	// TimeLayout renders block times with second precision.
	TimeLayout = "2006-01-02 15:04:05"
	// NoAppHash is shown when a block carries no app hash.
	NoAppHash = "-"
)

// State is the fold state of the delta accumulator. The zero value means no
// block has been seen yet.
type State struct {
	previous *time.Time
	height   uint64
}

// Previous returns the timestamp of the last block processed, if any.
func (s State) Previous() (time.Time, bool) {
	if s.previous == nil {
		return time.Time{}, false
	}
	return *s.previous, true
}

// Step processes one block. The first block yields a nil delta; every later
// block yields its timestamp minus the previous block's. A timestamp earlier
// than the previous one is an error, never a negative or clamped delta.
func Step(s State, b *rpc.Block) (State, *time.Duration, error) {
	ts := b.Timestamp
	next := State{previous: &ts, height: b.Height()}

	if s.previous == nil {
		return next, nil, nil
	}
	if ts.Before(*s.previous) {
		return s, nil, errors.Wrapf(ErrNonMonotonic,
			"block %d at %s is before block %d at %s",
			b.Height(), ts.UTC().Format(TimeLayout),
			s.height, s.previous.UTC().Format(TimeLayout))
	}

	d := ts.Sub(*s.previous)
	return next, &d, nil
}

// Deltas folds Step over blocks in order. The result has one entry per
// block; the first is always nil.
func Deltas(blocks []*rpc.Block) ([]*time.Duration, error) {
	deltas := make([]*time.Duration, len(blocks))

	var state State
	for i, b := range blocks {
		var (
			d   *time.Duration
			err error
		)
		state, d, err = Step(state, b)
		if err != nil {
			return nil, err
		}
		deltas[i] = d
	}
	return deltas, nil
}

// Row is one display record.
type Row struct {
	Height    uint64
	TxCount   uint64
	AppHash   string
	BlockTime string
	Delta     string

	Timestamp time.Time
	Elapsed   *time.Duration
}

// Project maps a block and its delta onto a Row.
func Project(b *rpc.Block, delta *time.Duration) Row {
	appHash := NoAppHash
	if b.AppHash != nil {
		appHash = rpc.EncodeHex(b.AppHash)
	}

	var deltaStr string
	if delta != nil {
		deltaStr = FormatDuration(*delta)
	}

	return Row{
		Height:    b.Height(),
		TxCount:   b.TxCount,
		AppHash:   appHash,
		BlockTime: b.Timestamp.UTC().Format(TimeLayout),
		Delta:     deltaStr,
		Timestamp: b.Timestamp,
		Elapsed:   delta,
	}
}

// Build runs the accumulator and projector over blocks. On error no rows are
// returned.
func Build(blocks []*rpc.Block) ([]Row, error) {
	deltas, err := Deltas(blocks)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(blocks))
	for i, b := range blocks {
		rows[i] = Project(b, deltas[i])
	}
	return rows, nil
}
