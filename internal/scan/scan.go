// Package scan resolves the height window to report on and fetches the
// blocks in it.
//
// Heights are always fetched one at a time, in ascending order, on the
// calling goroutine. Downstream delta computation depends on that order.
package scan

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dmagro/chain-blocks/internal/rpc"
)

// DefaultCount is the number of blocks below the upper bound reported when
// no count is given.
const DefaultCount uint64 = 30

// maxPrealloc caps the slice capacity reserved up front by FetchAll.
const maxPrealloc = 1 << 16

// ErrUnexpectedHeight means the server answered a height query with a
// different block.
var ErrUnexpectedHeight = errors.New("server returned a block for a different height")

// InfoClient reports the chain's current state.
type InfoClient interface {
	ChainInfo(ctx context.Context) (*rpc.ChainInfo, error)
}

// BlockClient fetches one block by height.
type BlockClient interface {
	BlockByHeight(ctx context.Context, height uint64) (*rpc.Block, error)
}

// Client is everything the scanner needs from the RPC collaborator.
// *rpc.Client satisfies it.
type Client interface {
	InfoClient
	BlockClient
}

// HeightRange is an inclusive window [Min, Max].
type HeightRange struct {
	Min uint64
	Max uint64
}

// Len is the number of heights in the range. It wraps to 0 only for the
// full [0, MaxUint64] range.
func (r HeightRange) Len() uint64 {
	return r.Max - r.Min + 1
}

func (r HeightRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}

// NewHeightRange builds the window ending at maxHeight that reaches count blocks
// back, saturating at height 0.
func NewHeightRange(maxHeight, count uint64) HeightRange {
	var minHeight uint64
	if maxHeight > count {
		minHeight = maxHeight - count
	}
	return HeightRange{Min: minHeight, Max: maxHeight}
}

// ResolveRange picks the upper bound (explicitMax, or the chain's latest
// height when explicitMax is nil) and derives the lower bound from count.
//
// An explicit upper bound above the chain's real height is not checked here;
// the first query past the tip fails on the server side instead.
func ResolveRange(ctx context.Context, client InfoClient, count uint64, explicitMax *uint64) (HeightRange, error) {
	if explicitMax != nil {
		return NewHeightRange(*explicitMax, count), nil
	}

	info, err := client.ChainInfo(ctx)
	if err != nil {
		return HeightRange{}, errors.WithMessage(err, "query chain info")
	}
	return NewHeightRange(info.LatestBlock.Height, count), nil
}

// Visitor receives each fetched block in ascending height order. Returning
// an error stops the fetch.
type Visitor func(b *rpc.Block) error

// Fetcher issues one query per height, synchronously.
type Fetcher struct {
	client   BlockClient
	log      *zap.Logger
	progress func(height uint64)
}

// NewFetcher returns a Fetcher. A nil logger disables logging.
func NewFetcher(client BlockClient, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{client: client, log: log}
}

// WithProgress registers fn to be called after each block is fetched.
func (f *Fetcher) WithProgress(fn func(height uint64)) *Fetcher {
	f.progress = fn
	return f
}

// Fetch queries every height in r from Min to Max and hands each block to
// visit. The first failure ends the fetch; nothing is retried or skipped.
func (f *Fetcher) Fetch(ctx context.Context, r HeightRange, visit Visitor) error {
	if r.Min > r.Max {
		return errors.Errorf("invalid height range %s", r)
	}

	f.log.Debug("fetching blocks", zap.Uint64("min", r.Min), zap.Uint64("max", r.Max))

	for h := r.Min; ; h++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		b, err := f.client.BlockByHeight(ctx, h)
		if err != nil {
			return errors.WithMessagef(err, "fetch block %d", h)
		}
		if b.Height() != h {
			return errors.Wrapf(ErrUnexpectedHeight, "asked for %d, got %d", h, b.Height())
		}

		f.log.Debug("fetched block",
			zap.Uint64("height", h),
			zap.Uint64("txs", b.TxCount),
			zap.Time("timestamp", b.Timestamp))

		if err := visit(b); err != nil {
			return err
		}
		if f.progress != nil {
			f.progress(h)
		}

		// Checked before incrementing so Max == MaxUint64 terminates.
		if h == r.Max {
			return nil
		}
	}
}

// FetchAll collects every block of r into a slice ordered by height.
func (f *Fetcher) FetchAll(ctx context.Context, r HeightRange) ([]*rpc.Block, error) {
	capacity := r.Len()
	if capacity == 0 || capacity > maxPrealloc {
		capacity = maxPrealloc
	}

	blocks := make([]*rpc.Block, 0, capacity)
	err := f.Fetch(ctx, r, func(b *rpc.Block) error {
		blocks = append(blocks, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}
