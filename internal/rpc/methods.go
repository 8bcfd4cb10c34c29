package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/pkg/errors"
)

const (
	MethodChainInfo  = "chain.info"
	MethodChainBlock = "chain.block"
)

// ChainInfo calls chain.info and returns the service's current state.
func (c *Client) ChainInfo(ctx context.Context) (*ChainInfo, error) {
	resp, err := c.Call(ctx, MethodChainInfo)
	if err != nil {
		return nil, err
	}
	return decodeChainInfo(resp.Result)
}

// BlockByHeight calls chain.block with a height query.
func (c *Client) BlockByHeight(ctx context.Context, height uint64) (*Block, error) {
	resp, err := c.Call(ctx, MethodChainBlock, blockArgs{Query: heightQuery{Height: height}})
	if err != nil {
		return nil, err
	}
	return decodeBlock(resp.Result)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeChainInfo(raw json.RawMessage) (*ChainInfo, error) {
	if isNull(raw) {
		return nil, errors.Wrap(ErrDecode, "chain.info: empty result")
	}

	var w wireChainInfo
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, errors.Wrapf(ErrDecode, "chain.info: %v", err)
	}
	if w.LatestBlock == nil {
		return nil, errors.Wrap(ErrDecode, "chain.info: missing latestBlock")
	}

	id, err := decodeBlockID(w.LatestBlock)
	if err != nil {
		return nil, errors.WithMessage(err, "chain.info: latestBlock")
	}
	return &ChainInfo{LatestBlock: id}, nil
}

func decodeBlock(raw json.RawMessage) (*Block, error) {
	if isNull(raw) {
		return nil, errors.Wrap(ErrDecode, "chain.block: empty result")
	}

	var w blockReturns
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, errors.Wrapf(ErrDecode, "chain.block: %v", err)
	}
	if w.Block == nil {
		return nil, errors.Wrap(ErrDecode, "chain.block: missing block")
	}
	wb := w.Block
	if wb.ID == nil {
		return nil, errors.Wrap(ErrDecode, "chain.block: missing id")
	}
	if wb.Timestamp == nil {
		return nil, errors.Wrapf(ErrDecode, "chain.block %d: missing timestamp", wb.ID.Height)
	}
	if *wb.Timestamp > math.MaxInt64 {
		return nil, errors.Wrapf(ErrDecode, "chain.block %d: timestamp %d out of range", wb.ID.Height, *wb.Timestamp)
	}

	id, err := decodeBlockID(wb.ID)
	if err != nil {
		return nil, errors.WithMessage(err, "chain.block: id")
	}

	block := &Block{
		ID:        id,
		Timestamp: time.Unix(int64(*wb.Timestamp), 0).UTC(),
		TxCount:   wb.TxsCount,
	}

	if wb.Parent != nil {
		if block.Parent, err = decodeBlockID(wb.Parent); err != nil {
			return nil, errors.WithMessagef(err, "chain.block %d: parent", id.Height)
		}
	}

	if wb.AppHash != nil {
		if block.AppHash, err = DecodeHex(*wb.AppHash); err != nil {
			return nil, errors.WithMessagef(err, "chain.block %d: appHash", id.Height)
		}
	}

	return block, nil
}

func decodeBlockID(w *wireBlockID) (BlockID, error) {
	id := BlockID{Height: w.Height}
	if w.Hash == "" {
		return id, nil
	}
	hash, err := DecodeHex(w.Hash)
	if err != nil {
		return BlockID{}, err
	}
	id.Hash = hash
	return id, nil
}
