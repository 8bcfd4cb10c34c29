// =============================================================================
// FILE: internal/rpc/types.go
// ROLE: Data model for the chain JSON-RPC service
// =============================================================================
//
// Two layers live here:
//
//   Layer 1 (wire*):  the JSON shapes exactly as the server sends them.
//                     Hashes are hex strings, timestamps are Unix seconds.
//   Layer 2 (Block):  typed values the rest of the program works with.
//                     Hashes are []byte, timestamps are time.Time.
//
// Decoding from layer 1 to layer 2 happens in one place (methods.go), so a
// malformed field surfaces as ErrDecode instead of a silent zero.
//
// Example chain.block result:
//
//	{
//	    "block": {
//	        "id":        {"height": 70, "hash": "9f1c..."},
//	        "parent":    {"height": 69, "hash": "77ab..."},
//	        "appHash":   "abcd",
//	        "timestamp": 1700000000,
//	        "txsCount":  3
//	    }
//	}
// =============================================================================

package rpc

import (
	"encoding/json"
	"fmt"
	"time"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// Response is the JSON-RPC 2.0 envelope. Exactly one of Result or Error is
// meaningful; Error is nil on success.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a service-side error carried inside the envelope.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Unwrap lets errors.Is(err, ErrRPC) match any envelope error.
func (e *RPCError) Unwrap() error { return ErrRPC }

// BlockID identifies a block by height and hash.
type BlockID struct {
	Height uint64
	Hash   []byte
}

// ChainInfo is the decoded chain.info result. Only LatestBlock.Height is
// needed to resolve a height range.
type ChainInfo struct {
	LatestBlock BlockID
}

// Block is one decoded chain.block result.
type Block struct {
	ID        BlockID
	Parent    BlockID
	AppHash   []byte // nil when the server reports no app hash
	Timestamp time.Time
	TxCount   uint64
}

// Height is shorthand for b.ID.Height.
func (b *Block) Height() uint64 { return b.ID.Height }

type wireBlockID struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash,omitempty"`
}

type wireChainInfo struct {
	LatestBlock *wireBlockID `json:"latestBlock"`
}

type heightQuery struct {
	Height uint64 `json:"height"`
}

// blockArgs is the single positional parameter of chain.block.
type blockArgs struct {
	Query heightQuery `json:"query"`
}

type wireBlock struct {
	ID        *wireBlockID `json:"id"`
	Parent    *wireBlockID `json:"parent,omitempty"`
	AppHash   *string      `json:"appHash"`
	Timestamp *uint64      `json:"timestamp"`
	TxsCount  uint64       `json:"txsCount"`
}

type blockReturns struct {
	Block *wireBlock `json:"block"`
}
