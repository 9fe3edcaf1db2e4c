package helius

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Commitment string

const (
	CommitmentFinalized Commitment = "finalized"
	CommitmentConfirmed Commitment = "confirmed"
)

const (
	EncodingJSONParsed = "jsonParsed"
	EncodingBase64     = "base64"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Filter is one getProgramAccounts filter; exactly one field is set.
type Filter struct {
	Memcmp   *Memcmp `json:"memcmp,omitempty"`
	DataSize *uint64 `json:"dataSize,omitempty"`
}

type Memcmp struct {
	Offset uint64 `json:"offset"`
	Bytes  string `json:"bytes"`
}

type DataSlice struct {
	Offset uint64 `json:"offset"`
	Length uint64 `json:"length"`
}

func MemcmpFilter(offset uint64, bytes string) Filter {
	return Filter{Memcmp: &Memcmp{Offset: offset, Bytes: bytes}}
}

func DataSizeFilter(size uint64) Filter {
	return Filter{DataSize: &size}
}

type ProgramAccountsConfig struct {
	Encoding   string     `json:"encoding,omitempty"`
	Commitment Commitment `json:"commitment,omitempty"`
	Filters    []Filter   `json:"filters,omitempty"`
	DataSlice  *DataSlice `json:"dataSlice,omitempty"`
}

type MultipleAccountsConfig struct {
	Encoding   string     `json:"encoding,omitempty"`
	Commitment Commitment `json:"commitment,omitempty"`
}

type EpochInfo struct {
	Epoch        uint64 `json:"epoch"`
	SlotIndex    uint64 `json:"slotIndex"`
	SlotsInEpoch uint64 `json:"slotsInEpoch"`
	AbsoluteSlot uint64 `json:"absoluteSlot"`
	BlockHeight  uint64 `json:"blockHeight"`
}

type PerformanceSample struct {
	Slot             uint64 `json:"slot"`
	NumSlots         uint64 `json:"numSlots"`
	NumTransactions  uint64 `json:"numTransactions"`
	SamplePeriodSecs uint64 `json:"samplePeriodSecs"`
}

// TokenAmount is the amount block of parsed token accounts and getTokenLargestAccounts.
type TokenAmount struct {
	Amount         string   `json:"amount"`
	Decimals       int      `json:"decimals"`
	UIAmount       *float64 `json:"uiAmount"`
	UIAmountString string   `json:"uiAmountString"`
}

type LargestAccount struct {
	Address string `json:"address"`
	TokenAmount
}

type TokenAccountInfo struct {
	Mint        string      `json:"mint"`
	Owner       string      `json:"owner"`
	State       string      `json:"state"`
	TokenAmount TokenAmount `json:"tokenAmount"`
}

type ParsedAccount struct {
	Program string `json:"program"`
	Parsed  struct {
		Type string          `json:"type"`
		Info json.RawMessage `json:"info"`
	} `json:"parsed"`
	Space uint64 `json:"space"`
}

// AccountData is either a parsed object (jsonParsed) or a [payload, encoding] pair.
type AccountData struct {
	Parsed   *ParsedAccount
	Payload  string
	Encoding string
}

func (d *AccountData) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '[':
		var pair []string
		if err := json.Unmarshal(b, &pair); err != nil {
			return fmt.Errorf("decode account data: %w", err)
		}
		if len(pair) > 0 {
			d.Payload = pair[0]
		}
		if len(pair) > 1 {
			d.Encoding = pair[1]
		}
		return nil
	case b[0] == '{':
		var parsed ParsedAccount
		if err := json.Unmarshal(b, &parsed); err != nil {
			return fmt.Errorf("decode parsed account data: %w", err)
		}
		d.Parsed = &parsed
		return nil
	case b[0] == '"':
		return json.Unmarshal(b, &d.Payload)
	default:
		return fmt.Errorf("unexpected account data %q", truncateBody(b))
	}
}

// TokenAccount returns the parsed token account info, if the data holds one.
func (d AccountData) TokenAccount() (*TokenAccountInfo, bool) {
	if d.Parsed == nil || d.Parsed.Parsed.Type != "account" || len(d.Parsed.Parsed.Info) == 0 {
		return nil, false
	}
	var info TokenAccountInfo
	if err := json.Unmarshal(d.Parsed.Parsed.Info, &info); err != nil {
		return nil, false
	}
	return &info, true
}

type Account struct {
	Lamports   uint64      `json:"lamports"`
	Owner      string      `json:"owner"`
	Data       AccountData `json:"data"`
	Executable bool        `json:"executable"`
	Space      uint64      `json:"space"`
}

type KeyedAccount struct {
	Pubkey  string  `json:"pubkey"`
	Account Account `json:"account"`
}

// unwrapValue returns the value field of a {context, value} result, or raw itself.
func unwrapValue(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var wrapped struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil || wrapped.Value == nil {
		return trimmed
	}
	return wrapped.Value
}
