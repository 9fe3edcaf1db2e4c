package helius

import (
	"context"
	"encoding/json"
	"fmt"
)

// MaxMultipleAccounts is the provider limit for keys per getMultipleAccounts call.
const MaxMultipleAccounts = 100

// GetBalance returns the lamport balance of pubkey.
func (c *Client) GetBalance(ctx context.Context, pubkey string) (uint64, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, "getBalance", []any{pubkey}, &raw); err != nil {
		return 0, err
	}
	var lamports uint64
	if err := json.Unmarshal(unwrapValue(raw), &lamports); err != nil {
		return 0, fmt.Errorf("failed to decode getBalance result: %w", err)
	}
	return lamports, nil
}

// GetProgramAccounts lists accounts owned by program that match cfg.Filters.
func (c *Client) GetProgramAccounts(ctx context.Context, program string, cfg ProgramAccountsConfig) ([]KeyedAccount, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, "getProgramAccounts", []any{program, cfg}, &raw); err != nil {
		return nil, err
	}
	var accounts []KeyedAccount
	if err := json.Unmarshal(unwrapValue(raw), &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode getProgramAccounts result: %w", err)
	}
	return accounts, nil
}

// GetMultipleAccounts fetches up to MaxMultipleAccounts accounts; missing accounts are nil.
func (c *Client) GetMultipleAccounts(ctx context.Context, keys []string, cfg MultipleAccountsConfig) ([]*Account, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if len(keys) > MaxMultipleAccounts {
		return nil, fmt.Errorf("getMultipleAccounts: %d keys exceeds limit of %d", len(keys), MaxMultipleAccounts)
	}
	var raw json.RawMessage
	if err := c.Call(ctx, "getMultipleAccounts", []any{keys, cfg}, &raw); err != nil {
		return nil, err
	}
	var accounts []*Account
	if err := json.Unmarshal(unwrapValue(raw), &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode getMultipleAccounts result: %w", err)
	}
	return accounts, nil
}

// GetTokenLargestAccounts returns the largest token accounts of mint.
func (c *Client) GetTokenLargestAccounts(ctx context.Context, mint string) ([]LargestAccount, error) {
	var raw json.RawMessage
	params := []any{mint, map[string]any{"commitment": CommitmentConfirmed}}
	if err := c.Call(ctx, "getTokenLargestAccounts", params, &raw); err != nil {
		return nil, err
	}
	var accounts []LargestAccount
	if err := json.Unmarshal(unwrapValue(raw), &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode getTokenLargestAccounts result: %w", err)
	}
	return accounts, nil
}

// GetEpochInfo returns the current epoch; an empty commitment sends no config object.
func (c *Client) GetEpochInfo(ctx context.Context, commitment Commitment) (*EpochInfo, error) {
	params := []any{}
	if commitment != "" {
		params = append(params, map[string]any{"commitment": commitment})
	}
	var info EpochInfo
	if err := c.Call(ctx, "getEpochInfo", params, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetRecentPerformanceSamples returns up to limit samples, newest first.
func (c *Client) GetRecentPerformanceSamples(ctx context.Context, limit int) ([]PerformanceSample, error) {
	var samples []PerformanceSample
	if err := c.Call(ctx, "getRecentPerformanceSamples", []any{limit}, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}
