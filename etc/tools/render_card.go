package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"gpu-snapshot/internal/features/card"
	"gpu-snapshot/internal/features/epoch"
	"gpu-snapshot/internal/features/holders"
	"gpu-snapshot/internal/features/snapshot"
	"gpu-snapshot/internal/infra/fs"

	"github.com/shopspring/decimal"
)

// go run etc/tools/render_card.go [snapshot.json]
// Renders etc/charts/cards/preview.png from a saved snapshot, or from sample data
func main() {
	p, err := loadPayload(os.Args[1:])
	if err != nil {
		fmt.Printf("Error loading snapshot: %v\n", err)
		os.Exit(1)
	}

	path, err := fs.NewStore("etc/charts").SaveCard("preview.png", func(w io.Writer) error {
		return card.EncodePNG(w, p, time.Now())
	})
	if err != nil {
		fmt.Printf("Error rendering card: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Card rendered: %s\n", path)
}

func loadPayload(args []string) (*snapshot.Payload, error) {
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, err
		}
		var p snapshot.Payload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	hs := make([]holders.Holder, 12)
	for i := range hs {
		hs[i] = holders.Holder{
			Address: fmt.Sprintf("Samp%02dHo1derAddressxxxxxxxxxxxxxxxxxxxxxx", i),
			Balance: decimal.NewFromInt(int64(12-i) * 1_750_000),
			GPUs:    int64(12-i) * 7 / 4,
		}
	}
	return &snapshot.Payload{
		UpdatedAt:       time.Now().Add(-20 * time.Second),
		Holders:         hs,
		GPURewardsSOL:   3.215,
		EpochRewardsSOL: 41.7,
		Epoch:           epoch.State{TotalMs: 172_800_000, RemainingMs: 61_234_000},
	}, nil
}
