package leaderboard

// Leaderboard view over ranked holders
// Ranks are assigned on the full list before any filtering, so a search never renumbers rows

import (
	"encoding/json"
	"strings"

	"gpu-snapshot/internal/features/holders"
)

const DefaultPageSize = 25

type Row struct {
	Rank int `json:"rank"`
	holders.Holder
}

type rowJSON struct {
	Rank    int         `json:"rank"`
	Address string      `json:"address"`
	Balance json.Number `json:"balance"`
	GPUs    int64       `json:"gpus"`
}

// MarshalJSON flattens the holder fields next to rank.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(rowJSON{
		Rank:    r.Rank,
		Address: r.Address,
		Balance: json.Number(r.Balance.String()),
		GPUs:    r.GPUs,
	})
}

type Page struct {
	Number     int   `json:"page"`
	Size       int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
	Total      int   `json:"total"`
	Rows       []Row `json:"rows"`
}

// Rank numbers holders by position, starting at 1.
func Rank(hs []holders.Holder) []Row {
	rows := make([]Row, len(hs))
	for i, h := range hs {
		rows[i] = Row{Rank: i + 1, Holder: h}
	}
	return rows
}

// Search keeps rows whose address contains query, ignoring case. An empty query keeps all rows.
func Search(rows []Row, query string) []Row {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Address), q) {
			out = append(out, r)
		}
	}
	return out
}

// Paginate returns page number (1-based, clamped into range) of the given size.
func Paginate(rows []Row, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	totalPages := max(1, (len(rows)+size-1)/size)
	page = min(max(page, 1), totalPages)

	start := min((page-1)*size, len(rows))
	end := min(start+size, len(rows))

	return Page{
		Number:     page,
		Size:       size,
		TotalPages: totalPages,
		Total:      len(rows),
		Rows:       append([]Row{}, rows[start:end]...),
	}
}

// TotalGPUs sums GPUs over all holders.
func TotalGPUs(hs []holders.Holder) int64 {
	var total int64
	for _, h := range hs {
		total += h.GPUs
	}
	return total
}
