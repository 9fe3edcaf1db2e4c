package card

// Snapshot summary card
// Layout is fixed at 1200x900; countdowns are projected from the snapshot time to the render time
// Text uses the first TTF found on disk, parsed once per process, otherwise gg's built-in face

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gpu-snapshot/internal/features/epoch"
	"gpu-snapshot/internal/features/snapshot"
	"gpu-snapshot/internal/infra/log"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/image/font"
)

const (
	Width  = 1200
	Height = 900

	margin = 60.0

	titleY    = 95.0
	subtitleY = 135.0

	gaugeTop    = 175.0
	gaugeHeight = 150.0
	gaugeGap    = 30.0

	barsTop       = 375.0
	barHeight     = 22.0
	barLabelGap   = 14.0
	barRowSpacing = 80.0

	tableTop       = 570.0
	tableRowHeight = 29.0
	tableRows      = 10

	colRankX    = margin + 20
	colAddressX = margin + 110
	colBalanceX = Width - margin - 230
	colGPUsX    = Width - margin - 20

	titleFontSize = 44.0
	gaugeValSize  = 40.0
	labelFontSize = 20.0
	tableFontSize = 18.0
)

var (
	background = color.RGBA{11, 14, 20, 255}
	panel      = color.RGBA{22, 27, 37, 255}
	muted      = color.RGBA{139, 148, 163, 255}
	accent     = color.RGBA{0, 255, 136, 255}
	epochColor = color.RGBA{122, 162, 255, 255}
	track      = color.RGBA{40, 46, 58, 255}
	gold       = color.RGBA{255, 200, 0, 255}
)

var fontPaths = []string{
	"etc/fonts/Inter-Regular.ttf",
	"etc/fonts/Inter-Medium.ttf",
	"~/Library/Fonts/Inter-Regular.ttf",
	"/Library/Fonts/Inter-Regular.ttf",
	"/usr/share/fonts/truetype/inter/Inter-Regular.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
}

var (
	fontOnce sync.Once
	cardFont *truetype.Font
)

// Renderer draws cards. The zero value uses the default reward period.
type Renderer struct {
	Cycle epoch.RewardCycle
}

// Render draws the card for p as of now.
func Render(p *snapshot.Payload, now time.Time) image.Image {
	return Renderer{}.Render(p, now)
}

// EncodePNG renders the card for p and writes it to w as PNG.
func EncodePNG(w io.Writer, p *snapshot.Payload, now time.Time) error {
	return Renderer{}.EncodePNG(w, p, now)
}

func (r Renderer) Render(p *snapshot.Payload, now time.Time) image.Image {
	return r.draw(p, now).Image()
}

func (r Renderer) EncodePNG(w io.Writer, p *snapshot.Payload, now time.Time) error {
	if err := r.draw(p, now).EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode card: %w", err)
	}
	return nil
}

func (r Renderer) draw(p *snapshot.Payload, now time.Time) *gg.Context {
	if p == nil {
		p = &snapshot.Payload{UpdatedAt: now}
	}

	dc := gg.NewContext(Width, Height)
	f := newFace(dc)

	dc.SetColor(background)
	dc.Clear()

	f.size(titleFontSize)
	dc.SetColor(color.White)
	dc.DrawString("GPU Holder Snapshot", margin, titleY)

	f.size(labelFontSize)
	dc.SetColor(muted)
	dc.DrawString("Updated "+p.UpdatedAt.UTC().Format("2006-01-02 15:04:05 UTC"), margin, subtitleY)

	gaugeWidth := (Width - 2*margin - 2*gaugeGap) / 3
	gauges := []struct {
		label string
		value string
		color color.Color
	}{
		{"GPUs working", fmt.Sprintf("%d", p.TotalGPUs()), accent},
		{"GPU rewards", formatSOL(p.GPURewardsSOL), color.White},
		{"Epoch rewards", formatSOL(p.EpochRewardsSOL), epochColor},
	}
	for i, g := range gauges {
		x := margin + float64(i)*(gaugeWidth+gaugeGap)
		dc.SetColor(panel)
		dc.DrawRoundedRectangle(x, gaugeTop, gaugeWidth, gaugeHeight, 14)
		dc.Fill()

		f.size(labelFontSize)
		dc.SetColor(muted)
		dc.DrawString(g.label, x+24, gaugeTop+44)

		f.size(gaugeValSize)
		dc.SetColor(g.color)
		dc.DrawString(g.value, x+24, gaugeTop+110)
	}

	remaining := r.Cycle.Remaining(now)
	f.size(labelFontSize)
	drawBar(dc, barsTop,
		"Next reward snapshot",
		epoch.FormatMS(remaining.Milliseconds()),
		r.Cycle.Progress(now), accent)

	ep := p.EpochAt(now)
	drawBar(dc, barsTop+barRowSpacing,
		"Solana epoch",
		epoch.FormatHMS(ep.RemainingMs),
		ep.Progress(), epochColor)

	drawTable(dc, f, p)
	return dc
}

func drawBar(dc *gg.Context, y float64, label, value string, progress float64, fill color.Color) {
	width := Width - 2*margin

	dc.SetColor(muted)
	dc.DrawString(label, margin, y)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(value, Width-margin, y, 1, 0)

	top := y + barLabelGap
	dc.SetColor(track)
	dc.DrawRoundedRectangle(margin, top, width, barHeight, barHeight/2)
	dc.Fill()

	progress = min(1, max(0, progress))
	if progress > 0 {
		dc.SetColor(fill)
		dc.DrawRoundedRectangle(margin, top, max(barHeight, width*progress), barHeight, barHeight/2)
		dc.Fill()
	}
}

func drawTable(dc *gg.Context, f *face, p *snapshot.Payload) {
	dc.SetColor(panel)
	dc.DrawRoundedRectangle(margin, tableTop-40, Width-2*margin, Height-tableTop+10, 14)
	dc.Fill()

	f.size(labelFontSize)
	dc.SetColor(muted)
	header := tableTop - 10
	dc.DrawString("#", colRankX, header)
	dc.DrawString("Holder", colAddressX, header)
	dc.DrawStringAnchored("Balance", colBalanceX, header, 1, 0)
	dc.DrawStringAnchored("GPUs", colGPUsX, header, 1, 0)

	f.size(tableFontSize)
	if len(p.Holders) == 0 {
		dc.SetColor(muted)
		dc.DrawString("No holders found", colAddressX, header+tableRowHeight+6)
		return
	}

	for i, h := range p.Holders {
		if i == tableRows {
			break
		}
		y := header + float64(i+1)*tableRowHeight + 6
		if i < 3 {
			dc.SetColor(gold)
		} else {
			dc.SetColor(muted)
		}
		dc.DrawString(fmt.Sprintf("%d", i+1), colRankX, y)

		dc.SetColor(color.White)
		dc.DrawString(ShortAddress(h.Address), colAddressX, y)
		dc.DrawStringAnchored(FormatAmount(h.Balance), colBalanceX, y, 1, 0)

		dc.SetColor(accent)
		dc.DrawStringAnchored(fmt.Sprintf("%d", h.GPUs), colGPUsX, y, 1, 0)
	}
}

// ShortAddress keeps the first and last four characters of long addresses.
func ShortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}

// FormatAmount renders a token amount with K/M/B suffixes.
func FormatAmount(d decimal.Decimal) string {
	units := []struct {
		suffix string
		size   decimal.Decimal
	}{
		{"B", decimal.New(1, 9)},
		{"M", decimal.New(1, 6)},
		{"K", decimal.New(1, 3)},
	}
	for _, u := range units {
		if d.Abs().GreaterThanOrEqual(u.size) {
			return trimZeros(d.Div(u.size).StringFixed(2)) + u.suffix
		}
	}
	return trimZeros(d.StringFixed(2))
}

func formatSOL(v float64) string {
	return trimZeros(fmt.Sprintf("%.3f", v)) + " SOL"
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// face switches font sizes on a context; without a TTF it keeps gg's built-in face.
// Faces hold a glyph cache and are not safe for concurrent use, so each render
// builds its own set from the shared parsed font.
type face struct {
	dc    *gg.Context
	ttf   *truetype.Font
	cache map[float64]font.Face
}

func newFace(dc *gg.Context) *face {
	fontOnce.Do(func() { cardFont = findFont(fontPaths) })
	return &face{dc: dc, ttf: cardFont, cache: make(map[float64]font.Face)}
}

func (f *face) size(points float64) {
	if ff := f.at(points); ff != nil {
		f.dc.SetFontFace(ff)
	}
}

func (f *face) at(points float64) font.Face {
	if f.ttf == nil {
		return nil
	}
	ff, ok := f.cache[points]
	if !ok {
		ff = truetype.NewFace(f.ttf, &truetype.Options{Size: points})
		f.cache[points] = ff
	}
	return ff
}

func findFont(paths []string) *truetype.Font {
	for _, p := range paths {
		expanded := expandPath(p)
		raw, err := os.ReadFile(expanded)
		if err != nil {
			continue
		}
		parsed, err := truetype.Parse(raw)
		if err != nil {
			log.LogWarn("Font file exists but failed to parse", zap.String("path", expanded), zap.Error(err))
			continue
		}
		log.LogInfo("Loaded card font", zap.String("path", expanded), zap.Int("size", len(raw)))
		return parsed
	}
	log.LogWarn("No TTF font found, using built-in face", zap.Int("paths_checked", len(paths)))
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
