package announce

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gpu-snapshot/internal/features/epoch"
	"gpu-snapshot/internal/features/holders"
	"gpu-snapshot/internal/features/snapshot"
	"gpu-snapshot/internal/infra/fs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	photos   []string
	captions []string
	texts    []string
	photoErr error
}

func (f *fakeSender) SendPhoto(path, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.photoErr != nil {
		return f.photoErr
	}
	f.photos = append(f.photos, path)
	f.captions = append(f.captions, caption)
	return nil
}

func (f *fakeSender) SendText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

type fakeBuilder struct {
	mu       sync.Mutex
	payloads []*snapshot.Payload
	err      error
	calls    int
}

func (f *fakeBuilder) Build(context.Context, string) (*snapshot.Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p := f.payloads[0]
	if len(f.payloads) > 1 {
		f.payloads = f.payloads[1:]
	}
	return p, nil
}

type failingStore struct{}

func (failingStore) SaveCard(string, func(io.Writer) error) (string, error) {
	return "", errors.New("disk full")
}

var baseTime = time.Date(2025, 5, 6, 7, 0, 0, 0, time.UTC)

func payload(at time.Time, remainingMs int64) *snapshot.Payload {
	return &snapshot.Payload{
		UpdatedAt: at,
		Holders: []holders.Holder{
			{Address: "HUz9dMkUd1TiDzpm9nwkiQDUgUp9gazuVF59DyAjpump", Balance: decimal.NewFromInt(5_000_000), GPUs: 5},
			{Address: "Bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Balance: decimal.NewFromInt(2_000_000), GPUs: 2},
			{Address: "Cccccccccccccccccccccccccccccccccccccccccccc", Balance: decimal.NewFromInt(1_000_000), GPUs: 1},
			{Address: "Dddddddddddddddddddddddddddddddddddddddddddd", Balance: decimal.NewFromInt(1_000_000), GPUs: 1},
		},
		GPURewardsSOL:   1.5,
		EpochRewardsSOL: 0.25,
		Epoch:           epoch.State{TotalMs: 172_800_000, RemainingMs: remainingMs},
	}
}

func newTestAnnouncer(t *testing.T, b Builder, s Sender, store CardStore) *Announcer {
	t.Helper()
	a := New(b, s, store, Config{Mint: "mint", Interval: time.Hour})
	a.now = func() time.Time { return baseTime }
	return a
}

func TestTickSavesCardAndSendsPhoto(t *testing.T) {
	store := fs.NewStore(t.TempDir())
	sender := &fakeSender{}
	a := newTestAnnouncer(t, &fakeBuilder{payloads: []*snapshot.Payload{payload(baseTime, 3_600_000)}}, sender, store)

	require.NoError(t, a.Tick(context.Background()))

	require.Len(t, sender.photos, 1)
	assert.Equal(t, filepath.Join(store.Root(), fs.CardsDir, "latest.png"), sender.photos[0])
	info, err := os.Stat(sender.photos[0])
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	caption := sender.captions[0]
	assert.Contains(t, caption, "GPUs working: <code>9</code>")
	assert.Contains(t, caption, "GPU rewards: <code>1.500 SOL</code>")
	assert.Contains(t, caption, "Epoch ends in: <code>01:00:00</code>")
	assert.Contains(t, caption, "HUz9...pump")
	assert.NotContains(t, caption, "Dddd...dddd")
	assert.Empty(t, sender.texts)
}

func TestTickSkipsOnBuildFailure(t *testing.T) {
	sender := &fakeSender{}
	a := newTestAnnouncer(t, &fakeBuilder{err: errors.New("rpc down")}, sender, fs.NewStore(t.TempDir()))

	require.NoError(t, a.Tick(context.Background()))
	assert.Empty(t, sender.photos)
	assert.Empty(t, sender.texts)
}

func TestTickFallsBackToTextWhenCardUnavailable(t *testing.T) {
	sender := &fakeSender{}
	a := newTestAnnouncer(t, &fakeBuilder{payloads: []*snapshot.Payload{payload(baseTime, 1000)}}, sender, failingStore{})

	require.NoError(t, a.Tick(context.Background()))
	assert.Empty(t, sender.photos)
	require.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0], "GPUs working")
}

func TestTickFallsBackToTextWhenPhotoFails(t *testing.T) {
	sender := &fakeSender{photoErr: errors.New("telegram 400")}
	a := newTestAnnouncer(t, &fakeBuilder{payloads: []*snapshot.Payload{payload(baseTime, 1000)}}, sender, fs.NewStore(t.TempDir()))

	require.NoError(t, a.Tick(context.Background()))
	require.Len(t, sender.texts, 1)
}

func TestTickAnnouncesRollover(t *testing.T) {
	sender := &fakeSender{}
	b := &fakeBuilder{payloads: []*snapshot.Payload{
		payload(baseTime, 600_000),
		payload(baseTime, 172_000_000),
	}}
	a := newTestAnnouncer(t, b, sender, fs.NewStore(t.TempDir()))

	require.NoError(t, a.Tick(context.Background()))
	assert.Empty(t, sender.texts)

	require.NoError(t, a.Tick(context.Background()))
	require.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0], "New Solana epoch started")
	assert.Len(t, sender.photos, 2)
}

func TestRollover(t *testing.T) {
	total := int64(172_800_000)
	assert.True(t, Rollover(epoch.State{TotalMs: total, RemainingMs: 0}, epoch.State{TotalMs: total, RemainingMs: total - 1000}))
	assert.False(t, Rollover(epoch.State{TotalMs: total, RemainingMs: 5_000_000}, epoch.State{TotalMs: total, RemainingMs: 3_200_000}))
	assert.False(t, Rollover(epoch.State{TotalMs: total, RemainingMs: 5_000_000}, epoch.State{TotalMs: total, RemainingMs: 5_600_000}))
}

func TestRunStopsOnCancel(t *testing.T) {
	sender := &fakeSender{}
	b := &fakeBuilder{payloads: []*snapshot.Payload{payload(baseTime, 1000)}}
	a := newTestAnnouncer(t, b, sender, fs.NewStore(t.TempDir()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.calls == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestParseChatID(t *testing.T) {
	id, err := ParseChatID(" -1001234567890 ")
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234567890), id)

	_, err = ParseChatID("@channel")
	assert.Error(t, err)
}
