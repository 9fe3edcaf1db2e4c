package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveCard(t *testing.T) {
	s := NewStore(t.TempDir())

	path, err := s.SaveCard("latest.png", func(w io.Writer) error {
		_, err := w.Write([]byte("png-bytes"))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), CardsDir, "latest.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestSaveOverwritesAndLeavesNoTempFiles(t *testing.T) {
	s := NewStore(t.TempDir())
	for _, body := range []string{"first", "second"} {
		_, err := s.SaveCard("card.png", func(w io.Writer) error {
			_, err := io.WriteString(w, body)
			return err
		})
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(filepath.Join(s.Root(), CardsDir))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(s.Root(), CardsDir, "card.png"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestSaveFailuresKeepPreviousFile(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.SaveCard("card.png", func(w io.Writer) error {
		_, err := io.WriteString(w, "good")
		return err
	})
	require.NoError(t, err)

	_, err = s.SaveCard("card.png", func(io.Writer) error { return errors.New("encode failed") })
	assert.ErrorContains(t, err, "encode failed")

	_, err = s.SaveCard("card.png", func(io.Writer) error { return nil })
	assert.ErrorContains(t, err, "empty")

	data, err := os.ReadFile(filepath.Join(s.Root(), CardsDir, "card.png"))
	require.NoError(t, err)
	assert.Equal(t, "good", string(data))
}

func TestSaveJSON(t *testing.T) {
	s := NewStore(t.TempDir())
	path, err := s.SaveJSON("snap.json", map[string]int{"gpus": 3})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"gpus":3}`, string(data))
}
