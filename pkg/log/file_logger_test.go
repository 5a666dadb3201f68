package log

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoggerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.mtlog")

	l, err := NewFileLogger(path)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm()&0644)
}

func TestFileLoggerAppends(t *testing.T) {
	path := createTestLogFile(t, []Event{sampleFrameEvent()})

	l, err := NewFileLogger(path)
	require.NoError(t, err)
	l.Log(Event{Category: CategoryState, StateChange: &StateChangeEvent{NewState: "RUNNING"}})
	require.NoError(t, l.Close())

	events := readAll(t, path, Filter{})
	require.Len(t, events, 2)
	assert.Equal(t, CategoryFrame, events[0].Category)
	assert.Equal(t, CategoryState, events[1].Category)
}

func TestFileLoggerThreadSafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.mtlog")
	l, err := NewFileLogger(path)
	require.NoError(t, err)

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				l.Log(Event{DeviceID: uint64(w), Category: CategoryFrame, Frame: &FrameEvent{Number: int64(i)}})
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, workers*perWorker, l.Written())
	require.NoError(t, l.Close())

	assert.Len(t, readAll(t, path, Filter{}), workers*perWorker)
}

func TestFileLoggerClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed.mtlog")
	l, err := NewFileLogger(path)
	require.NoError(t, err)

	l.Log(Event{})
	require.NoError(t, l.Close())
	require.NoError(t, l.Close(), "second Close")

	l.Log(Event{})
	assert.NoError(t, l.Flush())
	assert.Equal(t, 1, l.Written())
	assert.Len(t, readAll(t, path, Filter{}), 1)
}

func TestFileLoggerBadPath(t *testing.T) {
	_, err := NewFileLogger(filepath.Join(t.TempDir(), "missing", "dir", "x.mtlog"))
	assert.Error(t, err)
}
