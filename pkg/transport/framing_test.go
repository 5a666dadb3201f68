package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"
)

func TestFrameWriterReader(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"small message", []byte("hello")},
		{"max size message", bytes.Repeat([]byte("y"), DefaultMaxMessageSize)},
		{"single byte", []byte{0x42}},
		{"binary data", []byte{0x00, 0xFF, 0x7F, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			writer := NewFrameWriter(buf)
			if err := writer.WriteFrame(tt.payload); err != nil {
				t.Fatalf("WriteFrame failed: %v", err)
			}
			if buf.Len() != FrameSize(len(tt.payload)) {
				t.Errorf("frame size = %d, want %d", buf.Len(), FrameSize(len(tt.payload)))
			}

			got, err := NewFrameReader(buf).ReadFrame()
			if err != nil {
				t.Fatalf("ReadFrame failed: %v", err)
			}
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("payload mismatch: got %d bytes, want %d bytes", len(got), len(tt.payload))
			}
			if writer.Written() != 1 {
				t.Errorf("Written() = %d, want 1", writer.Written())
			}
		})
	}
}

func TestFrameWriterLimits(t *testing.T) {
	writer := NewFrameWriterWithMaxSize(new(bytes.Buffer), 8)

	if err := writer.WriteFrame(nil); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("expected ErrMessageEmpty, got %v", err)
	}
	if err := writer.WriteFrame(make([]byte, 9)); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestFrameReaderErrors(t *testing.T) {
	prefix := func(n uint32) []byte {
		b := make([]byte, LengthPrefixSize)
		binary.BigEndian.PutUint32(b, n)
		return b
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"clean eof", nil, io.EOF},
		{"short prefix", []byte{0x00, 0x01}, ErrFrameTruncated},
		{"zero length", prefix(0), ErrMessageEmpty},
		{"too large", prefix(DefaultMaxMessageSize + 1), ErrMessageTooLarge},
		{"short payload", append(prefix(10), 1, 2, 3), ErrFrameTruncated},
		{"missing payload", prefix(10), ErrFrameTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFrameReader(bytes.NewReader(tt.data)).ReadFrame()
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFrameReaderMultipleFrames(t *testing.T) {
	buf := new(bytes.Buffer)
	w := NewFrameWriter(buf)
	for _, p := range []string{"one", "two", "three"} {
		if err := w.WriteFrame([]byte(p)); err != nil {
			t.Fatal(err)
		}
	}

	r := NewFrameReader(buf)
	for _, want := range []string{"one", "two", "three"} {
		got, err := r.ReadFrame()
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	if _, err := r.ReadFrame(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func TestFrameWriterConcurrent(t *testing.T) {
	out := &lockedBuffer{}
	w := NewFrameWriter(out)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = w.WriteFrame(bytes.Repeat([]byte{byte(i)}, 100+i))
			}
		}(i)
	}
	wg.Wait()

	r := NewFrameReader(&out.buf)
	count := 0
	for {
		p, err := r.ReadFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("frame %d: %v", count, err)
		}
		if len(p) != 100+int(p[0]) {
			t.Fatalf("frame %d interleaved", count)
		}
		count++
	}
	if count != 200 {
		t.Errorf("read %d frames, want 200", count)
	}
}

func TestFramer(t *testing.T) {
	buf := new(bytes.Buffer)
	f := NewFramer(buf)
	if err := f.WriteFrame([]byte("ping")); err != nil {
		t.Fatal(err)
	}
	got, err := f.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ping" {
		t.Errorf("got %q", got)
	}
}
