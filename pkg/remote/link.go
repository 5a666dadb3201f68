package remote

import (
	"net"
	"sync"
	"time"

	"github.com/mtsupport/mt-go/pkg/transport"
)

// link is a framed, message-oriented view of a connection. Sends are
// serialized; receives must come from a single goroutine.
type link struct {
	conn         net.Conn
	reader       *transport.FrameReader
	writeTimeout time.Duration

	writeMu sync.Mutex
	writer  *transport.FrameWriter

	closeOnce sync.Once
}

func newLink(conn net.Conn, writeTimeout time.Duration) *link {
	return &link{
		conn:         conn,
		reader:       transport.NewFrameReader(conn),
		writer:       transport.NewFrameWriter(conn),
		writeTimeout: writeTimeout,
	}
}

func (l *link) send(env *Envelope) error {
	data, err := Encode(env)
	if err != nil {
		return err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if l.writeTimeout > 0 {
		_ = l.conn.SetWriteDeadline(time.Now().Add(l.writeTimeout))
	}
	return l.writer.WriteFrame(data)
}

func (l *link) recv() (*Envelope, error) {
	data, err := l.reader.ReadFrame()
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// recvWithin reads one envelope with a read deadline, then clears it.
func (l *link) recvWithin(d time.Duration) (*Envelope, error) {
	_ = l.conn.SetReadDeadline(time.Now().Add(d))
	defer func() { _ = l.conn.SetReadDeadline(time.Time{}) }()
	return l.recv()
}

func (l *link) sendPing(seq uint32) error {
	return l.send(&Envelope{Type: MsgPing, Ping: &Ping{Seq: seq}})
}

func (l *link) sendPong(seq uint32) error {
	return l.send(&Envelope{Type: MsgPong, Pong: &Pong{Seq: seq}})
}

func (l *link) bytesWritten() uint64 {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.writer.Written()
}

func (l *link) close() {
	l.closeOnce.Do(func() { _ = l.conn.Close() })
}
