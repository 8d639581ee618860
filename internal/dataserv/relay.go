package dataserv

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"
)

// outputBufferSize is the buffer size for reading child stdout/stderr.
const outputBufferSize = 4096

// OutputEvent is sent on OutputNamespace for every chunk a child writes.
type OutputEvent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Stream string `json:"stream"`
	Chunk  []byte `json:"-"`
}

// chunkEncodingBase64 marks a chunk that is not valid UTF-8 and travels
// base64-encoded.
const chunkEncodingBase64 = "base64"

type outputEventWire struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Stream   string `json:"stream"`
	Chunk    string `json:"chunk"`
	Encoding string `json:"encoding,omitempty"`
}

// MarshalJSON renders the chunk as text when it is valid UTF-8, which is
// what the client emits. Anything else is base64-encoded so the bytes
// survive the trip unchanged.
func (e OutputEvent) MarshalJSON() ([]byte, error) {
	w := outputEventWire{ID: e.ID, Name: e.Name, Stream: e.Stream}
	if utf8.Valid(e.Chunk) {
		w.Chunk = string(e.Chunk)
	} else {
		w.Chunk = base64.StdEncoding.EncodeToString(e.Chunk)
		w.Encoding = chunkEncodingBase64
	}
	return json.Marshal(w)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (e *OutputEvent) UnmarshalJSON(data []byte) error {
	var w outputEventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	chunk := []byte(w.Chunk)
	switch w.Encoding {
	case "":
	case chunkEncodingBase64:
		decoded, err := base64.StdEncoding.DecodeString(w.Chunk)
		if err != nil {
			return fmt.Errorf("decoding output chunk: %w", err)
		}
		chunk = decoded
	default:
		return fmt.Errorf("unknown output chunk encoding %q", w.Encoding)
	}

	*e = OutputEvent{ID: w.ID, Name: w.Name, Stream: w.Stream, Chunk: chunk}
	return nil
}

// relay drains both streams of p, then reaps it and tombstones its entry
// if the entry still points at p.
func (s *Supervisor) relay(p *Process) {
	defer s.relays.Done()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.relayStream(p, "stdout", p.handle.Stdout())
	}()
	go func() {
		defer wg.Done()
		s.relayStream(p, "stderr", p.handle.Stderr())
	}()
	wg.Wait()

	err := p.handle.Wait()
	ran := time.Since(p.startedAt)

	if err != nil {
		s.logger.Warn("process exited", "id", p.id, "name", p.name, "error", err, "ran", ran)
		p.logger.Write("exit", []byte(fmt.Sprintf("%s: %v\n", p.name, err)))
	} else {
		s.logger.Info("process exited", "id", p.id, "name", p.name, "ran", ran)
		p.logger.Write("exit", []byte(p.name+": exited\n"))
	}

	s.mu.Lock()
	if e, ok := s.entries[p.id]; ok && e.proc == p {
		e.proc = nil
	}
	s.mu.Unlock()

	s.observer.ProcessExited(p, err)

	p.err = err
	close(p.done)
}

// relayStream forwards every chunk read from r, in order, to the scoped
// logger, the IPC channel and the observer.
func (s *Supervisor) relayStream(p *Process, stream string, r io.Reader) {
	if r == nil {
		return
	}

	buf := make([]byte, outputBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			p.logger.Write(stream, chunk)
			s.logger.Debug("process output",
				"id", p.id,
				"name", p.name,
				"stream", stream,
				"output", string(chunk),
			)

			event := OutputEvent{ID: p.id, Name: p.name, Stream: stream, Chunk: chunk}
			if sendErr := s.channel.Send(OutputNamespace, event); sendErr != nil {
				s.logger.Warn("failed to send process output",
					"id", p.id,
					"stream", stream,
					"error", sendErr,
				)
			}

			s.observer.OutputRelayed(p, stream, n)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("output stream closed",
					"id", p.id,
					"stream", stream,
					"error", err,
				)
			}
			return
		}
	}
}

// Drain blocks until every relay started so far has finished, or ctx is
// done. Call it after Close to wait for terminated children to be reaped.
func (s *Supervisor) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.relays.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
