// Package replay implements the record/replay tooling of spec.md's
// testable scenario S6: capture every message observed on one bus
// subject to a file, then play the recording back with the original
// inter-message spacing preserved. Modeled on the teacher's
// cmd/tools/replay-server, minus its gRPC/.vrlog specifics: here the
// recording is newline-delimited JSON, since the subjects being
// recorded already carry JSON-codec envelopes end to end.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"time"
)

// Record is one captured message: the subject it arrived on (so a
// recording spanning several subjects can still be replayed onto the
// right ones), the wall-clock offset since the first message in the
// recording, and the raw payload bytes.
type Record struct {
	Subject    string          `json:"subject"`
	OffsetNs   int64           `json:"offset_ns"`
	Payload    json.RawMessage `json:"payload"`
}

// Writer appends Records to an underlying io.Writer as newline-delimited
// JSON, stamping each one's OffsetNs relative to the first Write call.
type Writer struct {
	enc   *json.Encoder
	start time.Time
	began bool
}

// NewWriter wraps w for recording.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Write records one message observed on subject at now.
func (rw *Writer) Write(subject string, payload []byte, now time.Time) error {
	if !rw.began {
		rw.start = now
		rw.began = true
	}
	return rw.enc.Encode(Record{
		Subject:  subject,
		OffsetNs: now.Sub(rw.start).Nanoseconds(),
		Payload:  json.RawMessage(payload),
	})
}

// Reader streams Records back out of an underlying io.Reader.
type Reader struct {
	dec *json.Decoder
}

// NewReader wraps r for playback.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: json.NewDecoder(bufio.NewReader(r))}
}

// Next returns the next Record, or io.EOF once the recording is
// exhausted.
func (rr *Reader) Next() (Record, error) {
	var rec Record
	if err := rr.dec.Decode(&rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Publisher is the narrow surface Play needs from a bus connection,
// letting tests substitute a fake without a live NATS server.
type Publisher interface {
	Publish(subject string, id string, payload []byte) error
}

// Play reads every Record from r and republishes it via pub, sleeping
// between messages to reproduce the original spacing scaled by speed
// (speed=1 is real-time, speed=0 disables the delay entirely so a test
// or audit pass can drain a recording instantly). Playback stops early
// if ctx is cancelled.
func Play(ctx context.Context, r *Reader, pub Publisher, speed float64) (int, error) {
	var lastOffset int64
	count := 0
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, err
		}

		if speed > 0 {
			delay := time.Duration(float64(rec.OffsetNs-lastOffset) / speed)
			if delay > 0 {
				select {
				case <-ctx.Done():
					return count, ctx.Err()
				case <-time.After(delay):
				}
			}
		}
		lastOffset = rec.OffsetNs

		id := rec.Subject + "|" + time.Duration(rec.OffsetNs).String()
		if err := pub.Publish(rec.Subject, id, rec.Payload); err != nil {
			return count, err
		}
		count++
	}
}
