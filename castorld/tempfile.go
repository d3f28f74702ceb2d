// Package castorld builds a store.Store file from a stream of RDF triples:
// external-memory string/value interning, sorting into the six triple
// orders, and B+-tree leaf packing (spec.md §2 "castorld", §9). It is
// grounded on _examples/original_source/tools/castorld/*, adapted from its
// buffered-temp-file design (tempfile.h/cpp) into Go's bufio/os.CreateTemp.
package castorld

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// tempFile is a disposable, sequentially-written-then-read scratch file
// for varint-encoded records, the Go counterpart of tempfile.h's TempFile.
type tempFile struct {
	f *os.File
	w *bufio.Writer
	r *bufio.Reader
}

func newTempFile(dir, pattern string) (*tempFile, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, errors.Wrap(err, "castorld: create scratch file")
	}
	return &tempFile{f: f, w: bufio.NewWriterSize(f, 64*1024)}, nil
}

func (t *tempFile) writeVarInt(v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, err := t.w.Write(buf[:n])
	return err
}

func (t *tempFile) writeBytes(b []byte) error {
	if err := t.writeVarInt(uint64(len(b))); err != nil {
		return err
	}
	_, err := t.w.Write(b)
	return err
}

// rewind flushes pending writes and repositions the file for sequential
// reading from the start (tempfile.h's pattern of writing once, then
// reading the whole file back in a later pass).
func (t *tempFile) rewind() error {
	if err := t.w.Flush(); err != nil {
		return errors.Wrap(err, "castorld: flush scratch file")
	}
	if _, err := t.f.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "castorld: seek scratch file")
	}
	t.r = bufio.NewReaderSize(t.f, 64*1024)
	return nil
}

func (t *tempFile) readVarInt() (uint64, error) {
	return binary.ReadUvarint(t.r)
}

func (t *tempFile) readBytes() ([]byte, error) {
	n, err := t.readVarInt()
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(t.r, b); err != nil {
		return nil, errors.Wrap(err, "castorld: read scratch record")
	}
	return b, nil
}

// discard closes and removes the backing file (tempfile.h's discard()).
func (t *tempFile) discard() error {
	name := t.f.Name()
	t.f.Close()
	return os.Remove(name)
}
