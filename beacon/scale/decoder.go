package scale

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/snowfork/go-substrate-rpc-client/v4/scale"
)

var (
	ErrTrailingBytes = errors.New("trailing bytes after payload")
	ErrLengthBound   = errors.New("sequence length exceeds remaining input")
)

// boundedDecoder checks every sequence length against the bytes left in the
// input before allocating, so hostile length prefixes cannot force large
// allocations.
type boundedDecoder struct {
	*scale.Decoder
	r *bytes.Reader
}

func newBoundedDecoder(data []byte) *boundedDecoder {
	r := bytes.NewReader(data)
	return &boundedDecoder{Decoder: scale.NewDecoder(r), r: r}
}

// length reads a compact length prefix of a sequence whose elements take at
// least minSize bytes each.
func (d *boundedDecoder) length(minSize int) (int, error) {
	n, err := d.DecodeUintCompact()
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() || n.Uint64() > uint64(d.r.Len()/minSize) {
		return 0, fmt.Errorf("%w: %s", ErrLengthBound, n.String())
	}
	return int(n.Uint64()), nil
}

func (d *boundedDecoder) bytes() ([]byte, error) {
	n, err := d.length(1)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *boundedDecoder) fixed(out []byte) error {
	_, err := io.ReadFull(d.r, out)
	return err
}

func (d *boundedDecoder) done() error {
	if d.r.Len() != 0 {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, d.r.Len())
	}
	return nil
}
