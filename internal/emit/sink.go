package emit

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
)

// ErrSink marks failures writing to the output destination.
var ErrSink = errors.New("output sink failure")

// sink records the first write error and ignores every write after it, so
// emitters can write unconditionally and check once.
type sink struct {
	w   io.Writer
	n   int64
	err error
}

func (s *sink) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	n, err := fmt.Fprintf(s.w, format, args...)
	s.n += int64(n)
	if err != nil {
		s.err = errors.Mark(errors.Wrap(err, "write generated text"), ErrSink)
	}
}

// Write makes a sink usable wherever an io.Writer is expected. After the
// first failure it reports that error without writing.
func (s *sink) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.Write(p)
	s.n += int64(n)
	if err != nil {
		s.err = errors.Mark(errors.Wrap(err, "write generated text"), ErrSink)
	}
	return n, s.err
}
