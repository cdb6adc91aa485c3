package common

import (
	"encoding/binary"
	"fmt"
	"io"
)

func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

// Assert panics with a formatted message when cond is false.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// Clone returns a shallow copy of s backed by a fresh array.
func Clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	cp := make([]T, len(s))
	copy(cp, s)
	return cp
}

// ZeroBytes overwrites b with zero bytes in place.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Reverse returns a new slice holding s's elements in reverse order.
func Reverse[T any](s []T) []T {
	res := make([]T, len(s))
	for i, v := range s {
		res[len(s)-1-i] = v
	}
	return res
}

// OneOf reports whether v equals any of opts.
func OneOf[T comparable](v T, opts ...T) bool {
	for _, o := range opts {
		if v == o {
			return true
		}
	}
	return false
}

// Ternary returns a if cond is true, b otherwise.
func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}

// StatReader wraps an io.Reader, tracking the total number of bytes read through it.
type StatReader struct {
	r         io.Reader
	TotalRead int
}

func NewStatReader(r io.Reader) *StatReader {
	return &StatReader{r: r}
}

func (s *StatReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.TotalRead += n
	return n, err
}

// Uint64AsBytes encodes v as big-endian bytes.
func Uint64AsBytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Contains tells whether arr contains x.
func Contains(arr []int, x int) bool {
	for _, n := range arr {
		if x == n {
			return true
		}
	}
	return false
}
