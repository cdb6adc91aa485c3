package btree

import (
	"bytes"
	"encoding/binary"
	"diskdb/common"
)

// PersistentKey is a fixed-width int64 key, serialized as-is.
type PersistentKey int64

func (p PersistentKey) Less(than common.Key) bool {
	return p < than.(PersistentKey)
}

// StringKey is a string key. StringKeySerializer pads/truncates it to Len bytes when Len is positive and
// stores it as-is (variable length) when Len is zero or negative.
type StringKey string

func (s StringKey) String() string {
	return string(s)
}

func (s StringKey) Less(than common.Key) bool {
	return s < than.(StringKey)
}

// SlotPointer identifies a tuple by the page it lives on and its slot within that page.
type SlotPointer struct {
	PageId  int64
	SlotIdx int16
}

const (
	SlotPointerSize = 10
)

type KeySerializer interface {
	Serialize(key common.Key) ([]byte, error)
	Deserialize([]byte) (common.Key, error)
	Size() int
}

type PersistentKeySerializer struct{}

func (p *PersistentKeySerializer) Serialize(key common.Key) ([]byte, error) {
	buf := bytes.Buffer{}
	if err := binary.Write(&buf, binary.BigEndian, key.(PersistentKey)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *PersistentKeySerializer) Deserialize(data []byte) (common.Key, error) {
	reader := bytes.NewReader(data)
	var key PersistentKey
	if err := binary.Read(reader, binary.BigEndian, &key); err != nil {
		return nil, err
	}
	return key, nil
}

func (p *PersistentKeySerializer) Size() int {
	return 8
}

type StringKeySerializer struct {
	Len int
}

func (s *StringKeySerializer) Serialize(key common.Key) ([]byte, error) {
	if s.Len <= 0 {
		return []byte(key.(StringKey)), nil
	}
	res := make([]byte, s.Len)
	copy(res, []byte(key.(StringKey)))
	return res, nil
}

func (s *StringKeySerializer) Deserialize(data []byte) (common.Key, error) {
	if s.Len <= 0 {
		return StringKey(data), nil
	}
	return StringKey(data[:s.Len]), nil
}

func (s *StringKeySerializer) Size() int {
	return s.Len
}

type ValueSerializer interface {
	Serialize(val interface{}) ([]byte, error)
	Deserialize([]byte) (interface{}, error)
	Size() int
}

type StringValueSerializer struct {
	Len int
}

func (s *StringValueSerializer) Serialize(val interface{}) ([]byte, error) {
	if s.Len <= 0 {
		return []byte(val.(string)), nil
	}
	res := make([]byte, s.Len)
	copy(res, []byte(val.(string)))
	return res, nil
}

func (s *StringValueSerializer) Deserialize(data []byte) (interface{}, error) {
	if s.Len <= 0 {
		return string(data), nil
	}
	return string(data[:s.Len]), nil
}

func (s *StringValueSerializer) Size() int {
	return s.Len
}

type SlotPointerValueSerializer struct{}

func (s *SlotPointerValueSerializer) Serialize(val interface{}) ([]byte, error) {
	buf := bytes.Buffer{}
	if err := binary.Write(&buf, binary.BigEndian, val); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *SlotPointerValueSerializer) Deserialize(data []byte) (interface{}, error) {
	reader := bytes.NewReader(data)
	var val SlotPointer
	err := binary.Read(reader, binary.BigEndian, &val)
	return val, err
}

func (s *SlotPointerValueSerializer) Size() int {
	return SlotPointerSize
}
