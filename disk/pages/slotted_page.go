package pages

import (
	"bytes"
	"encoding/binary"
	"errors"
	"diskdb/common"
	"diskdb/disk"
	"unsafe"
)

type TupleSizeType uint32

/**
 * Slotted page format:
 *  ---------------------------------------------------------
 *  | HEADER | ... FREE SPACE ... | ... INSERTED TUPLES ... |
 *  ---------------------------------------------------------
 *                                ^
 *                                free space pointer
 *
 *  Header format (size in bytes):
 *  ----------------------------------------------------------------------------
 *  | PrevPageId (8) | NextPageId (8) | FreeSpacePointer (4) | SlotArrLen (2) |
 *  ----------------------------------------------------------------------------
 *  ----------------------------------------------------------------
 *  | Tuple_1 offset (4) | Tuple_1 size (4) | ... |
 *  ----------------------------------------------------------------
 *
 */

type ISlottedPage interface {
	getSlotArr() []SLotArrEntry
	getFromSlotArr(idx int) SLotArrEntry
	setInSlotArr(idx int, val SLotArrEntry)
	appendSlotArr(val SLotArrEntry)
	GetHeader() SlottedPageHeader
	SetHeader(h SlottedPageHeader)

	// vacuum push all content of the page to the rightmost to eliminate fragmentation
	vacuum()

	InsertTuple(data []byte) (int, error)
	GetFreeSpace() int

	// DeleteTuple deletes the tuple which is pointed by the value in the slot array at idxAtSlot
	DeleteTuple(idxAtSlot int)

	GetTuple(idxAtSlot int) []byte
}

type SlottedPageHeader struct {
	PrevPageID       int64
	NextPageID       int64
	FreeSpacePointer uint32
	SLotArrLen       uint16
}

type SLotArrEntry struct {
	Offset uint32
	Size   uint32
}

const (
	// DELETE_MASK first bit of the TupleSizeType holds tuple's deleted status and, it can be accessed by applying DELETE_MASK
	// to a TupleSizeType instance
	DELETE_MASK = 1 << (unsafe.Sizeof(TupleSizeType(1))*8 - 1)

	LOW_BYTES  = (1 << 32) - 1
	HIGH_BYTES = LOW_BYTES << 32

	SLOT_ARRAY_ENTRY_SIZE = 8
)

var HEADER_SIZE = binary.Size(SlottedPageHeader{})

type SlottedPage struct {
	RawPage
}

// InitSlottedPage formats a raw page's content as an empty slotted page.
func InitSlottedPage(p *RawPage) *SlottedPage {
	p.SetType(TypeSlottedPage)
	sp := &SlottedPage{RawPage: *p}
	sp.SetHeader(SlottedPageHeader{
		PrevPageID:       0,
		NextPageID:       0,
		FreeSpacePointer: uint32(disk.PageSize),
		SLotArrLen:       0,
	})
	return sp
}

// FormatAsSlottedPage is an alias of InitSlottedPage for call sites that read as "format this freshly
// allocated page as a slotted page" rather than "initialize a page I already own".
func FormatAsSlottedPage(p *RawPage) *SlottedPage {
	return InitSlottedPage(p)
}

// SlottedPageInstanceFromRawPage casts a raw page that is already formatted as a slotted page, without
// touching its header, unlike InitSlottedPage.
func SlottedPageInstanceFromRawPage(p *RawPage) *SlottedPage {
	return &SlottedPage{RawPage: *p}
}

// CastSlottedPage is an alias of SlottedPageInstanceFromRawPage for call sites written against
// the cast-style naming used elsewhere in the page layer (e.g. CastCopyAtPage).
func CastSlottedPage(p *RawPage) *SlottedPage {
	return SlottedPageInstanceFromRawPage(p)
}

func (sp *SlottedPage) vacuum() {
	panic("implement me")
}

func (sp *SlottedPage) GetTuple(idxAtSlot int) []byte {
	entry := sp.getFromSlotArr(idxAtSlot)
	if entry.Size == 0 {
		return nil
	}

	return sp.GetData()[entry.Offset : entry.Offset+entry.Size]
}

func (sp *SlottedPage) GetFreeSpace() int {
	h := sp.GetHeader()
	startingOffset := HEADER_SIZE + int(h.SLotArrLen)*SLOT_ARRAY_ENTRY_SIZE
	return int(h.FreeSpacePointer) - startingOffset
}

// EmptySpace is an alias of GetFreeSpace for call sites written against the btree node's BPage naming.
func (sp *SlottedPage) EmptySpace() int {
	return sp.GetFreeSpace()
}

// Cap returns the total capacity of the page available for tuple storage, ignoring what is currently used.
func (sp *SlottedPage) Cap() int {
	return disk.PageSize - HEADER_SIZE
}

// Count returns the number of slots in the slot array, including slots holding deleted tuples.
func (sp *SlottedPage) Count() uint16 {
	return sp.GetHeader().SLotArrLen
}

func (sp *SlottedPage) getSlotArr() []SLotArrEntry {
	header := sp.GetHeader()
	return readSLotArrEntrySliceFromBytes(int(header.SLotArrLen), sp.GetData()[HEADER_SIZE:])
}

func (sp *SlottedPage) getFromSlotArr(idx int) SLotArrEntry {
	// TODO: more performant impl.
	arr := sp.getSlotArr()
	return arr[idx]
}

func (sp *SlottedPage) setInSlotArr(idx int, val SLotArrEntry) {
	offset := int(HEADER_SIZE) + SLOT_ARRAY_ENTRY_SIZE*idx
	buf := bytes.Buffer{}

	// NOTE: this error is actually the error returned by bytes.Buffer.Write call which always returns nil hence no need to check
	err := binary.Write(&buf, binary.BigEndian, &val)
	common.PanicIfErr(err)

	if offset >= disk.PageSize {
		panic("page overflow error")
	}

	copy(sp.GetData()[offset:], buf.Bytes())
}

func (sp *SlottedPage) appendSlotArr(val SLotArrEntry) {
	h := sp.GetHeader()
	h.SLotArrLen++
	defer sp.SetHeader(h)

	sp.setInSlotArr(int(h.SLotArrLen)-1, val)
}

func (sp *SlottedPage) GetHeader() SlottedPageHeader {
	reader := bytes.NewReader(sp.GetData())
	dest := SlottedPageHeader{}
	binary.Read(reader, binary.BigEndian, &dest)
	return dest
}

func (sp *SlottedPage) SetHeader(h SlottedPageHeader) {
	buf := bytes.Buffer{}

	// NOTE: this error is actually the error returned by bytes.Buffer.Write call which always returns nil hence no need to check
	err := binary.Write(&buf, binary.BigEndian, &h)
	common.PanicIfErr(err)

	copy(sp.GetData(), buf.Bytes())
}

func (sp *SlottedPage) InsertTuple(data []byte) (int, error) {
	/*
		first check if there is enough space in the page, if not return error
		second iterate slot arr to see if there is an empty slot, meaning a slot with size 0
	*/
	//sp.WLatch()
	//defer sp.WUnlatch()
	if sp.GetFreeSpace() < len(data)+SLOT_ARRAY_ENTRY_SIZE {
		return 0, errors.New("not enough space in slotted page")
	}

	arr := sp.getSlotArr()
	i := 0
	for ; i < len(arr); i++ {
		if arr[i].Size == 0 {
			break
		}
	}

	// if an empty slot is found, copy data and set free space pointer to the starting point of new data
	h := sp.GetHeader()
	h.FreeSpacePointer -= uint32(len(data))
	if i == len(arr) {
		h.SLotArrLen++
	}
	copy(sp.GetData()[h.FreeSpacePointer:], data)
	sp.SetHeader(h)
	sp.setInSlotArr(i, SLotArrEntry{
		Offset: h.FreeSpacePointer,
		Size:   uint32(len(data)),
	})
	return i, nil
}

// UpdateTuple overwrites the tuple at idxAtSlot in place. Returns an error if the new payload no longer
// fits in the space the existing tuple occupies; callers fall back to a delete-then-insert in that case.
func (sp *SlottedPage) UpdateTuple(idxAtSlot int, data []byte) error {
	entry := sp.getFromSlotArr(idxAtSlot)
	if entry.Size == 0 {
		return errors.New("tuple does not exist at given slot")
	}

	if uint32(len(data)) > entry.Size {
		return errors.New("new tuple does not fit in the space of the old one")
	}

	copy(sp.GetData()[entry.Offset:], data)
	sp.setInSlotArr(idxAtSlot, SLotArrEntry{Offset: entry.Offset, Size: uint32(len(data))})
	return nil
}

func (sp *SlottedPage) DeleteTuple(idxAtSlot int) {
	sp.setInSlotArr(idxAtSlot, SLotArrEntry{
		Offset: 0,
		Size:   0,
	})
	sp.vacuum()
}

// HardDelete removes the tuple at idxAtSlot, returning an error if no tuple lives there.
func (sp *SlottedPage) HardDelete(idxAtSlot int) error {
	arr := sp.getSlotArr()
	if idxAtSlot < 0 || idxAtSlot >= len(arr) || arr[idxAtSlot].Size == 0 {
		return errors.New("tuple does not exist at given slot")
	}

	sp.setInSlotArr(idxAtSlot, SLotArrEntry{Offset: 0, Size: 0})
	return nil
}

// GetNextIdx returns the index of the first live slot strictly after after. It returns an error when the
// page has no more live tuples, signalling the caller to continue on the next page in the heap.
func (sp *SlottedPage) GetNextIdx(after int) (int, error) {
	arr := sp.getSlotArr()
	for i := after + 1; i < len(arr); i++ {
		if arr[i].Size != 0 {
			return i, nil
		}
	}

	return 0, errors.New("no more tuples in this page")
}

func readSLotArrEntrySliceFromBytes(count int, data []byte) []SLotArrEntry {
	reader := bytes.NewReader(data)
	res := make([]SLotArrEntry, 0)
	for i := 0; i < int(count); i++ {
		x := SLotArrEntry{}
		err := binary.Read(reader, binary.BigEndian, &x) // TODO: look at possible errors
		common.PanicIfErr(err)
		res = append(res, x)
	}
	return res
}
