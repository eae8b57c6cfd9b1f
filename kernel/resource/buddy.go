package resource

import (
	"math/bits"
	"unsafe"

	"strata/kernel"
	"strata/kernel/region"
)

const buddyModule = "buddy"

var (
	// ErrBuddyInvalidBounds covers every construction-time parameter
	// violation spec.md §4.7 lists: non-power-of-two bounds, min > max,
	// min too small to hold a header, or too many levels.
	ErrBuddyInvalidBounds = kernel.New(buddyModule, "invalid buddy resource bounds", kernel.KindInvalidArgument)
	// ErrBuddyTooLarge is returned when a request exceeds the buddy's
	// max block size.
	ErrBuddyTooLarge = kernel.New(buddyModule, "request exceeds max block size", kernel.KindBadAlloc)
	// ErrBuddyUpstreamExhausted is returned when a top-level block
	// could not be obtained from (or was misaligned by) the upstream.
	ErrBuddyUpstreamExhausted = kernel.New(buddyModule, "upstream exhausted or returned misaligned memory", kernel.KindBadAlloc)
)

// blockHeader is the per-block bookkeeping record spec.md §3/§4.7
// describe. It is never referenced through a typed Go pointer that the
// garbage collector would try to follow across block boundaries — addr
// is reinterpreted via unsafe.Pointer on demand instead, the same way
// the teacher's BitmapAllocator reinterprets raw allocator memory
// through hand-built reflect.SliceHeader values rather than ordinary
// typed slices.
type blockHeader struct {
	flags uintptr
	prev  uintptr
	next  uintptr
}

var headerSize = unsafe.Sizeof(blockHeader{})

const freeBit = 1 << (bits.UintSize - 1)

// Buddy implements the power-of-two block allocator described in
// spec.md §4.7, backed by an upstream Resource it only ever requests
// whole max_block-sized chunks from.
type Buddy struct {
	minMsb, maxMsb int
	maxLevel       int
	levels         int
	freeLists      []uintptr // head block address per level; 0 means empty
	upstream       Resource
	topAlignment   uintptr
	headerPadding  uintptr
	maxAlign       uintptr
}

// NewBuddy validates (minBlock, maxBlock, topLevelAlignment) and
// constructs an empty Buddy over upstream, per spec.md §4.7's
// construction-time validation rules.
func NewBuddy(minBlock, maxBlock, topLevelAlignment, maxAlign uintptr, upstream Resource) (*Buddy, error) {
	if !region.IsPowerOfTwo(minBlock) || !region.IsPowerOfTwo(maxBlock) || minBlock > maxBlock {
		return nil, ErrBuddyInvalidBounds
	}

	padding, overflow := region.AlignUp(headerSize, maxAlign)
	if overflow {
		return nil, ErrBuddyInvalidBounds
	}
	headerPadding := padding - headerSize
	headerFootprint := headerSize + headerPadding

	if minBlock < headerFootprint {
		return nil, ErrBuddyInvalidBounds
	}

	minMsb := region.Msb(minBlock)
	maxMsb := region.Msb(maxBlock)
	maxLevel := maxMsb - minMsb
	levels := maxLevel + 1
	if levels > bits.UintSize-1 {
		return nil, ErrBuddyInvalidBounds
	}

	return &Buddy{
		minMsb:        minMsb,
		maxMsb:        maxMsb,
		maxLevel:      maxLevel,
		levels:        levels,
		freeLists:     make([]uintptr, levels),
		upstream:      upstream,
		topAlignment:  topLevelAlignment,
		headerPadding: headerPadding,
		maxAlign:      maxAlign,
	}, nil
}

func (b *Buddy) levelSize(level int) uintptr {
	return uintptr(1) << uint(b.minMsb+level)
}

// levelFor returns the smallest level whose block can hold bytes worth
// of payload behind a header, per spec.md §4.7's allocate algorithm.
func (b *Buddy) levelFor(bytes uintptr) (int, error) {
	required, overflow := region.AddOverflows(bytes, b.headerPadding+headerSize)
	if overflow {
		return 0, ErrBuddyTooLarge
	}
	log2 := region.CeilLog2(required)
	level := log2 - b.minMsb
	if level < 0 {
		level = 0
	}
	if level > b.maxLevel {
		return 0, ErrBuddyTooLarge
	}
	return level, nil
}

// Allocate implements spec.md §4.7's allocate operation. The level is
// derived from req.Size alone and the payload is aligned to maxAlign;
// req.Alignment is not consulted, so a larger alignment is not
// guaranteed.
func (b *Buddy) Allocate(req region.Request) (uintptr, error) {
	level, err := b.levelFor(req.Size)
	if err != nil {
		return 0, err
	}
	blockAddr, err := b.allocateBlock(level)
	if err != nil {
		return 0, err
	}
	return blockAddr + headerSize + b.headerPadding, nil
}

// Deallocate implements spec.md §4.7's deallocate operation: it derives
// the level identically to Allocate and reconstructs the block header
// address from the payload pointer.
func (b *Buddy) Deallocate(ptr uintptr, req region.Request) {
	level, err := b.levelFor(req.Size)
	if err != nil {
		return
	}
	blockAddr := ptr - headerSize - b.headerPadding
	b.deallocateBlock(blockAddr, level)
}

// IsEqual reports pointer identity, per spec.md §9.
func (b *Buddy) IsEqual(other Resource) bool {
	o, ok := other.(*Buddy)
	return ok && o == b
}

func headerAt(addr uintptr) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(addr))
}

func (b *Buddy) popFree(level int) uintptr {
	head := b.freeLists[level]
	if head == 0 {
		return 0
	}
	h := headerAt(head)
	next := h.next
	if next != 0 {
		headerAt(next).prev = 0
	}
	b.freeLists[level] = next
	h.next, h.prev = 0, 0
	return head
}

func (b *Buddy) pushFree(level int, addr uintptr) {
	h := headerAt(addr)
	h.prev = 0
	h.next = b.freeLists[level]
	if h.next != 0 {
		headerAt(h.next).prev = addr
	}
	b.freeLists[level] = addr
}

func (b *Buddy) unlinkFree(level int, addr uintptr) {
	h := headerAt(addr)
	if h.prev != 0 {
		headerAt(h.prev).next = h.next
	} else {
		b.freeLists[level] = h.next
	}
	if h.next != 0 {
		headerAt(h.next).prev = h.prev
	}
	h.prev, h.next = 0, 0
}

// allocateBlock implements spec.md §4.7's allocate_block(L).
func (b *Buddy) allocateBlock(level int) (uintptr, error) {
	if head := b.freeLists[level]; head != 0 {
		addr := b.popFree(level)
		headerAt(addr).flags &^= freeBit
		return addr, nil
	}

	if level < b.maxLevel {
		parent, err := b.allocateBlock(level + 1)
		if err != nil {
			return 0, err
		}
		half := b.levelSize(level)
		lower := parent
		upper := parent + half

		// lower reuses the parent's header address, so its inherited
		// bits must be read out before being overwritten. Bits above
		// level carry forward unchanged; bit `level` itself records
		// which half of the level+1 parent each child is, per
		// spec.md §3 ("bits 0..level = which half of parent at each
		// level up the chain").
		parentBits := headerAt(parent).flags &^ freeBit

		lh := headerAt(lower)
		lh.flags = parentBits | (uintptr(1) << uint(level)) | freeBit
		lh.prev, lh.next = 0, 0
		b.pushFree(level, lower)

		uh := headerAt(upper)
		uh.flags = parentBits &^ (uintptr(1) << uint(level))
		uh.prev, uh.next = 0, 0
		return upper, nil
	}

	// level == maxLevel: request a fresh top-level block from upstream.
	addr, err := b.upstream.Allocate(region.Request{Size: b.levelSize(b.maxLevel), Alignment: b.topAlignment})
	if err != nil {
		return 0, ErrBuddyUpstreamExhausted
	}
	if addr%b.topAlignment != 0 {
		b.upstream.Deallocate(addr, region.Request{Size: b.levelSize(b.maxLevel), Alignment: b.topAlignment})
		return 0, ErrBuddyUpstreamExhausted
	}
	h := headerAt(addr)
	h.flags, h.prev, h.next = 0, 0, 0
	return addr, nil
}

// buddyOf returns the address of the other half of the level-(L+1)
// parent containing the block at addr currently sitting at level L.
func (b *Buddy) buddyOf(addr uintptr, level int) uintptr {
	half := b.levelSize(level)
	if headerAt(addr).flags&(uintptr(1)<<uint(level)) != 0 {
		return addr + half
	}
	return addr - half
}

// deallocateBlock implements spec.md §4.7's deallocate_block(block, L).
func (b *Buddy) deallocateBlock(addr uintptr, level int) {
	for {
		if level == b.maxLevel {
			headerAt(addr).flags |= freeBit
			b.pushFree(level, addr)
			return
		}

		// The buddy's header address is shared with its lowest sub-block,
		// which can be free on a lower level's list while the rest of the
		// buddy is split and in use. So the buddy only combines when it
		// is on this level's free list, not merely when its free bit is set.
		buddy := b.buddyOf(addr, level)
		buddyFree := false
		if headerAt(buddy).flags&freeBit != 0 {
			for p := b.freeLists[level]; p != 0; p = headerAt(p).next {
				if p == buddy {
					buddyFree = true
					break
				}
			}
		}
		if !buddyFree {
			headerAt(addr).flags |= freeBit
			b.pushFree(level, addr)
			return
		}

		b.unlinkFree(level, buddy)
		if buddy < addr {
			addr = buddy
		}
		level++
	}
}

// Close drains every max-level free block back to the upstream, per
// spec.md §4.7's destruction contract ("drain all free lists; return
// all max_level blocks to the upstream"). Sub-top-level memory is never
// returned while the Buddy is alive, and Close does not attempt to
// coalesce it first: only blocks that already made it to the top-level
// free list are released.
func (b *Buddy) Close() {
	for {
		addr := b.popFree(b.maxLevel)
		if addr == 0 {
			break
		}
		b.upstream.Deallocate(addr, region.Request{Size: b.levelSize(b.maxLevel), Alignment: b.topAlignment})
	}
}
