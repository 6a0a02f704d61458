package entity

import (
	"fmt"
	"math"
)

const (
	indexBits      = 46
	generationBits = 16

	generationOffset = indexBits
	flagOffset       = indexBits + generationBits

	// MaxIndex is the largest index an EntityID can address.
	MaxIndex uint64 = 1<<indexBits - 1
	// MaxGeneration is the largest value the generation field can hold. It is only ever
	// carried by Dead.
	MaxGeneration uint16 = math.MaxUint16
	// DeadGeneration marks a slot whose generation is exhausted. The slot is never reused.
	DeadGeneration = MaxGeneration - 1

	indexMask      uint64 = MaxIndex
	generationMask uint64 = (1<<generationBits - 1) << generationOffset

	insertedFlag uint64 = 1 << flagOffset
	modifiedFlag uint64 = 1 << (flagOffset + 1)
	flagMask            = insertedFlag | modifiedFlag

	// nilIndex terminates the free list. No live slot can hold it since it's also the
	// index of Dead.
	nilIndex = MaxIndex
)

// EntityID is a packed (index, generation) handle. The two high bits are only ever set on
// identifiers stored inside a component store's dense array, where they record whether the
// slot was inserted or modified during the current window.
type EntityID uint64

// Dead is the canonical null identifier.
const Dead EntityID = math.MaxUint64

// New returns the first generation identifier for index.
func New(index uint64) EntityID {
	return NewWithGeneration(index, 0)
}

// NewWithGeneration packs index and generation. It panics if index does not fit in the
// index field.
func NewWithGeneration(index uint64, generation uint16) EntityID {
	if index > MaxIndex {
		panic(fmt.Sprintf("entity index %d exceeds maximum %d", index, MaxIndex))
	}
	return EntityID(index | uint64(generation)<<generationOffset)
}

// Index returns the slot this identifier was issued for.
func (id EntityID) Index() uint64 {
	return uint64(id) & indexMask
}

// Generation returns the reuse counter of the identifier.
func (id EntityID) Generation() uint16 {
	return uint16((uint64(id) & generationMask) >> generationOffset)
}

// IsDead reports whether id is Dead or carries the exhausted generation.
func (id EntityID) IsDead() bool {
	return id.Generation() >= DeadGeneration
}

// BumpGeneration returns id with its generation incremented. Once the generation reaches
// DeadGeneration the returned identifier is dead forever and ErrGenerationExhausted is
// returned alongside it.
func (id EntityID) BumpGeneration() (EntityID, error) {
	gen := id.Generation()
	if gen >= DeadGeneration {
		return id.withGeneration(DeadGeneration), ErrGenerationExhausted
	}
	gen++
	bumped := id.withGeneration(gen)
	if gen == DeadGeneration {
		return bumped, ErrGenerationExhausted
	}
	return bumped, nil
}

// WithoutFlags strips the dense-slot flag bits.
func (id EntityID) WithoutFlags() EntityID {
	return id &^ EntityID(flagMask)
}

// IsInserted reports the inserted flag. Only meaningful on identifiers read from a dense
// array.
func (id EntityID) IsInserted() bool {
	return uint64(id)&insertedFlag != 0
}

// IsModified reports the modified flag. Only meaningful on identifiers read from a dense
// array.
func (id EntityID) IsModified() bool {
	return uint64(id)&modifiedFlag != 0
}

// WithInserted returns id flagged as inserted and not modified.
func (id EntityID) WithInserted() EntityID {
	return EntityID((uint64(id) &^ flagMask) | insertedFlag)
}

// WithModified returns id flagged as modified and not inserted.
func (id EntityID) WithModified() EntityID {
	return EntityID((uint64(id) &^ flagMask) | modifiedFlag)
}

// SameSlot reports whether id and other name the same index and generation, ignoring flags.
func (id EntityID) SameSlot(other EntityID) bool {
	return id.WithoutFlags() == other.WithoutFlags()
}

func (id EntityID) String() string {
	if id.WithoutFlags() == Dead.WithoutFlags() {
		return "EntityID(dead)"
	}
	return fmt.Sprintf("EntityID(%d:%d)", id.Index(), id.Generation())
}

func (id EntityID) withGeneration(gen uint16) EntityID {
	return EntityID((uint64(id) &^ generationMask) | uint64(gen)<<generationOffset)
}

// setIndex rewrites the index field. Only used to thread the free list through free slots.
func (id EntityID) setIndex(index uint64) EntityID {
	return EntityID((uint64(id) &^ indexMask) | (index & indexMask))
}
