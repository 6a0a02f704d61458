package codec

import (
	"encoding/binary"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/sparse/entity"
)

var (
	ErrMalformedID     = eris.New("malformed entity id")
	ErrUnknownIDFormat = eris.New("unknown id format")
)

// IDFormat selects how identifiers are persisted. Both formats round-trip the
// (index, generation) pair; pack flags are never written.
type IDFormat uint8

const (
	// Readable writes a JSON array of {"index", "generation"} objects.
	Readable IDFormat = iota
	// Compact writes the flag-free packed value of every identifier as a uvarint.
	Compact
)

func (f IDFormat) String() string {
	switch f {
	case Readable:
		return "readable"
	case Compact:
		return "compact"
	}
	return "unknown"
}

func ParseIDFormat(s string) (IDFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "readable":
		return Readable, nil
	case "compact":
		return Compact, nil
	}
	return Readable, eris.Wrapf(ErrUnknownIDFormat, "%q", s)
}

// ID is the human readable form of an identifier.
type ID struct {
	Index      uint64 `json:"index"`
	Generation uint16 `json:"generation"`
}

func FromEntity(id entity.EntityID) ID {
	id = id.WithoutFlags()
	return ID{Index: id.Index(), Generation: id.Generation()}
}

func (i ID) Entity() (entity.EntityID, error) {
	if i.Index > entity.MaxIndex {
		return entity.Dead, eris.Wrapf(ErrMalformedID, "index %d out of range", i.Index)
	}
	return entity.NewWithGeneration(i.Index, i.Generation), nil
}

func EncodeIDs(ids []entity.EntityID, format IDFormat) ([]byte, error) {
	switch format {
	case Readable:
		out := make([]ID, len(ids))
		for i, id := range ids {
			out[i] = FromEntity(id)
		}
		return Encode(out)
	case Compact:
		bz := make([]byte, 0, len(ids)*4)
		for _, id := range ids {
			bz = binary.AppendUvarint(bz, uint64(id.WithoutFlags()))
		}
		return bz, nil
	}
	return nil, eris.Wrapf(ErrUnknownIDFormat, "format %d", format)
}

func DecodeIDs(bz []byte, format IDFormat) ([]entity.EntityID, error) {
	switch format {
	case Readable:
		var raw []ID
		if err := json.Unmarshal(bz, &raw); err != nil {
			return nil, eris.Wrap(err, "")
		}
		ids := make([]entity.EntityID, len(raw))
		for i, r := range raw {
			id, err := r.Entity()
			if err != nil {
				return nil, err
			}
			ids[i] = id
		}
		return ids, nil
	case Compact:
		var ids []entity.EntityID
		for len(bz) > 0 {
			v, n := binary.Uvarint(bz)
			if n <= 0 {
				return nil, eris.Wrapf(ErrMalformedID, "bad varint at entry %d", len(ids))
			}
			id := entity.EntityID(v)
			if id.WithoutFlags() != id {
				return nil, eris.Wrapf(ErrMalformedID, "entry %d carries flag bits", len(ids))
			}
			ids = append(ids, id)
			bz = bz[n:]
		}
		return ids, nil
	}
	return nil, eris.Wrapf(ErrUnknownIDFormat, "format %d", format)
}
