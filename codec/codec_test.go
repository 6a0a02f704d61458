package codec_test

import (
	"bytes"
	"encoding/binary"
	"math/rand/v2"
	"testing"

	"pkg.world.dev/world-engine/sparse/assert"
	"pkg.world.dev/world-engine/sparse/codec"
	"pkg.world.dev/world-engine/sparse/entity"
)

type Health struct {
	Current int    `json:"current"`
	Max     int    `json:"max"`
	Label   string `json:"label"`
}

func TestValueCodec(t *testing.T) {
	bz, err := codec.Encode(Health{Current: 3, Max: 10, Label: "orc"})
	assert.NilError(t, err)
	assert.JSONEq(t, `{"current":3,"max":10,"label":"orc"}`, string(bz))

	got, err := codec.Decode[Health](bz)
	assert.NilError(t, err)
	assert.Equal(t, Health{Current: 3, Max: 10, Label: "orc"}, got)

	_, err = codec.Decode[Health]([]byte("{"))
	assert.Check(t, err != nil)
}

func sampleIDs() []entity.EntityID {
	return []entity.EntityID{
		entity.New(0),
		entity.NewWithGeneration(7, 3),
		entity.NewWithGeneration(entity.MaxIndex-1, entity.DeadGeneration-1),
		entity.NewWithGeneration(42, 1).WithInserted().WithModified(),
	}
}

func TestReadableIDs(t *testing.T) {
	bz, err := codec.EncodeIDs(sampleIDs()[:2], codec.Readable)
	assert.NilError(t, err)
	assert.JSONEq(t, `[{"index":0,"generation":0},{"index":7,"generation":3}]`, string(bz))

	for _, format := range []codec.IDFormat{codec.Readable, codec.Compact} {
		t.Run(format.String(), func(t *testing.T) {
			bz, err := codec.EncodeIDs(sampleIDs(), format)
			assert.NilError(t, err)
			got, err := codec.DecodeIDs(bz, format)
			assert.NilError(t, err)
			assert.Len(t, got, 4)
			for i, want := range sampleIDs() {
				assert.Equal(t, want.WithoutFlags(), got[i])
				assert.Equal(t, want.Index(), got[i].Index())
				assert.Equal(t, want.Generation(), got[i].Generation())
			}
		})
	}
}

func TestMalformedIDs(t *testing.T) {
	_, err := codec.DecodeIDs([]byte(`[{"index":70368744177664,"generation":0}]`), codec.Readable)
	assert.ErrorIs(t, err, codec.ErrMalformedID)

	_, err = codec.DecodeIDs([]byte{0xff}, codec.Compact)
	assert.ErrorIs(t, err, codec.ErrMalformedID)

	empty, err := codec.EncodeIDs(nil, codec.Compact)
	assert.NilError(t, err)
	assert.Equal(t, 0, len(empty))
	_, err = codec.EncodeIDs(nil, codec.IDFormat(9))
	assert.ErrorIs(t, err, codec.ErrUnknownIDFormat)
}

func TestCompressionRoundTrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("component "), 512)
	random := make([]byte, 2048)
	r := rand.New(rand.NewPCG(1, 2))
	for i := range random {
		random[i] = byte(r.Uint32())
	}

	for _, c := range []codec.Compression{codec.None, codec.Zstd, codec.LZ4} {
		for name, data := range map[string][]byte{"compressible": compressible, "random": random, "empty": {}} {
			t.Run(c.String()+"/"+name, func(t *testing.T) {
				block, err := codec.Compress(data, c)
				assert.NilError(t, err)
				if c != codec.None && name == "compressible" {
					assert.Check(t, len(block) < len(data))
				}
				got, err := codec.Decompress(block)
				assert.NilError(t, err)
				assert.Check(t, bytes.Equal(data, got))
			})
		}
	}
}

func TestCorruptBlocks(t *testing.T) {
	_, err := codec.Decompress([]byte{1, 2})
	assert.ErrorIs(t, err, codec.ErrCorruptBlock)

	block, err := codec.Compress([]byte("abc"), codec.None)
	assert.NilError(t, err)
	_, err = codec.Decompress(block[:len(block)-1])
	assert.ErrorIs(t, err, codec.ErrCorruptBlock)

	block[0] = 9
	_, err = codec.Decompress(block)
	assert.ErrorIs(t, err, codec.ErrUnknownCompression)

	_, err = codec.Compress([]byte("abc"), codec.Compression(9))
	assert.ErrorIs(t, err, codec.ErrUnknownCompression)

	for _, c := range []codec.Compression{codec.None, codec.Zstd, codec.LZ4} {
		huge := []byte{byte(c), 0, 0, 0, 0, 'x'}
		binary.LittleEndian.PutUint32(huge[1:], codec.MaxBlockSize+1)
		_, err = codec.Decompress(huge)
		assert.ErrorIs(t, err, codec.ErrCorruptBlock)
	}
}

func TestCompressRejectsOversizedInput(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates a block past MaxBlockSize")
	}
	_, err := codec.Compress(make([]byte, codec.MaxBlockSize+1), codec.None)
	assert.ErrorIs(t, err, codec.ErrBlockTooLarge)
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]codec.Compression{"": codec.None, "none": codec.None, "ZSTD": codec.Zstd, " lz4 ": codec.LZ4} {
		got, err := codec.ParseCompression(in)
		assert.NilError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := codec.ParseCompression("gzip")
	assert.ErrorIs(t, err, codec.ErrUnknownCompression)
}

func TestParseIDFormat(t *testing.T) {
	f, err := codec.ParseIDFormat("Compact")
	assert.NilError(t, err)
	assert.Equal(t, codec.Compact, f)
	f, err = codec.ParseIDFormat("readable")
	assert.NilError(t, err)
	assert.Equal(t, codec.Readable, f)
	_, err = codec.ParseIDFormat("binary")
	assert.ErrorIs(t, err, codec.ErrUnknownIDFormat)
}
