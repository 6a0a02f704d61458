package codec

import (
	"encoding/binary"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/rotisserie/eris"
)

var (
	ErrUnknownCompression = eris.New("unknown compression")
	ErrCorruptBlock       = eris.New("corrupt compressed block")
	ErrBlockTooLarge      = eris.New("block exceeds maximum size")
)

// MaxBlockSize bounds the uncompressed size of a block, on both sides of the codec.
const MaxBlockSize = 1 << 30

type Compression uint8

const (
	None Compression = iota
	Zstd
	LZ4
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	}
	return "unknown"
}

func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "zstd":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	}
	return None, eris.Wrapf(ErrUnknownCompression, "%q", s)
}

// Block layout: [algorithm u8][uncompressed size u32][payload]. A block that does not
// shrink is stored with algorithm None.
const blockHeaderSize = 5

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Compress wraps data in a self-describing block.
func Compress(data []byte, c Compression) ([]byte, error) {
	if len(data) > MaxBlockSize {
		return nil, eris.Wrapf(ErrBlockTooLarge, "%d bytes", len(data))
	}
	var payload []byte
	switch c {
	case None:
	case Zstd:
		enc := getZstdEncoder()
		payload = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, eris.Wrap(err, "")
		}
		payload = buf[:n]
	default:
		return nil, eris.Wrapf(ErrUnknownCompression, "compression %d", c)
	}
	if c == None || len(payload) == 0 || len(payload) >= len(data) {
		c, payload = None, data
	}

	out := make([]byte, blockHeaderSize, blockHeaderSize+len(payload))
	out[0] = byte(c)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))
	return append(out, payload...), nil
}

// Decompress reverses Compress whatever algorithm the block was written with.
func Decompress(block []byte) ([]byte, error) {
	if len(block) < blockHeaderSize {
		return nil, eris.Wrap(ErrCorruptBlock, "block too small for header")
	}
	c := Compression(block[0])
	size := binary.LittleEndian.Uint32(block[1:])
	payload := block[blockHeaderSize:]
	if size > MaxBlockSize {
		return nil, eris.Wrapf(ErrCorruptBlock, "header claims %d bytes", size)
	}

	switch c {
	case None:
		if uint32(len(payload)) != size {
			return nil, eris.Wrapf(ErrCorruptBlock, "want %d bytes, got %d", size, len(payload))
		}
		return payload, nil
	case Zstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, eris.Wrap(err, "")
		}
		if uint32(len(out)) != size {
			return nil, eris.Wrapf(ErrCorruptBlock, "want %d bytes, got %d", size, len(out))
		}
		return out, nil
	case LZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, eris.Wrap(err, "")
		}
		if uint32(n) != size {
			return nil, eris.Wrapf(ErrCorruptBlock, "want %d bytes, got %d", size, n)
		}
		return out, nil
	}
	return nil, eris.Wrapf(ErrUnknownCompression, "compression %d", c)
}
