package localstore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a blob payload is encoded. The value is the
// first byte of every blob file.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// headerSize is the tag byte plus the uncompressed length.
const headerSize = 1 + 8

// maxBlobSize bounds the uncompressed length a blob may have or claim.
const maxBlobSize = 1 << 30

// lz4MaxRatio bounds the expansion of an LZ4 block.
const lz4MaxRatio = 256

var errIncompressible = errors.New("data is incompressible")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("localstore: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxBlobSize))
	if err != nil {
		panic("localstore: zstd decoder initialization failed: " + err.Error())
	}
}

// encodeBlob compresses data with the preferred algorithm, falling back to
// none when compression would not shrink it.
func encodeBlob(data []byte, preferred Compression) ([]byte, Compression, error) {
	if len(data) > maxBlobSize {
		return nil, 0, fmt.Errorf("blob of %d bytes exceeds %d byte limit", len(data), maxBlobSize)
	}
	payload, used, err := compress(data, preferred)
	if errors.Is(err, errIncompressible) {
		payload, used, err = data, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	out := make([]byte, headerSize+len(payload))
	out[0] = byte(used)
	binary.BigEndian.PutUint64(out[1:headerSize], uint64(len(data)))
	copy(out[headerSize:], payload)
	return out, used, nil
}

func decodeBlob(blob []byte) ([]byte, error) {
	if len(blob) < headerSize {
		return nil, fmt.Errorf("blob truncated: %d bytes", len(blob))
	}
	tag := Compression(blob[0])
	size := binary.BigEndian.Uint64(blob[1:headerSize])
	payload := blob[headerSize:]
	if size > maxBlobSize {
		return nil, fmt.Errorf("blob header claims %d bytes, limit is %d", size, maxBlobSize)
	}
	switch tag {
	case CompressionNone:
		if uint64(len(payload)) != size {
			return nil, fmt.Errorf("uncompressed blob: size %d does not match expected %d", len(payload), size)
		}
		return payload, nil
	case CompressionLZ4:
		if size > uint64(len(payload))*lz4MaxRatio {
			return nil, fmt.Errorf("lz4 blob: %d payload bytes cannot expand to %d", len(payload), size)
		}
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if uint64(n) != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", n, size)
		}
		return out, nil
	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, min(size, uint64(len(payload))*4)))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if uint64(len(out)) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(out), size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported compression tag %s", tag)
	}
}

func compress(data []byte, c Compression) ([]byte, Compression, error) {
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		if len(data) == 0 {
			return nil, 0, errIncompressible
		}
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4 compress: %w", err)
		}
		if n == 0 || n >= len(data) {
			return nil, 0, errIncompressible
		}
		return dst[:n], CompressionLZ4, nil
	case CompressionZstd:
		out := zstdEncoder.EncodeAll(data, nil)
		if len(out) >= len(data) {
			return nil, 0, errIncompressible
		}
		return out, CompressionZstd, nil
	default:
		return nil, 0, fmt.Errorf("unsupported compression tag %s", c)
	}
}
