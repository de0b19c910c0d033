package sharded

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/sim"
	"github.com/kailas-cloud/simdex/internal/sim/dense"
	"github.com/kailas-cloud/simdex/internal/sim/sparse"
)

// Shard file layout: fixed 32-byte header followed by a zstd-compressed
// payload. All integers are little-endian. The checksum is CRC32C over the
// compressed payload.
//
// Dense payload:  rows*dim float32 (normalized rows).
// Sparse payload: (rows+1) uint32 row pointers, nnz int32 columns,
//                 nnz float32 values (normalized rows).
const (
	magicNumber   = 0x53494D53 // "SIMS"
	formatVersion = 1
	headerSize    = 32
)

// Shard storage kinds.
const (
	kindDense  = "dense"
	kindSparse = "sparse"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

type shardHeader struct {
	Kind     uint8
	Rows     uint32
	Dim      uint32
	NNZ      uint64
	Checksum uint32
}

func (h *shardHeader) encode() []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:], magicNumber)
	binary.LittleEndian.PutUint32(buf[4:], formatVersion)
	buf[8] = h.Kind
	// Padding [9:12]
	binary.LittleEndian.PutUint32(buf[12:], h.Rows)
	binary.LittleEndian.PutUint32(buf[16:], h.Dim)
	binary.LittleEndian.PutUint64(buf[20:], h.NNZ)
	binary.LittleEndian.PutUint32(buf[28:], h.Checksum)
	return buf
}

func decodeHeader(buf []byte) (shardHeader, error) {
	if len(buf) < headerSize {
		return shardHeader{}, fmt.Errorf("short header (%d bytes): %w", len(buf), domain.ErrShardCorrupted)
	}
	if magic := binary.LittleEndian.Uint32(buf[0:]); magic != magicNumber {
		return shardHeader{}, fmt.Errorf("invalid magic 0x%08x: %w", magic, domain.ErrShardCorrupted)
	}
	if v := binary.LittleEndian.Uint32(buf[4:]); v != formatVersion {
		return shardHeader{}, fmt.Errorf("unsupported shard format version %d: %w", v, domain.ErrShardCorrupted)
	}
	return shardHeader{
		Kind:     buf[8],
		Rows:     binary.LittleEndian.Uint32(buf[12:]),
		Dim:      binary.LittleEndian.Uint32(buf[16:]),
		NNZ:      binary.LittleEndian.Uint64(buf[20:]),
		Checksum: binary.LittleEndian.Uint32(buf[28:]),
	}, nil
}

const (
	kindCodeDense  = 0
	kindCodeSparse = 1
)

// writeShard persists a sealed shard atomically: the payload is written to a
// temp file in the same directory and renamed into place, so a failed write
// never leaves a partial shard behind.
func writeShard(path string, s sim.Searcher) error {
	var (
		payload []byte
		kind    uint8
		nnz     uint64
	)

	switch idx := s.(type) {
	case *dense.Index:
		kind = kindCodeDense
		payload = encodeFloats(idx.Raw())
	case *sparse.Index:
		kind = kindCodeSparse
		rowPtr, cols, vals := idx.Raw()
		nnz = uint64(len(vals))
		payload = encodeSparse(rowPtr, cols, vals)
	default:
		return fmt.Errorf("write shard: unsupported index type %T", s)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("create compressor: %w", err)
	}
	compressed := enc.EncodeAll(payload, nil)
	_ = enc.Close()

	header := shardHeader{
		Kind:     kind,
		Rows:     uint32(s.Len()),
		Dim:      uint32(s.Dim()),
		NNZ:      nnz,
		Checksum: crc32.Checksum(compressed, castagnoli),
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".shard-*")
	if err != nil {
		return fmt.Errorf("create temp shard: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(header.encode()); err == nil {
		_, err = tmp.Write(compressed)
	}
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write shard %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename shard %s: %w", path, err)
	}
	return nil
}

// readShard loads a shard file and reconstructs its in-memory index.
func readShard(path string) (sim.Searcher, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("shard file %s: %w", path, domain.ErrIndexNotFound)
		}
		return nil, fmt.Errorf("read shard %s: %w", path, err)
	}

	header, err := decodeHeader(raw)
	if err != nil {
		return nil, fmt.Errorf("shard %s: %w", path, err)
	}

	compressed := raw[headerSize:]
	if sum := crc32.Checksum(compressed, castagnoli); sum != header.Checksum {
		return nil, fmt.Errorf("shard %s: checksum 0x%08x != 0x%08x: %w",
			path, sum, header.Checksum, domain.ErrShardCorrupted)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create decompressor: %w", err)
	}
	payload, err := dec.DecodeAll(compressed, nil)
	dec.Close()
	if err != nil {
		return nil, fmt.Errorf("shard %s: decompress: %w: %w", path, err, domain.ErrShardCorrupted)
	}

	rows, dim := int(header.Rows), int(header.Dim)

	switch header.Kind {
	case kindCodeDense:
		if len(payload) != rows*dim*4 {
			return nil, fmt.Errorf("shard %s: dense payload %d bytes, want %d: %w",
				path, len(payload), rows*dim*4, domain.ErrShardCorrupted)
		}
		idx, err := dense.FromNormalized(dim, rows, decodeFloats(payload))
		if err != nil {
			return nil, fmt.Errorf("shard %s: %w: %w", path, err, domain.ErrShardCorrupted)
		}
		return idx, nil

	case kindCodeSparse:
		nnz := int(header.NNZ)
		want := (rows+1)*4 + nnz*4 + nnz*4
		if len(payload) != want {
			return nil, fmt.Errorf("shard %s: sparse payload %d bytes, want %d: %w",
				path, len(payload), want, domain.ErrShardCorrupted)
		}
		rowPtr, cols, vals := decodeSparse(payload, rows, nnz)
		idx, err := sparse.FromRaw(dim, rowPtr, cols, vals)
		if err != nil {
			return nil, fmt.Errorf("shard %s: %w: %w", path, err, domain.ErrShardCorrupted)
		}
		return idx, nil

	default:
		return nil, fmt.Errorf("shard %s: unknown kind %d: %w", path, header.Kind, domain.ErrShardCorrupted)
	}
}

func encodeFloats(vals []float32) []byte {
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeFloats(buf []byte) []float32 {
	vals := make([]float32, len(buf)/4)
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vals
}

func encodeSparse(rowPtr []uint32, cols []int32, vals []float32) []byte {
	buf := make([]byte, 0, len(rowPtr)*4+len(cols)*4+len(vals)*4)
	var scratch [4]byte
	for _, p := range rowPtr {
		binary.LittleEndian.PutUint32(scratch[:], p)
		buf = append(buf, scratch[:]...)
	}
	for _, c := range cols {
		binary.LittleEndian.PutUint32(scratch[:], uint32(c))
		buf = append(buf, scratch[:]...)
	}
	for _, v := range vals {
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(v))
		buf = append(buf, scratch[:]...)
	}
	return buf
}

func decodeSparse(buf []byte, rows, nnz int) (rowPtr []uint32, cols []int32, vals []float32) {
	rowPtr = make([]uint32, rows+1)
	for i := range rowPtr {
		rowPtr[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	off := (rows + 1) * 4
	cols = make([]int32, nnz)
	for i := range cols {
		cols[i] = int32(binary.LittleEndian.Uint32(buf[off+i*4:]))
	}
	off += nnz * 4
	vals = make([]float32, nnz)
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off+i*4:]))
	}
	return rowPtr, cols, vals
}
