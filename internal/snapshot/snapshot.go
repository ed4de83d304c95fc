// Package snapshot reads and writes compressed catalog snapshots: a portable
// single-file dump of a catalog's hypertables, slices and chunks, used by
// the CLI to move partitioning metadata between catalogs.
package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/chronodb/chronodb/internal/catalog"
)

// File format:
//   [magic "CSNP" (4)] [format version (1)] [snapshot uuid (16)] [block]
// Block format:
//   [method_byte (1)] [compressed_size_with_header (4 LE)] [uncompressed_size (4 LE)] [payload...]
//
// compressed_size_with_header includes the 9-byte block header itself.
// The block payload is the catalog contents as JSON.

var magic = [4]byte{'C', 'S', 'N', 'P'}

const (
	formatVersion byte = 1

	headerSize      = len(magic) + 1 + 16
	blockHeaderSize = 9
)

// Write dumps catalog contents as a snapshot and returns its generated id.
func Write(w io.Writer, contents catalog.Contents, codec Codec) (uuid.UUID, error) {
	id := uuid.New()

	header := make([]byte, 0, headerSize)
	header = append(header, magic[:]...)
	header = append(header, formatVersion)
	header = append(header, id[:]...)
	if _, err := w.Write(header); err != nil {
		return uuid.Nil, fmt.Errorf("writing snapshot header: %w", err)
	}

	payload, err := json.Marshal(contents)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding snapshot payload: %w", err)
	}

	block, err := compressBlock(codec, payload)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := w.Write(block); err != nil {
		return uuid.Nil, fmt.Errorf("writing snapshot block: %w", err)
	}
	return id, nil
}

// Read parses a snapshot and returns its contents and id.
func Read(r io.Reader) (catalog.Contents, uuid.UUID, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return catalog.Contents{}, uuid.Nil, fmt.Errorf("reading snapshot header: %w", err)
	}
	if [4]byte(header[:4]) != magic {
		return catalog.Contents{}, uuid.Nil, fmt.Errorf("not a catalog snapshot")
	}
	if header[4] != formatVersion {
		return catalog.Contents{}, uuid.Nil, fmt.Errorf("unsupported snapshot version %d", header[4])
	}
	id, err := uuid.FromBytes(header[5:21])
	if err != nil {
		return catalog.Contents{}, uuid.Nil, err
	}

	block, err := io.ReadAll(r)
	if err != nil {
		return catalog.Contents{}, uuid.Nil, fmt.Errorf("reading snapshot block: %w", err)
	}
	payload, err := decompressBlock(block)
	if err != nil {
		return catalog.Contents{}, uuid.Nil, err
	}

	var contents catalog.Contents
	if err := json.Unmarshal(payload, &contents); err != nil {
		return catalog.Contents{}, uuid.Nil, fmt.Errorf("decoding snapshot payload: %w", err)
	}
	return contents, id, nil
}

// compressBlock compresses data and returns the full block (header + payload).
func compressBlock(codec Codec, data []byte) ([]byte, error) {
	compressed, err := codec.Compress(data)
	if err != nil {
		return nil, err
	}

	totalSize := blockHeaderSize + len(compressed)
	block := make([]byte, totalSize)

	block[0] = codec.MethodByte()
	binary.LittleEndian.PutUint32(block[1:5], uint32(totalSize))
	binary.LittleEndian.PutUint32(block[5:9], uint32(len(data)))
	copy(block[blockHeaderSize:], compressed)

	return block, nil
}

// decompressBlock validates a block header and decompresses the payload.
func decompressBlock(data []byte) ([]byte, error) {
	if len(data) < blockHeaderSize {
		return nil, fmt.Errorf("compressed block too small: %d bytes", len(data))
	}

	method := data[0]
	compressedSizeWithHeader := binary.LittleEndian.Uint32(data[1:5])
	uncompressedSize := binary.LittleEndian.Uint32(data[5:9])

	if int(compressedSizeWithHeader) > len(data) {
		return nil, fmt.Errorf("compressed block size mismatch: header says %d, have %d",
			compressedSizeWithHeader, len(data))
	}

	codec, err := codecForMethod(method)
	if err != nil {
		return nil, err
	}
	return codec.Decompress(data[blockHeaderSize:compressedSizeWithHeader], int(uncompressedSize))
}
