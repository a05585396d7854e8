package lsm

import (
	"encoding/binary"
	"fmt"
)

// Block format:
//   [entry_count(4)] then per entry:
//   keyLen(4) | key | valueLen(4) | value | seq(8) | deleted(1)
// Blocks are snappy-compressed when stored in an SSTable arena.

// appendEntry encodes one entry onto buf.
func appendEntry(buf []byte, e *Entry) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.Key)))
	buf = append(buf, e.Key...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.Value)))
	buf = append(buf, e.Value...)
	buf = binary.LittleEndian.AppendUint64(buf, e.Seq)
	deleted := byte(0)
	if e.Deleted {
		deleted = 1
	}
	return append(buf, deleted)
}

// encodeBlock encodes entries into an uncompressed block.
func encodeBlock(entries []*Entry) []byte {
	size := 4
	for _, e := range entries {
		size += e.Size()
	}
	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(entries)))
	for _, e := range entries {
		buf = appendEntry(buf, e)
	}
	return buf
}

// decodeBlock decodes an uncompressed block back into entries.
func decodeBlock(buf []byte) ([]*Entry, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("block truncated: %d bytes", len(buf))
	}
	count := binary.LittleEndian.Uint32(buf)
	pos := 4

	entries := make([]*Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, n, err := decodeEntry(buf[pos:])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, e)
		pos += n
	}
	return entries, nil
}

// decodeEntry decodes one entry from the front of buf, returning it and the
// number of bytes consumed.
func decodeEntry(buf []byte) (*Entry, int, error) {
	pos := 0

	if len(buf) < pos+4 {
		return nil, 0, fmt.Errorf("truncated key length")
	}
	keyLen := int(binary.LittleEndian.Uint32(buf[pos:]))
	pos += 4

	if len(buf) < pos+keyLen {
		return nil, 0, fmt.Errorf("truncated key")
	}
	key := make([]byte, keyLen)
	copy(key, buf[pos:pos+keyLen])
	pos += keyLen

	if len(buf) < pos+4 {
		return nil, 0, fmt.Errorf("truncated value length")
	}
	valueLen := int(binary.LittleEndian.Uint32(buf[pos:]))
	pos += 4

	if len(buf) < pos+valueLen {
		return nil, 0, fmt.Errorf("truncated value")
	}
	value := make([]byte, valueLen)
	copy(value, buf[pos:pos+valueLen])
	pos += valueLen

	if len(buf) < pos+9 {
		return nil, 0, fmt.Errorf("truncated entry footer")
	}
	seq := binary.LittleEndian.Uint64(buf[pos:])
	pos += 8
	deleted := buf[pos] == 1
	pos++

	return &Entry{
		Key:     key,
		Value:   value,
		Seq:     seq,
		Deleted: deleted,
	}, pos, nil
}
