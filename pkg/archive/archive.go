/*
Package archive serializes results to files using gob encoding with
optional compression and a CRC32 checksum.

An archive starts with a one byte format followed by the checksum of the
payload and the payload itself.
*/
package archive

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"hash/crc32"
	"os"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Compression is the format of compression of an archive payload.
type Compression uint8

const (
	Uncompressed Compression = iota
	Snappy
	Zstd
)

func (c Compression) String() string {
	switch c {
	case Uncompressed:
		return "none"
	case Snappy:
		return "snappy"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseCompression parses a compression name as written in configuration.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none", "uncompressed":
		return Uncompressed, nil
	case "snappy":
		return Snappy, nil
	case "zstd":
		return Zstd, nil
	}
	return Uncompressed, fmt.Errorf("unknown compression %q", s)
}

// Encode serializes data with the given compression and a checksum.
func Encode(data []byte, compress Compression) ([]byte, error) {
	var payload []byte
	switch compress {
	case Uncompressed:
		payload = data
	case Snappy:
		payload = snappy.Encode(nil, data)
	case Zstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		payload = enc.EncodeAll(data, nil)
		enc.Close()
	default:
		return nil, fmt.Errorf("illegal compression (%s) during serialization", compress)
	}

	var buf bytes.Buffer
	buf.Grow(5 + len(payload))
	buf.WriteByte(byte(compress))
	binary.Write(&buf, binary.LittleEndian, crc32.ChecksumIEEE(payload))
	buf.Write(payload)
	return buf.Bytes(), nil
}

// Decode verifies and uncompresses bytes produced by Encode.
func Decode(s []byte) ([]byte, Compression, error) {
	if len(s) < 5 {
		return nil, Uncompressed, fmt.Errorf("archive too short: %d bytes", len(s))
	}
	compress := Compression(s[0])
	stored := binary.LittleEndian.Uint32(s[1:5])
	payload := s[5:]
	if got := crc32.ChecksumIEEE(payload); got != stored {
		return nil, compress, fmt.Errorf("bad checksum: stored %x got %x", stored, got)
	}
	switch compress {
	case Uncompressed:
		return payload, compress, nil
	case Snappy:
		data, err := snappy.Decode(nil, payload)
		return data, compress, err
	case Zstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, compress, err
		}
		defer dec.Close()
		data, err := dec.DecodeAll(payload, nil)
		return data, compress, err
	}
	return nil, compress, fmt.Errorf("illegal compression format (%d) in deserialization", compress)
}

// Serialize gob encodes object and passes it through Encode.
func Serialize(object interface{}, compress Compression) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(object); err != nil {
		return nil, err
	}
	return Encode(buf.Bytes(), compress)
}

// Deserialize decodes bytes produced by Serialize into object.
func Deserialize(s []byte, object interface{}) error {
	data, _, err := Decode(s)
	if err != nil {
		return err
	}
	return gob.NewDecoder(bytes.NewReader(data)).Decode(object)
}

// Save writes object to path and returns the number of bytes written.
func Save(path string, object interface{}, compress Compression) (int, error) {
	s, err := Serialize(object, compress)
	if err != nil {
		return 0, fmt.Errorf("serializing %s: %w", path, err)
	}
	if err := os.WriteFile(path, s, 0o644); err != nil {
		return 0, err
	}
	return len(s), nil
}

// Load reads an archive written by Save into object.
func Load(path string, object interface{}) error {
	s, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := Deserialize(s, object); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
