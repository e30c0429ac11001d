// Package pngtest builds minimal PNG files carrying text chunks for tests.
package pngtest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// Chunk is a raw PNG chunk.
type Chunk struct {
	Type string
	Data []byte
}

// Text is a tEXt chunk.
func Text(keyword, text string) Chunk {
	return Chunk{Type: "tEXt", Data: []byte(keyword + "\x00" + text)}
}

// CompressedText is a zTXt chunk.
func CompressedText(keyword, text string) Chunk {
	data := append([]byte(keyword), 0, 0)
	return Chunk{Type: "zTXt", Data: append(data, deflate(text)...)}
}

// InternationalText is an iTXt chunk, zlib compressed when compress is set.
func InternationalText(keyword, text string, compress bool) Chunk {
	data := append([]byte(keyword), 0)
	if compress {
		data = append(data, 1, 0)
	} else {
		data = append(data, 0, 0)
	}
	data = append(data, []byte("en\x00\x00")...)
	if compress {
		return Chunk{Type: "iTXt", Data: append(data, deflate(text)...)}
	}
	return Chunk{Type: "iTXt", Data: append(data, text...)}
}

// Build returns a PNG stream: signature, a 1x1 IHDR, the given chunks, an empty IDAT and IEND.
func Build(chunks ...Chunk) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{137, 80, 78, 71, 13, 10, 26, 10})

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 1)
	binary.BigEndian.PutUint32(ihdr[4:8], 1)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolour
	writeChunk(&buf, Chunk{Type: "IHDR", Data: ihdr})
	for _, c := range chunks {
		writeChunk(&buf, c)
	}
	writeChunk(&buf, Chunk{Type: "IDAT"})
	writeChunk(&buf, Chunk{Type: "IEND"})
	return buf.Bytes()
}

// WriteFile writes a built PNG into dir and returns its path.
func WriteFile(t testing.TB, dir, name string, chunks ...Chunk) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, Build(chunks...), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

func writeChunk(buf *bytes.Buffer, c Chunk) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(c.Data)))
	buf.Write(length[:])
	crc := crc32.NewIEEE()
	crc.Write([]byte(c.Type))
	crc.Write(c.Data)
	buf.WriteString(c.Type)
	buf.Write(c.Data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	buf.Write(sum[:])
}

func deflate(text string) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, _ = w.Write([]byte(text))
	_ = w.Close()
	return buf.Bytes()
}
