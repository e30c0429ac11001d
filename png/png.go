package png

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/zlib"
	"golang.org/x/text/encoding/charmap"
)

var (
	ErrNotPNG       = errors.New("file is not a valid PNG")
	ErrNoTextChunks = errors.New("no text chunks found")
)

const (
	signatureLen    = 8
	chunkHeaderLen  = 8
	chunkCRCLen     = 4
	compressionZlib = 0
)

// ExtractTextChunks reads a PNG file and returns its text chunks keyed by keyword.
func ExtractTextChunks(filename string) (map[string]string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if !mimetype.Detect(data).Is("image/png") {
		return nil, ErrNotPNG
	}
	return ReadTextChunks(data)
}

// ReadTextChunks walks the chunks of an in-memory PNG and collects tEXt, zTXt
// and iTXt entries. A truncated trailing chunk ends the walk without error, and
// a text chunk that cannot be decoded is skipped. Decode errors are only
// returned when no text chunk was read.
func ReadTextChunks(data []byte) (map[string]string, error) {
	if len(data) < signatureLen || !bytes.Equal(data[:signatureLen], signature) {
		return nil, ErrNotPNG
	}

	offset := signatureLen
	result := make(map[string]string)
	var chunkErrs []error
	for offset+chunkHeaderLen <= len(data) {
		length := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		if length < 0 || offset+chunkHeaderLen+length+chunkCRCLen > len(data) {
			break
		}
		chunkType := string(data[offset+4 : offset+8])
		body := data[offset+chunkHeaderLen : offset+chunkHeaderLen+length]

		var (
			keyword, text string
			ok            bool
			err           error
		)
		switch chunkType {
		case "tEXt":
			keyword, text, ok = readText(body)
		case "zTXt":
			keyword, text, ok, err = readCompressedText(body)
		case "iTXt":
			keyword, text, ok, err = readInternationalText(body)
		case "IEND":
			offset = len(data)
			continue
		}
		if err != nil {
			chunkErrs = append(chunkErrs, fmt.Errorf("%s chunk: %w", chunkType, err))
		}
		if ok {
			result[keyword] = text
		}
		offset += chunkHeaderLen + length + chunkCRCLen
	}

	if len(result) > 0 {
		return result, nil
	}
	if len(chunkErrs) > 0 {
		return nil, errors.Join(append([]error{ErrNoTextChunks}, chunkErrs...)...)
	}
	return nil, ErrNoTextChunks
}

var signature = []byte{137, 80, 78, 71, 13, 10, 26, 10}

func readText(body []byte) (string, string, bool) {
	keyword, rest, ok := bytes.Cut(body, []byte{0})
	if !ok {
		return "", "", false
	}
	return latin1(keyword), latin1(rest), true
}

func readCompressedText(body []byte) (string, string, bool, error) {
	keyword, rest, ok := bytes.Cut(body, []byte{0})
	if !ok || len(rest) < 1 {
		return "", "", false, nil
	}
	if rest[0] != compressionZlib {
		return "", "", false, fmt.Errorf("unknown compression method %d", rest[0])
	}
	text, err := inflate(rest[1:])
	if err != nil {
		return "", "", false, err
	}
	return latin1(keyword), latin1(text), true, nil
}

// iTXt: keyword NUL flag method language NUL translated-keyword NUL text.
func readInternationalText(body []byte) (string, string, bool, error) {
	keyword, rest, ok := bytes.Cut(body, []byte{0})
	if !ok || len(rest) < 2 {
		return "", "", false, nil
	}
	compressed, method := rest[0] == 1, rest[1]
	_, rest, ok = bytes.Cut(rest[2:], []byte{0})
	if !ok {
		return "", "", false, nil
	}
	_, text, ok := bytes.Cut(rest, []byte{0})
	if !ok {
		return "", "", false, nil
	}
	if compressed {
		if method != compressionZlib {
			return "", "", false, fmt.Errorf("unknown compression method %d", method)
		}
		inflated, err := inflate(text)
		if err != nil {
			return "", "", false, err
		}
		text = inflated
	}
	return latin1(keyword), string(text), true, nil
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return out, nil
}

// latin1 decodes tEXt/zTXt bytes. Many generators write UTF-8 there regardless
// of the PNG rules, so valid UTF-8 is kept as is.
func latin1(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

// ParseChunkJSON parses chunk content as a JSON object.
func ParseChunkJSON(data string) (map[string]any, error) {
	var result map[string]any
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return result, nil
}
