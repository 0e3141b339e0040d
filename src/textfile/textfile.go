// Package textfile reads small text files such as repository and password
// files. Byte order marks are removed and UTF-16 content is converted to
// UTF-8.
package textfile

import (
	"bytes"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xef, 0xbb, 0xbf}
	bomUTF16BE = []byte{0xfe, 0xff}
	bomUTF16LE = []byte{0xff, 0xfe}
)

// Decode strips a byte order mark and returns the content as UTF-8. Data
// without a BOM is assumed to be UTF-8 already.
func Decode(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], nil
	case bytes.HasPrefix(data, bomUTF16BE), bytes.HasPrefix(data, bomUTF16LE):
		out, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(data)
		return out, errors.Wrap(err, "decode utf-16")
	default:
		return data, nil
	}
}

// Read returns the decoded content of filename.
func Read(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return Decode(data)
}

// ReadTrimmed returns the decoded content of filename with surrounding
// whitespace removed.
func ReadTrimmed(filename string) (string, error) {
	data, err := Read(filename)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
