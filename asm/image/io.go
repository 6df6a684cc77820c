package image

import (
	"encoding/binary"
	"io"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

var endian = binary.BigEndian

func readWords(r io.Reader) []uint16 {
	p, err := io.ReadAll(r)
	check(err)

	words := make([]uint16, (len(p)+1)/2)
	for i := range words {
		if 2*i+1 < len(p) {
			words[i] = endian.Uint16(p[2*i:])
		} else {
			words[i] = uint16(p[2*i]) << 8
		}
	}
	return words
}

func writeWords(w io.Writer, words []uint16) {
	p := make([]byte, 2*len(words))
	for i, v := range words {
		endian.PutUint16(p[2*i:], v)
	}

	_, err := w.Write(p)
	check(err)
}
