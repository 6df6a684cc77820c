package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeWriterErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, _, err := makeWriter(&Config{Output: filepath.Join(file, "sub", "out.bin")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output directory: ")

	_, _, err = makeWriter(&Config{Output: filepath.Join(t.TempDir(), "")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output file: ")
}

func TestSave(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bin", "out.bin")
	img, err := build(writeSource(t, "SET A, 0x30\n"))
	require.NoError(t, err)
	require.NoError(t, save(&Config{Output: out}, img))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x7c, 0x01, 0x00, 0x30}, data)
}

func writeSource(t *testing.T, src string) *Config {
	t.Helper()
	name := filepath.Join(t.TempDir(), "main.dasm")
	require.NoError(t, os.WriteFile(name, []byte(src), 0644))
	return &Config{Input: name}
}
