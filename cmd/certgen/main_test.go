package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/SymbolBoard/internal/client/storage"
)

func TestRun_ReusesCA(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run(dir, []string{"localhost"}, []string{"alice"}))
	ca1, err := os.ReadFile(filepath.Join(dir, "ca.crt"))
	require.NoError(t, err)

	require.NoError(t, run(dir, []string{"localhost"}, []string{"bob"}))
	ca2, _ := os.ReadFile(filepath.Join(dir, "ca.crt"))
	assert.Equal(t, ca1, ca2)

	for _, name := range []string{"server", "alice", "bob"} {
		assert.FileExists(t, filepath.Join(dir, name+".crt"))
		assert.FileExists(t, filepath.Join(dir, name+".key"))
	}

	// the device certificate loads into a client
	_, err = storage.LoadClientCertificate(
		filepath.Join(dir, "alice.crt"), filepath.Join(dir, "alice.key"), filepath.Join(dir, "ca.crt"))
	assert.NoError(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
