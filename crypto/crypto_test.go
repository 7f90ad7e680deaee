package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestDeriveIsDeterministicAndSeparated(t *testing.T) {
	a := common.HexToAddress("0x1111111111111111111111111111111111111111")
	b := common.HexToAddress("0x2222222222222222222222222222222222222222")

	first := Derive("passes", []byte("receipt"), a.Bytes(), b.Bytes())
	second := Derive("passes", []byte("receipt"), a.Bytes(), b.Bytes())
	require.Equal(t, first, second)

	require.NotEqual(t, first, Derive("passes", []byte("receipt"), b.Bytes(), a.Bytes()))
	require.NotEqual(t, first, Derive("other", []byte("receipt"), a.Bytes(), b.Bytes()))
	require.NotEqual(t, Derive("ns", []byte("ab"), []byte("c")), Derive("ns", []byte("a"), []byte("bc")))
}

func TestAddressFormatRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	addr := key.Address()

	encoded := FormatAddress(addr)
	require.Contains(t, encoded, AddressPrefix+"1")

	parsed, err := ParseAddress(encoded)
	require.NoError(t, err)
	require.Equal(t, addr, parsed)

	parsed, err = ParseAddress(addr.Hex())
	require.NoError(t, err)
	require.Equal(t, addr, parsed)

	_, err = ParseAddress("0x1234")
	require.Error(t, err)
	_, err = ParseAddress("")
	require.Error(t, err)
}

func TestSignAndRecover(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	payload := []byte(`{"op":"add-authority"}`)

	sig, err := key.Sign(payload)
	require.NoError(t, err)

	signer, err := RecoverSigner(payload, sig)
	require.NoError(t, err)
	require.Equal(t, key.Address(), signer)

	other, err := RecoverSigner([]byte("tampered"), sig)
	require.NoError(t, err)
	require.NotEqual(t, key.Address(), other)

	_, err = RecoverSigner(payload, sig[:10])
	require.Error(t, err)
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "keys", "signer.json")

	require.NoError(t, SaveToKeystore(path, key, "correct horse"))
	loaded, err := LoadFromKeystore(path, "correct horse")
	require.NoError(t, err)
	require.Equal(t, key.Address(), loaded.Address())

	_, err = LoadFromKeystore(path, "wrong")
	require.Error(t, err)

	addr, err := KeystoreAddress(path)
	require.NoError(t, err)
	require.Equal(t, key.Address(), addr)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestKeystoreAddressRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":3}`), 0o600))
	_, err := KeystoreAddress(path)
	require.Error(t, err)
	_, err = KeystoreAddress("")
	require.Error(t, err)
}
