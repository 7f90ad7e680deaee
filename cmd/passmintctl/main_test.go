package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passmint/core"
	"passmint/crypto"
	"passmint/native/collection"
	"passmint/native/passes"
	"passmint/rpc"
	"passmint/storage"
)

func writeKeystore(t *testing.T, name, pass string) (string, *crypto.PrivateKey) {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, crypto.SaveToKeystore(path, key, pass))
	return path, key
}

func TestDeriveMatchesEngineDerivation(t *testing.T) {
	asset := common.HexToAddress("0x00000000000000000000000000000000000b0a7d")
	f := deriveFlags{namespace: "passes", asset: asset.Hex(), name: "Builders Guild"}

	addr, err := derive("issuer", f)
	require.NoError(t, err)
	assert.Equal(t, passes.IssuerAddress("passes", asset, "Builders Guild"), addr)

	addr, err = derive("collection", f)
	require.NoError(t, err)
	assert.Equal(t, collection.Address(asset), addr)

	f.asset = crypto.FormatAddress(asset)
	addr, err = derive("issuer", f)
	require.NoError(t, err)
	assert.Equal(t, passes.IssuerAddress("passes", asset, "Builders Guild"), addr)

	_, err = derive("receipt", deriveFlags{namespace: "passes"})
	require.ErrorContains(t, err, "-sender is required")
	_, err = derive("vault", f)
	require.ErrorContains(t, err, "unknown address kind")
}

func TestRunDeriveRequiresKind(t *testing.T) {
	var out bytes.Buffer
	require.Error(t, runDerive(nil, &out))

	require.NoError(t, runDerive([]string{"community", "-community", "builders"}, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, passes.CommunityID("passes", "builders").Hex(), lines[1])
}

func TestReadParams(t *testing.T) {
	raw, err := readParams("", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	raw, err = readParams("-", strings.NewReader(`{"name":"Guild"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Guild"}`, string(raw))

	_, err = readParams(`{"name":`, nil)
	require.ErrorContains(t, err, "not valid JSON")
	_, err = readParams("@"+filepath.Join(t.TempDir(), "missing.json"), nil)
	require.Error(t, err)
}

func TestBuildEnvelopeSignsForBothPrincipals(t *testing.T) {
	authorityPath, authority := writeKeystore(t, "authority.json", "authority-pass")
	payerPath, payer := writeKeystore(t, "payer.json", "payer-pass")
	t.Setenv(defaultPassEnv, "authority-pass")
	t.Setenv(defaultFeePassEnv, "payer-pass")

	env, err := buildEnvelope(signFlags{
		method:     "passes_removeIssuer",
		params:     `{ "issuer": "0x0000000000000000000000000000000000000abc" }`,
		key:        authorityPath,
		passEnv:    defaultPassEnv,
		feePayer:   payerPath,
		feePassEnv: defaultFeePassEnv,
		ttl:        time.Minute,
	}, nil)
	require.NoError(t, err)

	payload, err := rpc.SigningBytes(env.Method, env.Params, env.Nonce, env.Expiry)
	require.NoError(t, err)
	for _, tc := range []struct {
		sig  rpc.Signature
		want common.Address
	}{
		{env.Authority, authority.Address()},
		{*env.FeePayer, payer.Address()},
	} {
		assert.Equal(t, crypto.FormatAddress(tc.want), tc.sig.Address)
		sig, err := hex.DecodeString(tc.sig.Signature)
		require.NoError(t, err)
		signer, err := crypto.RecoverSigner(payload, sig)
		require.NoError(t, err)
		assert.Equal(t, tc.want, signer)
	}
}

func TestBuildEnvelopeRejectsBadInput(t *testing.T) {
	_, err := buildEnvelope(signFlags{ttl: time.Minute}, nil)
	require.ErrorContains(t, err, "-method is required")
	_, err = buildEnvelope(signFlags{method: "passes_removeIssuer"}, nil)
	require.ErrorContains(t, err, "-ttl must be positive")

	path, _ := writeKeystore(t, "authority.json", "right")
	t.Setenv(defaultPassEnv, "wrong")
	_, err = buildEnvelope(signFlags{method: "passes_removeIssuer", key: path, passEnv: defaultPassEnv, ttl: time.Minute}, nil)
	require.ErrorContains(t, err, "unlock authority keystore")
}

func TestClientCallsNode(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	node, err := core.NewNode(db, "")
	require.NoError(t, err)
	server := rpc.NewServer(node, nil, rpc.DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	c := newClient(ts.URL + "/rpc")
	result, err := c.call("passes_deriveAddress", map[string]string{"kind": "community", "community": "builders"})
	require.NoError(t, err)
	var derived map[string]string
	require.NoError(t, json.Unmarshal(result, &derived))
	assert.Equal(t, passes.CommunityID("passes", "builders").Hex(), derived["hex"])

	_, err = c.call("passes_getIssuer", map[string]string{"address": common.HexToAddress("0xabc").Hex()})
	require.ErrorContains(t, err, "IssuerNotFound")

	_, err = c.call("passes_unknown", nil)
	require.ErrorContains(t, err, "rpc error")
}

func TestRunAddressReadsKeystoreWithoutPassphrase(t *testing.T) {
	path, key := writeKeystore(t, "signer.json", "secret")
	var out bytes.Buffer
	require.NoError(t, runAddress([]string{"-key", path}, &out))
	assert.Equal(t, crypto.FormatAddress(key.Address())+"\n"+key.Address().Hex()+"\n", out.String())
}
