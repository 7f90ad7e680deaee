// core/genesis/spec.go
package genesis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"passmint/crypto"
)

// GenesisSpec seeds a fresh ledger with native reserve balances, payment
// assets and their initial holdings. Addresses may be hex or bech32.
type GenesisSpec struct {
	GenesisTime string            `json:"genesisTime" yaml:"genesisTime"`
	Assets      []AssetSpec       `json:"assets" yaml:"assets"`
	Alloc       map[string]string `json:"alloc" yaml:"alloc"` // addr -> native balance
	Holdings    []HoldingSpec     `json:"holdings" yaml:"holdings"`

	genesisTimestamp time.Time
	alloc            map[common.Address]uint64
}

type AssetSpec struct {
	Address         string `json:"address" yaml:"address"`
	Name            string `json:"name" yaml:"name"`
	Symbol          string `json:"symbol" yaml:"symbol"`
	URI             string `json:"uri,omitempty" yaml:"uri,omitempty"`
	Decimals        uint8  `json:"decimals" yaml:"decimals"`
	MintAuthority   string `json:"mintAuthority,omitempty" yaml:"mintAuthority,omitempty"`
	NonTransferable bool   `json:"nonTransferable,omitempty" yaml:"nonTransferable,omitempty"`

	address       common.Address
	mintAuthority common.Address
}

type HoldingSpec struct {
	Owner  string `json:"owner" yaml:"owner"`
	Asset  string `json:"asset" yaml:"asset"`
	Amount uint64 `json:"amount" yaml:"amount"`

	owner common.Address
	asset common.Address
}

// LoadGenesisSpec reads a YAML (.yaml/.yml) or JSON genesis file. Unknown
// fields are rejected in both formats.
func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	var spec GenesisSpec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("decode genesis spec %q: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("decode genesis spec %q: %w", path, err)
		}
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis spec %q: %w", path, err)
	}
	return &spec, nil
}

func (s *GenesisSpec) GenesisTimestamp() time.Time { return s.genesisTimestamp }

func (s *GenesisSpec) validate() error {
	parsedTime, err := parseGenesisTime(s.GenesisTime)
	if err != nil {
		return err
	}
	s.genesisTimestamp = parsedTime

	assets := make(map[common.Address]struct{}, len(s.Assets))
	for i := range s.Assets {
		a := &s.Assets[i]
		if err := a.validate(); err != nil {
			return fmt.Errorf("asset[%d]: %w", i, err)
		}
		if _, exists := assets[a.address]; exists {
			return fmt.Errorf("asset[%d]: duplicate address %s", i, a.Address)
		}
		assets[a.address] = struct{}{}
	}

	s.alloc = make(map[common.Address]uint64, len(s.Alloc))
	for addrStr, amountStr := range s.Alloc {
		addr, err := crypto.ParseAddress(addrStr)
		if err != nil {
			return fmt.Errorf("alloc[%q]: %w", addrStr, err)
		}
		amount, err := strconv.ParseUint(strings.TrimSpace(amountStr), 10, 64)
		if err != nil {
			return fmt.Errorf("alloc[%q]: invalid amount %q", addrStr, amountStr)
		}
		if _, exists := s.alloc[addr]; exists {
			return fmt.Errorf("alloc[%q]: duplicate address", addrStr)
		}
		s.alloc[addr] = amount
	}

	type holdingKey struct{ owner, asset common.Address }
	seen := make(map[holdingKey]struct{}, len(s.Holdings))
	for i := range s.Holdings {
		h := &s.Holdings[i]
		if h.owner, err = crypto.ParseAddress(h.Owner); err != nil {
			return fmt.Errorf("holding[%d] owner: %w", i, err)
		}
		if h.asset, err = crypto.ParseAddress(h.Asset); err != nil {
			return fmt.Errorf("holding[%d] asset: %w", i, err)
		}
		if _, ok := assets[h.asset]; !ok {
			return fmt.Errorf("holding[%d]: asset %s is not declared", i, h.Asset)
		}
		key := holdingKey{h.owner, h.asset}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("holding[%d]: duplicate holding", i)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (a *AssetSpec) validate() error {
	addr, err := crypto.ParseAddress(a.Address)
	if err != nil {
		return fmt.Errorf("address: %w", err)
	}
	a.address = addr
	if strings.TrimSpace(a.Symbol) == "" {
		return fmt.Errorf("symbol must be provided")
	}
	if strings.TrimSpace(a.MintAuthority) != "" {
		authority, err := crypto.ParseAddress(a.MintAuthority)
		if err != nil {
			return fmt.Errorf("mintAuthority: %w", err)
		}
		a.mintAuthority = authority
	}
	return nil
}

func parseGenesisTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("genesisTime must be provided")
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("invalid genesisTime %q", value)
}
