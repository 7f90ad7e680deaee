package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"passmint/crypto"
	"passmint/native/collection"
	"passmint/native/passes"
)

type deriveFlags struct {
	namespace   string
	asset       string
	name        string
	sender      string
	receiver    string
	memberAsset string
	label       string
	community   string
}

// runDerive computes program addresses offline. The namespace must match the
// node's passes namespace for the result to be meaningful.
func runDerive(args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("derive requires a kind: issuer, receipt, activity, community or collection")
	}
	kind := strings.ToLower(args[0])
	fs := flag.NewFlagSet("derive "+kind, flag.ContinueOnError)
	var f deriveFlags
	fs.StringVar(&f.namespace, "namespace", passes.DefaultParams().Namespace, "Passes namespace")
	fs.StringVar(&f.asset, "asset", "", "Bound or collection asset address")
	fs.StringVar(&f.name, "name", "", "Issuer name")
	fs.StringVar(&f.sender, "sender", "", "Receipt sender")
	fs.StringVar(&f.receiver, "receiver", "", "Receipt receiver")
	fs.StringVar(&f.memberAsset, "member-asset", "", "Membership asset")
	fs.StringVar(&f.label, "label", "", "Activity label")
	fs.StringVar(&f.community, "community", "", "Community identifier")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	addr, err := derive(kind, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n%s\n", crypto.FormatAddress(addr), addr.Hex())
	return nil
}

func derive(kind string, f deriveFlags) (common.Address, error) {
	switch kind {
	case "issuer":
		asset, err := requireAddress("asset", f.asset)
		if err != nil {
			return common.Address{}, err
		}
		return passes.IssuerAddress(f.namespace, asset, f.name), nil
	case "receipt":
		sender, err := requireAddress("sender", f.sender)
		if err != nil {
			return common.Address{}, err
		}
		receiver, err := requireAddress("receiver", f.receiver)
		if err != nil {
			return common.Address{}, err
		}
		asset, err := requireAddress("asset", f.asset)
		if err != nil {
			return common.Address{}, err
		}
		return passes.ReceiptAddress(f.namespace, sender, receiver, asset), nil
	case "activity":
		memberAsset, err := requireAddress("member-asset", f.memberAsset)
		if err != nil {
			return common.Address{}, err
		}
		return passes.ActivityAddress(f.namespace, memberAsset, f.label), nil
	case "community":
		return passes.CommunityID(f.namespace, f.community), nil
	case "collection":
		asset, err := requireAddress("asset", f.asset)
		if err != nil {
			return common.Address{}, err
		}
		return collection.Address(asset), nil
	default:
		return common.Address{}, fmt.Errorf("unknown address kind %q", kind)
	}
}

func requireAddress(flagName, raw string) (common.Address, error) {
	if strings.TrimSpace(raw) == "" {
		return common.Address{}, fmt.Errorf("-%s is required", flagName)
	}
	addr, err := crypto.ParseAddress(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("-%s: %w", flagName, err)
	}
	return addr, nil
}
