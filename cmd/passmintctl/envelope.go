package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"passmint/rpc"
)

type signFlags struct {
	method     string
	params     string
	key        string
	passEnv    string
	feePayer   string
	feePassEnv string
	ttl        time.Duration
	endpoint   string
}

func bindSignFlags(fs *flag.FlagSet, f *signFlags) {
	fs.StringVar(&f.method, "method", "", "Transition method, e.g. passes_createIssuer")
	fs.StringVar(&f.params, "params", "", "Params as inline JSON, @file, or - for stdin")
	fs.StringVar(&f.key, "key", "", "Authority keystore")
	fs.StringVar(&f.passEnv, "pass-env", defaultPassEnv, "Environment variable containing the authority passphrase")
	fs.StringVar(&f.feePayer, "fee-payer", "", "Fee payer keystore (omit for a self-sponsored call)")
	fs.StringVar(&f.feePassEnv, "fee-pass-env", defaultFeePassEnv, "Environment variable containing the fee payer passphrase")
	fs.DurationVar(&f.ttl, "ttl", 10*time.Minute, "Envelope lifetime")
}

func runSign(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	var f signFlags
	bindSignFlags(fs, &f)
	if err := fs.Parse(args); err != nil {
		return err
	}
	env, err := buildEnvelope(f, os.Stdin)
	if err != nil {
		return err
	}
	return printJSON(out, env)
}

func runSubmit(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	var f signFlags
	bindSignFlags(fs, &f)
	fs.StringVar(&f.endpoint, "rpc", endpointFromEnv(), "Node RPC endpoint")
	if err := fs.Parse(args); err != nil {
		return err
	}
	env, err := buildEnvelope(f, os.Stdin)
	if err != nil {
		return err
	}
	result, err := newClient(f.endpoint).call(f.method, env)
	if err != nil {
		return err
	}
	return printJSON(out, result)
}

func runQuery(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	method := fs.String("method", "", "Query method, e.g. passes_getIssuer")
	params := fs.String("params", "", "Params as inline JSON, @file, or - for stdin")
	endpoint := fs.String("rpc", endpointFromEnv(), "Node RPC endpoint")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *method == "" {
		return errors.New("-method is required")
	}
	var payload interface{}
	if strings.TrimSpace(*params) != "" {
		raw, err := readParams(*params, os.Stdin)
		if err != nil {
			return err
		}
		payload = raw
	}
	result, err := newClient(*endpoint).call(*method, payload)
	if err != nil {
		return err
	}
	return printJSON(out, result)
}

// buildEnvelope signs params with the authority key and, when given, the fee
// payer key.
func buildEnvelope(f signFlags, stdin io.Reader) (*rpc.Envelope, error) {
	if f.method == "" {
		return nil, errors.New("-method is required")
	}
	if f.ttl <= 0 {
		return nil, errors.New("-ttl must be positive")
	}
	raw, err := readParams(f.params, stdin)
	if err != nil {
		return nil, err
	}
	env, err := rpc.NewEnvelope(f.method, raw, f.ttl)
	if err != nil {
		return nil, err
	}

	authority, err := loadKey(f.key, f.passEnv, "authority")
	if err != nil {
		return nil, err
	}
	if err := env.Sign(authority, false); err != nil {
		return nil, fmt.Errorf("sign as authority: %w", err)
	}
	if f.feePayer != "" {
		payer, err := loadKey(f.feePayer, f.feePassEnv, "fee payer")
		if err != nil {
			return nil, err
		}
		if err := env.Sign(payer, true); err != nil {
			return nil, fmt.Errorf("sign as fee payer: %w", err)
		}
	}
	return env, nil
}

func readParams(spec string, stdin io.Reader) (json.RawMessage, error) {
	var data []byte
	var err error
	switch {
	case spec == "":
		return json.RawMessage("{}"), nil
	case spec == "-":
		data, err = io.ReadAll(stdin)
	case strings.HasPrefix(spec, "@"):
		data, err = os.ReadFile(spec[1:])
	default:
		data = []byte(spec)
	}
	if err != nil {
		return nil, fmt.Errorf("read params: %w", err)
	}
	if !json.Valid(data) {
		return nil, errors.New("params are not valid JSON")
	}
	return json.RawMessage(data), nil
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
