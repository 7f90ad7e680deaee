package main

import (
	"fmt"
	"io"
	"os"
)

const (
	defaultPassEnv     = "PASSMINT_KEY_PASS"
	defaultFeePassEnv  = "PASSMINT_FEE_PAYER_PASS"
	defaultRPCEndpoint = "http://127.0.0.1:8080/rpc"
	rpcEndpointEnv     = "PASSMINT_RPC_URL"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(1)
	}

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "keygen":
		err = runKeygen(args, os.Stdout)
	case "address":
		err = runAddress(args, os.Stdout)
	case "derive":
		err = runDerive(args, os.Stdout)
	case "sign":
		err = runSign(args, os.Stdout)
	case "submit":
		err = runSubmit(args, os.Stdout)
	case "query":
		err = runQuery(args, os.Stdout)
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	default:
		usage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `Usage: passmintctl <command> [flags]

Commands:
  keygen   generate a key and write it to an encrypted keystore
  address  print the bech32 address held in a keystore
  derive   compute an issuer, receipt, activity, community or collection address
  sign     build and sign a transition envelope, printing it as JSON
  submit   sign a transition envelope and send it to a node
  query    call a read-only RPC method

Run "passmintctl <command> -h" for the flags of a command.`)
}

func endpointFromEnv() string {
	if v := os.Getenv(rpcEndpointEnv); v != "" {
		return v
	}
	return defaultRPCEndpoint
}
