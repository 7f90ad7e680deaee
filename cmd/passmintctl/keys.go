package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"passmint/cmd/internal/passphrase"
	"passmint/crypto"
)

func runKeygen(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	path := fs.String("out", "", "Output path for the keystore file")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	force := fs.Bool("force", false, "Overwrite an existing keystore file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("-out is required")
	}
	if !*force {
		if _, err := os.Stat(*path); err == nil {
			return fmt.Errorf("keystore file %s already exists (use -force to overwrite)", *path)
		} else if !os.IsNotExist(err) {
			return err
		}
	}

	pass, err := passphrase.NewSource(*passEnv, "new", passphrase.WithConfirmation()).Get()
	if err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	if err := crypto.SaveToKeystore(*path, key, pass); err != nil {
		return fmt.Errorf("failed to write keystore: %w", err)
	}
	fmt.Fprintf(out, "%s\n", crypto.FormatAddress(key.Address()))
	return nil
}

func runAddress(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("address", flag.ContinueOnError)
	path := fs.String("key", "", "Keystore file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr, err := crypto.KeystoreAddress(*path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n%s\n", crypto.FormatAddress(addr), addr.Hex())
	return nil
}

func loadKey(path, passEnv, label string) (*crypto.PrivateKey, error) {
	if path == "" {
		return nil, fmt.Errorf("%s keystore path required", label)
	}
	pass, err := passphrase.NewSource(passEnv, label).Get()
	if err != nil {
		return nil, err
	}
	key, err := crypto.LoadFromKeystore(path, pass)
	if err != nil {
		return nil, fmt.Errorf("unlock %s keystore: %w", label, err)
	}
	return key, nil
}
