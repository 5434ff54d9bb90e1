// Package main writes a self-signed development certificate for the API
// server into the "certs" directory.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/atinyakov/taskkeeper/internal/certgen"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("certgen", pflag.ContinueOnError)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.StringSlice("host", []string{"localhost", "127.0.0.1"}, "hostnames and IPs to include")
	validFor := fs.Duration("valid-for", 365*24*time.Hour, "certificate lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	certPath, keyPath, err := certgen.WriteServerFiles(*dir, *hosts, *validFor)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s and %s\n", certPath, keyPath)
	fmt.Printf("run the server with --tls-cert %s --tls-key %s\n", certPath, keyPath)
	return nil
}
