// Package main generates a development Certificate Authority (CA) and a
// server certificate for the HTTPS listener, writing them under a
// directory ("certs" by default). An existing CA in that directory is
// reused so clients that already trust it keep working.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinyakov/minihub/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	fs.SetOutput(out)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma-separated server host names and IPs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var names []string
	for _, h := range strings.Split(*hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			names = append(names, h)
		}
	}
	if len(names) == 0 {
		return errors.New("no hosts given")
	}

	caCertPath := filepath.Join(*dir, "ca.crt")
	caKeyPath := filepath.Join(*dir, "ca.key")
	caCert, caKey, err := certgen.LoadCACredentials(caCertPath, caKeyPath)
	if errors.Is(err, os.ErrNotExist) {
		var certPEM, keyPEM []byte
		caCert, caKey, certPEM, keyPEM, err = certgen.GenerateCA("Minihub Development CA")
		if err != nil {
			return err
		}
		if err := certgen.WritePair(*dir, "ca", certPEM, keyPEM); err != nil {
			return err
		}
		fmt.Fprintf(out, "generated CA in %s\n", *dir)
	} else if err != nil {
		return err
	}

	certPEM, keyPEM, err := certgen.GenerateServerCertificate(caCert, caKey, names...)
	if err != nil {
		return err
	}
	if err := certgen.WritePair(*dir, "server", certPEM, keyPEM); err != nil {
		return err
	}

	fmt.Fprintf(out, "server certificate for %s written to %s\n", strings.Join(names, ", "), *dir)
	return nil
}
