// Package main generates a Certificate Authority (CA), a server certificate
// and owner device certificates, writing them to the output directory.
//
//	certgen -out certs -owners alice,bob
//
// An existing CA in the output directory is reused, so running certgen again
// with new owners adds device certificates without invalidating old ones.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinyakov/SymbolBoard/internal/certgen"
)

func main() {
	dir := flag.String("out", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma-separated server hosts")
	owners := flag.String("owners", "alice", "comma-separated owner IDs to issue device certificates for")
	flag.Parse()

	if err := run(*dir, splitList(*hosts), splitList(*owners)); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Certificates generated into %s\n", *dir)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func run(dir string, hosts, owners []string) error {
	caCertPath, caKeyPath := filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key")
	if _, err := os.Stat(caCertPath); errors.Is(err, os.ErrNotExist) {
		ca, err := certgen.GenerateCA("SymbolBoard CA")
		if err != nil {
			return fmt.Errorf("generate CA: %w", err)
		}
		if err := ca.Write(dir, "ca"); err != nil {
			return err
		}
	}
	caCert, caKey, err := certgen.LoadCACredentials(caCertPath, caKeyPath)
	if err != nil {
		return err
	}

	server, err := certgen.GenerateServerCertificate(hosts, caCert, caKey)
	if err != nil {
		return fmt.Errorf("generate server cert: %w", err)
	}
	if err := server.Write(dir, "server"); err != nil {
		return err
	}

	for _, owner := range owners {
		certPEM, keyPEM, err := certgen.GenerateUserCertificate(owner, caCert, caKey)
		if err != nil {
			return fmt.Errorf("generate cert for %s: %w", owner, err)
		}
		if err := (certgen.Credentials{CertPEM: certPEM, KeyPEM: keyPEM}).Write(dir, owner); err != nil {
			return err
		}
	}
	return nil
}
