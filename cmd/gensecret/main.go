package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

const defaultKeyBytesLen = 32

// Print random hex key to use as SECRET_KEY
func main() {
	size := pflag.IntP("bytes", "n", defaultKeyBytesLen, "Key length in bytes")
	pflag.Parse()

	key, err := generate(*size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(key)
}

func generate(size int) (string, error) {
	if size < 16 {
		return "", fmt.Errorf("key of %d bytes is too short, use at least 16", size)
	}

	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
