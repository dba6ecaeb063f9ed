package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/eldtechnologies/omnidesk/internal/crypto"
)

func main() {
	password := flag.String("password", "", "Password to hash (or use stdin)")
	flag.Parse()

	pw := *password
	if pw == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "Usage: hashpw -password <password>")
			fmt.Fprintln(os.Stderr, "  Reads the password from stdin if -password not specified")
			os.Exit(1)
		}
		pw = strings.TrimRight(line, "\r\n")
	}

	hash, err := crypto.HashPassword(pw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
