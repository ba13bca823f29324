// Command hashpw prints the argon2id hash for HOTEL_ADMIN_PASSWORD_HASH.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/selvamresidency/hotel-backend/pkg/config"
	"github.com/selvamresidency/hotel-backend/pkg/security"
)

func main() {
	generate := flag.Bool("generate", false, "generate a random password and print it with its hash")
	length := flag.Int("length", 16, "length of a generated password")
	flag.Parse()

	_ = godotenv.Load()

	var params config.PasswordConfig
	if err := envconfig.Process(config.EnvPrefix, &params); err != nil {
		fmt.Fprintf(os.Stderr, "parsing argon settings: %v\n", err)
		os.Exit(1)
	}

	var password string
	switch {
	case *generate:
		generated, err := security.GenerateTempPassword(*length)
		if err != nil {
			fmt.Fprintf(os.Stderr, "generating password: %v\n", err)
			os.Exit(1)
		}
		password = generated
		fmt.Println("password:", password)
	case flag.NArg() > 0:
		password = flag.Arg(0)
	default:
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "usage: hashpw [-generate] [password] (or pipe the password on stdin)")
			os.Exit(1)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if password == "" {
		fmt.Fprintln(os.Stderr, "password must not be empty")
		os.Exit(1)
	}

	hash, err := security.HashPassword(password, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashing password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
