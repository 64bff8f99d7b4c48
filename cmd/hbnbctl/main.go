// Command hbnbctl runs maintenance tasks against the HBnB database:
// migrations, seeding, admin management and event tailing.
package main

import (
	"fmt"
	"os"

	"hbnb/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(config.LoadConfig).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
