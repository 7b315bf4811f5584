// Command dbdeck manages SQLite database files from the terminal.
package main

import (
	"os"

	"github.com/dbdeck/dbdeck/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
