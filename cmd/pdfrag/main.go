package main

import (
	"os"

	"github.com/akolanti/pdfrag/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
