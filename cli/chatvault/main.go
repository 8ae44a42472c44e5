package main

import (
	"os"

	chatvaultcmder "github.com/papercomputeco/chatvault/cmd/chatvault"
)

func main() {
	cmd := chatvaultcmder.NewChatvaultCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
