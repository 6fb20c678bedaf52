// pairs is a memory card game for the terminal, with a local score history
// and an optional shared ranking server.
//
// Usage:
//
//	pairs play             - Play a game
//	pairs history          - Show the local score history
//	pairs ranking          - Show the shared ranking
//	pairs serve            - Run the ranking server (and optionally SSH play)
//	pairs token <player>   - Mint a write token for a player
//	pairs difficulties     - List the difficulty levels
package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const releaseVersion = "1.0.0"

func main() {
	_ = godotenv.Load()
	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}
