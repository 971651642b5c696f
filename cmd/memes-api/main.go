// Package main provides the memes-api CLI, which runs the memes extension
// against a meme-generator-rs backend outside of a chat host.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
