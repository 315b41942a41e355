// Command ragchat serves the therapeutic RAG chat API and offers one-shot
// CLI access to the same pipeline.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
