package main

import (
	"context"
	"os"

	"github.com/h2hsecure/entitymanager/cmd/entitymanager/apps"
)

func main() {
	rootCmd := apps.ShellCmd
	rootCmd.AddCommand(apps.JournalCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(2)
	}
}
