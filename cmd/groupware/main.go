// Command groupware manages contacts and mail account descriptions from the
// command line.
//
// Usage:
//
//	groupware --config ~/.config/groupware/config.yaml contacts list
//	groupware contacts import people.vcf
//	groupware accounts add --address ada@example.com --mail imaps://imap.example.com
//	groupware accounts probe 0
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
