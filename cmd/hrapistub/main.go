// hrapistub serves the in-memory development API on its own, for use
// while pointing the console or other clients at a local backend.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hrconsole/internal/cli"
	"hrconsole/internal/config"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := config.FromEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.RunStub(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}
