// Command ventasctl is the operator CLI for the ventas ledger. It reads the
// same ANDICBLUE_* configuration as the server and works on the same tables.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"andicblue/backend/internal/bootstrap"
	"andicblue/backend/internal/config"
	"andicblue/backend/internal/service"
)

func main() {
	cmd, release := newRootCmd(openFromEnv)
	err := cmd.Execute()
	release()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// opener hands the CLI a loaded service.
type opener func(ctx context.Context, logger *zap.Logger) (*service.Service, bootstrap.Closers, error)

func openFromEnv(ctx context.Context, logger *zap.Logger) (*service.Service, bootstrap.Closers, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return bootstrap.Open(ctx, cfg, logger, nil)
}
