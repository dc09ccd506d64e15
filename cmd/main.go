/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/SoraChain-AI/Sora-provisioning-tool/config"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/logger"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flags override the environment
	flagSet := pflag.NewFlagSet("sora-provisioning", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Port, "port", cfg.Port, "port to listen on")
	flagSet.StringVar(&cfg.Workspace.Dir, "workspace", cfg.Workspace.Dir, "directory holding generated startup kits")
	flagSet.StringVar(&cfg.Database.Driver, "db-driver", cfg.Database.Driver, "database driver: sqlite3, postgres or memory")
	flagSet.BoolVar(&cfg.TLS.Enabled, "tls", cfg.TLS.Enabled, "serve HTTPS with a self-signed development certificate")
	debug := flagSet.Bool("debug", false, "enable debug logging and gin debug mode")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if *debug {
		cfg.LogLevel = "DEBUG"
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting Sorachain provisioning server",
		zap.String("port", cfg.Port),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("workspace", cfg.Workspace.Dir),
		zap.Bool("tls", cfg.TLS.Enabled))

	srv, err := server.NewProvisioningServer(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
