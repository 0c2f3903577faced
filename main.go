// Package main provides the entry point for VPN Detector.
// VPN Detector prints the public IP address and location of this machine
// and whether its traffic appears to go through a VPN, based on three
// local probes: network interfaces, bound sockets and the routing table.
//
// Usage:
//
//	vpn-detector [--json] [--offline] [--verbose]
//	vpn-detector watch [--interval 30s] [--notify] [--headless]
//	vpn-detector token set|clear|status
//	vpn-detector config init|show
//	vpn-detector doctor
//
// Environment:
//
//	IPINFO_TOKEN  optional token for the IP information service
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yllada/vpn-detector/cli"
	"github.com/yllada/vpn-detector/common"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	setupSignalHandler(cancel)

	code := cli.Main(ctx, cli.BuildInfo{
		Version: appVersion,
		Commit:  commitSHA,
		Date:    buildTime,
	}, os.Args[1:], os.Stderr)

	cancel()
	os.Exit(code)
}

// setupSignalHandler cancels the context on SIGINT/SIGTERM so that running
// probes and the watch loop shut down cleanly.
func setupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		common.LogInfo("Received signal %v, shutting down", sig)
		cancel()
	}()
}
