package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/dbpulse/dbpulse/internal/connection"
	"github.com/dbpulse/dbpulse/pkg/config"
	"github.com/dbpulse/dbpulse/pkg/health"
	"github.com/dbpulse/dbpulse/pkg/logger"
)

var (
	Version   = "dev"     // Default version for development
	GitCommit = "unknown" // Git commit hash
	BuildTime = "unknown" // Build timestamp
)

var (
	initConfigFile = flag.String("init-config", "", "Shared init configuration file path (optional)")
	instanceFile   = flag.String("instance", "instance.yaml", "Instance configuration file path")
	versionFlag    = flag.Bool("version", false, "Show version information and exit")
)

func printVersionInfo() {
	fmt.Printf("dbpulse v%s\n", Version)
	fmt.Printf("Built: %s, from commit: %s\n", BuildTime, GitCommit)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func main() {
	flag.Parse()

	if *versionFlag {
		printVersionInfo()
		os.Exit(0)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.New("dbpulse", Version)

	initConfig := config.New()
	if *initConfigFile != "" {
		loaded, err := config.Load(*initConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load init config: %v\n", err)
			os.Exit(1)
		}
		initConfig = loaded
	}

	instance, err := config.Load(*instanceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load instance config: %v\n", err)
		os.Exit(1)
	}

	checker := health.NewChecker()
	manager := connection.NewManager(initConfig, instance, checker.Report)
	manager.SetLogger(log)

	if err := runCheckCycle(ctx, manager, instance, log); err != nil {
		log.Error("Check cycle failed: %v", err)
	}

	printCheckResults(checker)
	if checker.GetOverallStatus() == health.StatusCritical {
		os.Exit(2)
	}
}

// runCheckCycle runs one connectivity pass: validate that the monitored
// database exists, hold the default connection open for the duration of
// the cycle, and probe any additional configured databases.
func runCheckCycle(ctx context.Context, manager *connection.Manager, instance *config.Config, log *logger.Logger) error {
	exists, checkContext, err := manager.CheckDatabase(ctx)
	if err != nil {
		return err
	}
	if !exists {
		log.Warn("Database %s does not exist. Fix the problem and restart the check", checkContext)
	}

	return manager.WithDefaultConnection(ctx, "", func() error {
		for _, extra := range extraDatabases(instance) {
			manager.CheckDatabaseConns(ctx, extra)
		}
		return nil
	})
}

// extraDatabases returns the additional databases to probe, configured as
// a comma-separated list
func extraDatabases(instance *config.Config) []string {
	raw := instance.Get("extra_databases")
	if raw == "" {
		return nil
	}
	var dbs []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			dbs = append(dbs, name)
		}
	}
	return dbs
}

func printCheckResults(checker *health.Checker) {
	for _, check := range checker.GetAllChecks() {
		line := fmt.Sprintf("%s %s/%s", check.Status, check.Host, check.Database)
		if check.Message != "" {
			line += " " + check.Message
		}
		fmt.Println(line)
	}
}
