package config

import (
	"flag"
	"os"
	"time"

	"github.com/mpodriezov/boardpack/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the BoardPack API (default from Config)
//	-f string   data directory for the local staging store
//	-m int      local store capacity, bytes
//	-i int      online check interval in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-m", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "base URL of the BoardPack API")
	fs.StringVar(&cfg.DataDir, "f", cfg.DataDir, "data directory for the local staging store")
	fs.Int64Var(&cfg.MaxStoreBytes, "m", cfg.MaxStoreBytes, "local store capacity in bytes")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
