// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus"
	"github.com/topodag/topod/domain/consensus/processes/accountlockmanager"
	"github.com/topodag/topod/infrastructure/logger"
	"github.com/topodag/topod/util"
	"github.com/topodag/topod/version"
)

const (
	defaultConfigFilename   = "topod.conf"
	defaultDataDirname      = "data"
	defaultLogLevel         = "info"
	defaultLogDirname       = "logs"
	defaultLogFilename      = "topod.log"
	defaultErrLogFilename   = "topod_err.log"
	defaultDbType           = "pebble"
	defaultSimulateInterval = 100 * time.Millisecond
)

var (
	// DefaultAppDir is the default home directory for topod.
	DefaultAppDir = util.AppDataDir("topod", false)

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(DefaultAppDir, defaultLogDirname)
	knownDbTypes      = []string{"leveldb", "pebble"}
)

// Flags defines the configuration options for topod.
//
// See loadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion       bool          `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile        string        `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDir            string        `short:"b" long:"appdir" description:"Directory to store data"`
	LogDir            string        `long:"logdir" description:"Directory to log output."`
	LogLevel          string        `short:"d" long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	DbType            string        `long:"dbtype" description:"Database backend to use for the block DAG {leveldb, pebble}"`
	ResetDatabase     bool          `long:"reset-db" description:"Reset database before starting node"`
	Workers           int           `long:"workers" description:"Number of parallel transaction executor workers (1-64)"`
	NoCaches          bool          `long:"nocaches" description:"Disable the ordering caches"`
	OrderingCacheSize int           `long:"ordering-cache-size" description:"Number of entries held by each ordering cache"`
	PruningRetention  uint64        `long:"retention" description:"Number of topoheights kept above the pruning point -- Overrides the network default when set"`
	MetricsListen     string        `long:"metricslisten" description:"Serve prometheus metrics on the given interface/port (eg. 127.0.0.1:9100)"`
	Profile           string        `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
	Simulate          uint64        `long:"simulate" description:"Build and insert this many blocks from local templates (devnet and simnet only)"`
	SimulateInterval  time.Duration `long:"simulate-interval" description:"Time to wait between simulated blocks"`
	NetworkFlags
	ServiceOptions *ServiceOptions `no-flag:"true"`
}

// Config defines the configuration options for topod.
//
// See loadConfig for details on the configuration load process.
type Config struct {
	*Flags

	// DataDir is the directory of the database, namespaced per network
	DataDir string
}

// ServiceOptions defines the configuration options for the daemon as a service on
// Windows.
type ServiceOptions struct {
	ServiceCommand string `short:"s" long:"service" description:"Service command {install, remove, start, stop}"`
}

// LogFile returns the path of the main log file
func (cfg *Config) LogFile() string {
	return filepath.Join(cfg.LogDir, defaultLogFilename)
}

// ErrLogFile returns the path of the error log file
func (cfg *Config) ErrLogFile() string {
	return filepath.Join(cfg.LogDir, defaultErrLogFilename)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// validDbType returns whether or not dbType is a supported database type.
func validDbType(dbType string) bool {
	for _, knownType := range knownDbTypes {
		if dbType == knownType {
			return true
		}
	}

	return false
}

// newConfigParser returns a new command line flags parser.
func newConfigParser(cfgFlags *Flags, options flags.Options) *flags.Parser {
	parser := flags.NewParser(cfgFlags, options)
	if runtime.GOOS == "windows" {
		parser.AddGroup("Service Options", "Service Options", cfgFlags.ServiceOptions)
	}
	return parser
}

func defaultFlags() *Flags {
	workers := runtime.GOMAXPROCS(0)
	if workers > accountlockmanager.MaxThreads {
		workers = accountlockmanager.MaxThreads
	}

	return &Flags{
		ConfigFile:        defaultConfigFile,
		AppDir:            DefaultAppDir,
		LogDir:            defaultLogDir,
		LogLevel:          defaultLogLevel,
		DbType:            defaultDbType,
		Workers:           workers,
		OrderingCacheSize: consensus.DefaultOrderingCacheSize,
		SimulateInterval:  defaultSimulateInterval,
		ServiceOptions:    &ServiceOptions{},
	}
}

// LoadConfig initializes and parses the config using a config file and command
// line options.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

// loadConfig parses the given arguments on top of the config file.
//
// The configuration proceeds as follows:
// 	1) Start with a default config with sane settings
// 	2) Pre-parse the command line to check for an alternative config file
// 	3) Load configuration file overwriting defaults with any specified options
// 	4) Parse CLI options and overwrite/add any specified options
//
// The above results in topod functioning properly without any config settings
// while still allowing the user to override settings with config files and
// command line options. Command line options always take precedence.
func loadConfig(args []string) (*Config, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := *cfgFlags
	preParser := newConfigParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			return nil, err
		}
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)

	// Show the version and exit if the version flag was specified.
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	// Load additional config from file.
	parser := newConfigParser(cfgFlags, flags.Default)
	cfg := &Config{
		Flags: cfgFlags,
	}
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); !ok || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, err
	}

	funcName := "loadConfig"
	cfg.AppDir = cleanAndExpandPath(cfg.AppDir)

	// Create the home directory if it doesn't already exist.
	err = os.MkdirAll(cfg.AppDir, 0700)
	if err != nil {
		// Show a nicer error message if it's because a symlink is
		// linked to a directory that does not exist (probably because
		// it's not mounted).
		var pathErr *os.PathError
		if errors.As(err, &pathErr) && os.IsExist(err) {
			if link, lerr := os.Readlink(pathErr.Path); lerr == nil {
				str := "is symlink %s -> %s mounted?"
				err = errors.Errorf(str, pathErr.Path, link)
			}
		}

		str := "%s: Failed to create home directory: %s"
		err := errors.Errorf(str, funcName, err)
		fmt.Fprintln(os.Stderr, err)
		return nil, err
	}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	// Append the network type to the data directory so it is "namespaced"
	// per network. All data is specific to a network, so namespacing the
	// data directory means each individual piece of serialized data does
	// not have to worry about changing names per network and such.
	cfg.DataDir = filepath.Join(cfg.AppDir, defaultDataDirname, cfg.NetParams().Name)

	// Append the network type to the log directory so it is "namespaced"
	// per network in the same fashion as the data directory.
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.NetParams().Name)

	// Special show command to list supported subsystems and exit.
	if cfg.LogLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	// Validate database type.
	if !validDbType(cfg.DbType) {
		str := "%s: The specified database type [%s] is invalid -- " +
			"supported types %s"
		err := errors.Errorf(str, funcName, cfg.DbType, knownDbTypes)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	if cfg.Workers < 1 || cfg.Workers > accountlockmanager.MaxThreads {
		str := "%s: The number of workers must be between 1 and %d -- parsed [%d]"
		err := errors.Errorf(str, funcName, accountlockmanager.MaxThreads, cfg.Workers)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	if cfg.OrderingCacheSize < 0 {
		str := "%s: The ordering cache size may not be negative -- parsed [%d]"
		err := errors.Errorf(str, funcName, cfg.OrderingCacheSize)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}
	if cfg.NoCaches {
		cfg.OrderingCacheSize = 0
	}

	if cfg.PruningRetention != 0 {
		cfg.ActiveNetParams.PruningRetention = cfg.PruningRetention
	}

	if cfg.Simulate > 0 && !cfg.ActiveNetParams.EnableSimulation {
		str := "%s: --simulate is only allowed on devnet and simnet"
		err := errors.Errorf(str, funcName)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	// Validate profile port number
	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			str := "%s: The profile port must be between 1024 and 65535"
			err := errors.Errorf(str, funcName)
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
	}

	return cfg, nil
}
