package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/topodag/topod/domain/dagconfig"
)

func testArgs(t *testing.T, args ...string) []string {
	appDir := t.TempDir()
	return append([]string{
		"--appdir", appDir,
		"--logdir", filepath.Join(appDir, "logs"),
		"--configfile", filepath.Join(appDir, "missing.conf"),
	}, args...)
}

func TestLoadConfigDefaults(t *testing.T) {
	args := testArgs(t)
	cfg, err := loadConfig(args)
	if err != nil {
		t.Fatalf("loadConfig: %+v", err)
	}

	if cfg.NetParams().Name != dagconfig.MainnetParams.Name {
		t.Fatalf("expected the default network to be %s, got %s", dagconfig.MainnetParams.Name, cfg.NetParams().Name)
	}
	if cfg.DbType != defaultDbType {
		t.Fatalf("expected db type %s, got %s", defaultDbType, cfg.DbType)
	}
	if cfg.Workers < 1 || cfg.Workers > 64 {
		t.Fatalf("unexpected default worker count %d", cfg.Workers)
	}
	expectedDataDir := filepath.Join(args[1], defaultDataDirname, dagconfig.MainnetParams.Name)
	if cfg.DataDir != expectedDataDir {
		t.Fatalf("expected data dir %s, got %s", expectedDataDir, cfg.DataDir)
	}
	if !strings.HasSuffix(cfg.LogFile(), filepath.Join(dagconfig.MainnetParams.Name, defaultLogFilename)) {
		t.Fatalf("log file %s is not namespaced by network", cfg.LogFile())
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "multiple networks", args: []string{"--devnet", "--simnet"}},
		{name: "unknown db type", args: []string{"--dbtype", "ffldb"}},
		{name: "no workers", args: []string{"--workers", "0"}},
		{name: "too many workers", args: []string{"--workers", "65"}},
		{name: "negative cache size", args: []string{"--ordering-cache-size=-1"}},
		{name: "simulation on testnet", args: []string{"--testnet", "--simulate", "10"}},
		{name: "bad profile port", args: []string{"--profile", "80"}},
		{name: "override outside devnet", args: []string{"--simnet", "--override-dag-params-file", "params.json"}},
	}

	for _, test := range tests {
		_, err := loadConfig(testArgs(t, test.args...))
		if err == nil {
			t.Fatalf("%s: expected an error", test.name)
		}
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(testArgs(t, "--simnet", "--nocaches", "--retention", "50", "--simulate", "5",
		"--workers", "4", "--dbtype", "leveldb"))
	if err != nil {
		t.Fatalf("loadConfig: %+v", err)
	}

	if cfg.OrderingCacheSize != 0 {
		t.Fatalf("--nocaches should zero the ordering cache size, got %d", cfg.OrderingCacheSize)
	}
	if cfg.ActiveNetParams.PruningRetention != 50 {
		t.Fatalf("expected retention 50, got %d", cfg.ActiveNetParams.PruningRetention)
	}
	if dagconfig.SimnetParams.PruningRetention == 50 {
		t.Fatalf("the retention override leaked into the registered simnet params")
	}
	if cfg.Simulate != 5 || cfg.Workers != 4 || cfg.DbType != "leveldb" {
		t.Fatalf("unexpected flags %+v", cfg.Flags)
	}
}

func TestConfigFileIsOverriddenByCommandLine(t *testing.T) {
	appDir := t.TempDir()
	configFile := filepath.Join(appDir, "topod.conf")
	err := os.WriteFile(configFile, []byte("[Application Options]\nworkers=3\ndbtype=leveldb\ndevnet=true\n"), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}

	cfg, err := loadConfig([]string{"--appdir", appDir, "--configfile", configFile, "--workers", "7"})
	if err != nil {
		t.Fatalf("loadConfig: %+v", err)
	}
	if cfg.Workers != 7 {
		t.Fatalf("the command line should override the config file, got %d workers", cfg.Workers)
	}
	if cfg.DbType != "leveldb" {
		t.Fatalf("expected the config file db type, got %s", cfg.DbType)
	}
	if cfg.NetParams().Name != dagconfig.DevnetParams.Name {
		t.Fatalf("expected devnet from the config file, got %s", cfg.NetParams().Name)
	}
}

func TestOverrideDAGParams(t *testing.T) {
	appDir := t.TempDir()
	paramsFile := filepath.Join(appDir, "params.json")
	err := os.WriteFile(paramsFile, []byte(`{"k": 3, "maxBlockParents": 4, "pruningRetention": 20,
		"timestampDeviationToleranceInMilliSeconds": 5000}`), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}

	cfg, err := loadConfig(testArgs(t, "--devnet", "--override-dag-params-file", paramsFile))
	if err != nil {
		t.Fatalf("loadConfig: %+v", err)
	}
	params := cfg.ActiveNetParams
	if params.K != 3 || params.MaxBlockParents != 4 || params.PruningRetention != 20 {
		t.Fatalf("params were not overridden: %+v", params)
	}
	if params.TimestampDeviationTolerance.Seconds() != 5 {
		t.Fatalf("expected a 5s timestamp tolerance, got %s", params.TimestampDeviationTolerance)
	}
	if dagconfig.DevnetParams.K == 3 {
		t.Fatalf("the override leaked into the registered devnet params")
	}

	err = os.WriteFile(paramsFile, []byte(`{"mergeSetSizeLimit": 0}`), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	_, err = loadConfig(testArgs(t, "--devnet", "--override-dag-params-file", paramsFile))
	if err == nil {
		t.Fatalf("a zero merge set size limit should be rejected")
	}
}
