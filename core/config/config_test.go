package config

import (
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		checkFunc func(t *testing.T, cfg Config)
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			checkFunc: func(t *testing.T, cfg Config) {
				if cfg.DBHost != DefaultDBHost || cfg.DBPort != DefaultDBPort {
					t.Errorf("host/port = %s:%d", cfg.DBHost, cfg.DBPort)
				}
				if cfg.RowsPerFile != DefaultRowsPerFile {
					t.Errorf("RowsPerFile = %d, want %d", cfg.RowsPerFile, DefaultRowsPerFile)
				}
				if cfg.CatalogTable != DefaultCatalogTable {
					t.Errorf("CatalogTable = %q", cfg.CatalogTable)
				}
				if cfg.QRURLPrefix != "" {
					t.Errorf("QRURLPrefix = %q, want empty", cfg.QRURLPrefix)
				}
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"DB_HOST":             "db.internal",
				"DB_PORT":             "6543",
				"CODEX_ROWS_PER_FILE": "500",
				"CODEX_CATALOG_TABLE": "inventory.codes",
				"CODEX_QR_URL_PREFIX": "https://x.test/?c=",
			},
			checkFunc: func(t *testing.T, cfg Config) {
				if cfg.DBHost != "db.internal" || cfg.DBPort != 6543 {
					t.Errorf("host/port = %s:%d", cfg.DBHost, cfg.DBPort)
				}
				if cfg.RowsPerFile != 500 || cfg.CatalogTable != "inventory.codes" || cfg.QRURLPrefix != "https://x.test/?c=" {
					t.Errorf("cfg = %+v", cfg)
				}
			},
		},
		{
			name: "unparsable number keeps default",
			env:  map[string]string{"CODEX_ROWS_PER_FILE": "many"},
			checkFunc: func(t *testing.T, cfg Config) {
				if cfg.RowsPerFile != DefaultRowsPerFile {
					t.Errorf("RowsPerFile = %d", cfg.RowsPerFile)
				}
			},
		},
	}

	keys := []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_NAME", "DB_PASS", "DB_SSLMODE",
		"CODEX_ROWS_PER_FILE", "CODEX_CATALOG_TABLE", "CODEX_QR_URL_PREFIX"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range keys {
				t.Setenv(k, tt.env[k])
			}
			tt.checkFunc(t, LoadConfig())
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		DBHost: "localhost", DBPort: 5432, DBUser: "postgres", DBName: "postgres",
		RowsPerFile: 10, CatalogTable: "codes",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.DBPort = 70000 }, wantErr: "DB_PORT"},
		{name: "blank host", mutate: func(c *Config) { c.DBHost = " " }, wantErr: "DB_HOST"},
		{name: "zero rows per file", mutate: func(c *Config) { c.RowsPerFile = 0 }, wantErr: "CODEX_ROWS_PER_FILE"},
		{name: "blank catalog", mutate: func(c *Config) { c.CatalogTable = "" }, wantErr: "CODEX_CATALOG_TABLE"},
		{name: "catalog with empty part", mutate: func(c *Config) { c.CatalogTable = "inventory." }, wantErr: "CODEX_CATALOG_TABLE"},
		{name: "bad URL prefix", mutate: func(c *Config) { c.QRURLPrefix = "http://[::1" }, wantErr: "CODEX_QR_URL_PREFIX"},
		{
			name:    "every problem reported",
			mutate:  func(c *Config) { c.DBHost, c.RowsPerFile = "", 0 },
			wantErr: "CODEX_ROWS_PER_FILE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestGetConnectionString(t *testing.T) {
	cfg := Config{DBDriver: "postgres", DBUser: "u", DBPass: "p@ss", DBHost: "h", DBPort: 5432, DBName: "db", SSLMode: "disable"}
	want := "postgres://u:p%40ss@h:5432/db?sslmode=disable"
	if got := cfg.GetConnectionString(); got != want {
		t.Errorf("GetConnectionString() = %s, want %s", got, want)
	}
}
