package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != "dynamodb" {
		t.Errorf("expected default driver dynamodb, got %q", cfg.Storage.Driver)
	}
	if cfg.Dynamo.TableName != "tasks-table" {
		t.Errorf("expected default table tasks-table, got %q", cfg.Dynamo.TableName)
	}
	if cfg.Storage.DefaultLimit != 50 {
		t.Errorf("expected default limit 50, got %d", cfg.Storage.DefaultLimit)
	}
	if cfg.Blob.PresignTTL != time.Hour {
		t.Errorf("expected presign ttl 1h, got %v", cfg.Blob.PresignTTL)
	}
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  read_timeout: 5s
storage:
  driver: memory
queue:
  driver: kafka
  kafka_brokers: "k1:9092,k2:9092"
auth:
  allowed_origins: ["http://a", "http://b"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server config not applied: %+v", cfg.Server)
	}
	if cfg.Storage.Driver != "memory" || cfg.Queue.Driver != "kafka" {
		t.Errorf("drivers not applied: storage=%q queue=%q", cfg.Storage.Driver, cfg.Queue.Driver)
	}
	if len(cfg.Auth.AllowedOrigins) != 2 {
		t.Errorf("expected 2 origins, got %v", cfg.Auth.AllowedOrigins)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: memory\n")
	t.Setenv("TASKS_STORAGE_DRIVER", "postgres")
	t.Setenv("TASKS_DYNAMO_TABLE_NAME", "other")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("expected env override postgres, got %q", cfg.Storage.Driver)
	}
	if cfg.Dynamo.TableName != "other" {
		t.Errorf("expected env override table, got %q", cfg.Dynamo.TableName)
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: redis\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	want := "host=h port=1 user=u password=p dbname=n sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
