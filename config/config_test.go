package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/rbaliyan/groupware"
	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/contact"
	"github.com/rbaliyan/groupware/secret"
	"github.com/rbaliyan/groupware/store/cached"
	"github.com/rbaliyan/groupware/store/memory"
	"github.com/rbaliyan/groupware/store/sqlite"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: sqlite
  dsn: /var/lib/groupware/data.db
cache:
  redis_addr: localhost:6379
  ttl: 30s
secrets:
  mode: passphrase
  passphrase: correct horse
limits:
  max_query: 200
  collation: de
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := Default()
	want.Store.Driver = DriverSQLite
	want.Store.DSN = "/var/lib/groupware/data.db"
	want.Cache.RedisAddr = "localhost:6379"
	want.Cache.TTL = 30 * time.Second
	want.Secrets = SecretConfig{Mode: SecretsPassphrase, Passphrase: "correct horse"}
	want.Limits.MaxQuery = 200
	want.Limits.Collation = "de"
	want.Log = LogConfig{Level: "debug", Format: "json"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: sqlite
  dsn: file.db
`)
	t.Setenv("GROUPWARE_STORE_DSN", "override.db")
	t.Setenv("GROUPWARE_LIMITS_BULK_CONCURRENCY", "7")
	t.Setenv("GROUPWARE_PROBE_TIMEOUT", "3s")
	t.Setenv("GROUPWARE_TELEMETRY_TRACING", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != DriverSQLite {
		t.Errorf("expected driver from file, got %q", cfg.Store.Driver)
	}
	if cfg.Store.DSN != "override.db" {
		t.Errorf("expected DSN from env, got %q", cfg.Store.DSN)
	}
	if cfg.Limits.BulkConcurrency != 7 {
		t.Errorf("expected bulk concurrency 7, got %d", cfg.Limits.BulkConcurrency)
	}
	if cfg.Probe.Timeout != 3*time.Second {
		t.Errorf("expected probe timeout 3s, got %v", cfg.Probe.Timeout)
	}
	if !cfg.Telemetry.Tracing {
		t.Error("expected tracing enabled from env")
	}
}

func TestLoadInvalid(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: cassandra\n")
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	path = writeConfig(t, "store: [not, a, map\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"sqlite without dsn", func(c *Config) { c.Store.Driver = DriverSQLite }, "store.dsn"},
		{"unknown images", func(c *Config) { c.Images.Backend = "ftp" }, "image backend"},
		{"s3 without bucket", func(c *Config) { c.Images.Backend = ImagesS3 }, "images.bucket"},
		{"passphrase missing", func(c *Config) { c.Secrets.Mode = SecretsPassphrase }, "secrets.passphrase"},
		{"unknown secrets", func(c *Config) { c.Secrets.Mode = "vault" }, "secrets mode"},
		{"events without redis", func(c *Config) { c.Events.Redis = true }, "events.redis"},
		{"bad collation", func(c *Config) { c.Limits.Collation = "not a tag!" }, "collation"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in %q", tt.want, err.Error())
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Store.Driver = DriverPostgres
	cfg.Store.DSN = "postgres://localhost/groupware"
	cfg.Images = ImageConfig{Backend: ImagesGCS, Bucket: "avatars", Prefix: "contacts"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Store.DSN != cfg.Store.DSN || got.Images.Bucket != "avatars" || got.Images.Backend != ImagesGCS {
		t.Errorf("unexpected round trip: %+v", got)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log = LogConfig{Level: "warn", Format: "json"}
	logger := cfg.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"key":"value"`) {
		t.Errorf("expected JSON record, got %q", out)
	}
}

func quietConfigLogger() *Config {
	cfg := Default()
	cfg.Log.Level = "error"
	return cfg
}

func TestOpenMemory(t *testing.T) {
	ctx := context.Background()
	cfg := quietConfigLogger()
	rt, err := Open(ctx, cfg, cfg.Logger(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close(ctx)

	if _, ok := rt.Contacts.(*memory.Store); !ok {
		t.Errorf("expected memory store, got %T", rt.Contacts)
	}
	if any(rt.Accounts) != any(rt.Contacts) {
		t.Error("expected one backend for contacts and accounts")
	}
	if rt.Images != nil || rt.Redis != nil {
		t.Error("expected no image store and no redis")
	}

	svc, err := rt.NewService()
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer svc.Close(ctx)

	book := svc.AddressBook("user1")
	if _, err := book.Create(ctx, &contact.Contact{FolderID: "contacts", GivenName: "Ada"}); err != nil {
		t.Fatalf("create contact: %v", err)
	}
}

func TestOpenSQLiteWithCacheAndSealer(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := quietConfigLogger()
	cfg.Store = StoreConfig{Driver: DriverSQLite, DSN: sqlite.Memory, Timeout: 5 * time.Second}
	cfg.Cache.RedisAddr = mr.Addr()
	cfg.Secrets = SecretConfig{Mode: SecretsPassphrase, Passphrase: "test passphrase"}
	cfg.Limits.Collation = "sv"

	rt, err := Open(ctx, cfg, cfg.Logger(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close(ctx)

	if _, ok := rt.Accounts.(*cached.Store); !ok {
		t.Fatalf("expected cached account store, got %T", rt.Accounts)
	}
	if rt.Redis == nil {
		t.Fatal("expected redis client")
	}

	svc, err := rt.NewService(groupware.WithServiceName("config-test"))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer svc.Close(ctx)

	accounts := svc.MailAccounts("user1")
	acc := &account.Account{
		Name:           "Work",
		PrimaryAddress: "ada@example.com",
		Mail: account.ServerConfig{
			Protocol: account.ProtocolIMAP,
			Server:   "imap.example.com",
			Secure:   true,
			Login:    "ada",
			Password: "mail-secret",
		},
		Transport: account.ServerConfig{
			Protocol: account.ProtocolSMTP,
			Server:   "smtp.example.com",
			StartTLS: true,
		},
	}
	if _, err := accounts.Create(ctx, acc); err != nil {
		t.Fatalf("create account: %v", err)
	}

	stored, err := rt.Accounts.GetAccount(ctx, "user1", account.DefaultAccountID)
	if err != nil {
		t.Fatalf("get stored account: %v", err)
	}
	if !secret.IsSealed(stored.Mail.Password) {
		t.Errorf("expected sealed password at rest, got %q", stored.Mail.Password)
	}

	creds, err := accounts.Credentials(ctx, account.DefaultAccountID)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if creds.MailPassword != "mail-secret" {
		t.Errorf("expected decrypted password, got %q", creds.MailPassword)
	}
}

func TestOpenInvalid(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "cassandra"
	if _, err := Open(context.Background(), cfg, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
