package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testCards = "BEGIN:VCARD\r\n" +
	"VERSION:3.0\r\n" +
	"FN:Ada Lovelace\r\n" +
	"N:Lovelace;Ada;;;\r\n" +
	"EMAIL;TYPE=INTERNET:ada@example.com\r\n" +
	"END:VCARD\r\n" +
	"BEGIN:VCARD\r\n" +
	"VERSION:3.0\r\n" +
	"FN:Charles Babbage\r\n" +
	"N:Babbage;Charles;;;\r\n" +
	"EMAIL;TYPE=INTERNET:charles@example.com\r\n" +
	"END:VCARD\r\n"

// setupConfig writes a config that keeps everything in a SQLite file so
// state survives between command runs.
func setupConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := "store:\n" +
		"  driver: sqlite\n" +
		"  dsn: " + filepath.Join(dir, "groupware.db") + "\n" +
		"log:\n" +
		"  level: error\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func run(t *testing.T, config string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", config, "--user", "tester"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAccountsCommands(t *testing.T) {
	config := setupConfig(t)

	out, err := run(t, config, "accounts", "add",
		"--address", "ada@example.com",
		"--mail", "imaps://imap.example.com",
		"--transport", "smtp://smtp.example.com:587",
		"--password", "secret",
		"--unified")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Added account 0 (ada@example.com)") {
		t.Errorf("unexpected add output %q", out)
	}

	out, err = run(t, config, "accounts", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"ADDRESS", "ada@example.com", "imaps://imap.example.com:993", "smtp://smtp.example.com:587"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in list output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "secret") {
		t.Errorf("password leaked into list output:\n%s", out)
	}

	out, err = run(t, config, "accounts", "unified")
	if err != nil {
		t.Fatalf("unified: %v", err)
	}
	if !strings.Contains(out, "Accounts: 0") {
		t.Errorf("unexpected unified output:\n%s", out)
	}

	t.Run("bad url", func(t *testing.T) {
		_, err := run(t, config, "accounts", "add", "--address", "x@example.com", "--mail", "ftp://host")
		if err == nil || !strings.Contains(err.Error(), "--mail") {
			t.Errorf("expected --mail error, got %v", err)
		}
	})

	t.Run("bad id", func(t *testing.T) {
		if _, err := run(t, config, "accounts", "probe", "first"); err == nil {
			t.Error("expected error for non-numeric id")
		}
	})
}

func TestContactsCommands(t *testing.T) {
	config := setupConfig(t)
	vcf := filepath.Join(t.TempDir(), "people.vcf")
	if err := os.WriteFile(vcf, []byte(testCards), 0o600); err != nil {
		t.Fatalf("write cards: %v", err)
	}

	out, err := run(t, config, "contacts", "import", vcf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 2, skipped 0 similar, failed 0") {
		t.Errorf("unexpected import output %q", out)
	}

	out, err = run(t, config, "contacts", "import", vcf)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if !strings.Contains(out, "Imported 0, skipped 2 similar") {
		t.Errorf("expected similar cards skipped, got %q", out)
	}

	out, err = run(t, config, "contacts", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Ada Lovelace", "charles@example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in list output:\n%s", want, out)
		}
	}

	out, err = run(t, config, "contacts", "list", "--search", "babb")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "Charles Babbage") || strings.Contains(out, "Ada Lovelace") {
		t.Errorf("unexpected search output:\n%s", out)
	}

	exported := filepath.Join(t.TempDir(), "out.vcf")
	out, err = run(t, config, "contacts", "export", "-o", exported)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "Exported 2 contacts") {
		t.Errorf("unexpected export output %q", out)
	}
	data, err := os.ReadFile(exported)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if strings.Count(string(data), "BEGIN:VCARD") != 2 {
		t.Errorf("expected 2 cards in export:\n%s", data)
	}

	t.Run("missing contact", func(t *testing.T) {
		if _, err := run(t, config, "contacts", "similar", "no-such-id"); err == nil {
			t.Error("expected error for unknown contact")
		}
	})
}
