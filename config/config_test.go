package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromPrecedence(t *testing.T) {
	path := writeConfig(t, `{
		"app": {"AppPort": "9000", "JWTSecret": "from-file", "AllowedOrigins": ["https://a.example"]},
		"store": {"Driver": "mongo", "MongoDatabase": "game"},
		"sessions": {"OrphanSessionMaxHours": 6},
		"log": {"Level": "debug"}
	}`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://b.example, https://c.example ,")

	c, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if c.AppPort != "9000" || c.StoreDriver != "mongo" || c.MongoDatabase != "game" || c.OrphanSessionMaxHours != 6 {
		t.Fatalf("file values lost: %+v", c)
	}
	if c.JWTSecret != "from-env" || c.LogLevel != "warn" {
		t.Fatalf("env did not override: %+v", c)
	}
	if want := []string{"https://b.example", "https://c.example"}; !reflect.DeepEqual(c.AllowedOrigins, want) {
		t.Fatalf("origins=%v", c.AllowedOrigins)
	}
	if c.DataFile != "db.json" || c.LogMaxBackups != 3 || c.GinMode != "release" {
		t.Fatalf("defaults missing: %+v", c)
	}
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	c, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if c.StoreDriver != "file" || c.AppPort != "8000" || c.OrphanSessionMaxHours != 4 {
		t.Fatalf("defaults=%+v", c)
	}
}

func TestLoadFromErrors(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadFrom(writeConfig(t, `{}`)); err == nil {
		t.Fatalf("expected missing secret error")
	}

	t.Setenv("JWT_SECRET", "s")
	if _, err := LoadFrom(writeConfig(t, `{not json`)); err == nil {
		t.Fatalf("expected invalid JSON error")
	}

	t.Setenv("REDIS_PORT", "sixty")
	if _, err := LoadFrom(writeConfig(t, `{}`)); err == nil {
		t.Fatalf("expected invalid integer error")
	}
}

func TestDialectorFor(t *testing.T) {
	c := AppConfig{StoreDriver: "postgres", DBHost: "db", DBUser: "u", DBName: "n", DBSSLMode: "disable"}
	d, err := dialectorFor(c)
	if err != nil || d.Name() != "postgres" {
		t.Fatalf("postgres: %v %v", d, err)
	}
	c.StoreDriver = "mysql"
	if d, err = dialectorFor(c); err != nil || d.Name() != "mysql" {
		t.Fatalf("mysql: %v %v", d, err)
	}
	c.StoreDriver = "file"
	if _, err := dialectorFor(c); err == nil {
		t.Fatalf("expected error for non-SQL driver")
	}
}

func TestLoadFromTLSPaths(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	path := writeConfig(t, `{"app": {"TLSCertFile": "/etc/spotd/cert.pem", "TLSKeyFile": "/etc/spotd/file.key"}}`)
	t.Setenv("TLS_KEY_FILE", "/run/secrets/key.pem")

	c, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if c.TLSCertFile != "/etc/spotd/cert.pem" || c.TLSKeyFile != "/run/secrets/key.pem" {
		t.Fatalf("tls paths = %q %q", c.TLSCertFile, c.TLSKeyFile)
	}
}
