package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "DB_DRIVER", "BLOCK_CHECK_FAIL_OPEN", "API_TIMEOUT", "ROLES_FROM_DB", "REDIS_ADDR"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Mode != ModeOffline || c.DBDriver != "sqlite" || c.HTTPAddr != ":8080" {
		t.Errorf("unexpected defaults %+v", c)
	}
	if c.BlockCheckFailOpen {
		t.Error("block check must fail closed by default")
	}
	if c.RolesFromDB || c.RedisAddr != "" {
		t.Error("offline mode keeps role lookups and redis off")
	}
	if c.APITimeout != 15*time.Second {
		t.Errorf("unexpected timeout %v", c.APITimeout)
	}
	if !reflect.DeepEqual(c.CORSOrigins(), c.CORSOriginsOffline) {
		t.Error("offline mode should use offline origins")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("BLOCK_CHECK_FAIL_OPEN", "yes")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")
	c := FromEnv()
	if !c.BlockCheckFailOpen || c.APITimeout != 3*time.Second || c.RedisDB != 2 || !c.RolesFromDB {
		t.Errorf("overrides not applied: %+v", c)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(c.CORSOrigins(), want) {
		t.Errorf("got origins %v", c.CORSOrigins())
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("REPORT_DIR=/tmp/informes\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REPORT_DIR", "")
	os.Unsetenv("REPORT_DIR")
	if c := Load(path); c.ReportDir != "/tmp/informes" {
		t.Errorf("expected value from .env, got %q", c.ReportDir)
	}
}
