package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("coursemate-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Recommend.MaxSpots != 3 {
		t.Errorf("expected max_spots 3, got %d", cfg.Recommend.MaxSpots)
	}
	if cfg.Recommend.DefaultLat != 37.5665 || cfg.Recommend.DefaultLng != 126.9780 {
		t.Errorf("unexpected default location %f,%f", cfg.Recommend.DefaultLat, cfg.Recommend.DefaultLng)
	}
	if len(cfg.Recommend.DefaultTags) != 6 {
		t.Errorf("expected 6 default tags, got %v", cfg.Recommend.DefaultTags)
	}
	if cfg.Telemetry.ServiceName != "coursemate-test" {
		t.Errorf("expected service name from argument, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("COURSEMATE_RECOMMEND_MAX_SPOTS", "5")
	t.Setenv("COURSEMATE_DATABASE_DRIVER", "memory")

	cfg, err := Load("coursemate-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Recommend.MaxSpots != 5 {
		t.Errorf("expected max_spots 5, got %d", cfg.Recommend.MaxSpots)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("expected memory driver, got %s", cfg.Database.Driver)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: 0, ReadTimeout: 1, WriteTimeout: 1},
		Database:  DatabaseConfig{Driver: "oracle"},
		NATS:      NATSConfig{URL: "nats://x"},
		Valkey:    ValkeyConfig{Addr: "x"},
		Recommend: RecommendConfig{MaxSpots: 0, DefaultLat: 91, DefaultTags: []string{"a"}},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "database.driver", "recommend.max_spots", "recommend.default_lat"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got: %v", want, err)
		}
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, DBName: "db", SSLMode: "disable"}
	if got := d.DSN(); got != "postgres://u:p@h:5432/db?sslmode=disable" {
		t.Errorf("unexpected DSN %s", got)
	}
}
