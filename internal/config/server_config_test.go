package config_test

import (
	"encoding/json"
	"testing"

	"github.com/agoravoting/election-orchestra/internal/config"
)

func TestPrintServiceEnv(t *testing.T) {
	config := config.DefaultServiceConfigFromEnv()
	_, err := json.MarshalIndent(config, "", "  ")

	if err != nil {
		t.Fatal(err)
	}
}

func TestDatabaseConnectionString(t *testing.T) {
	db := config.Database{
		Host:     "localhost",
		Port:     5432,
		Username: "orchestra",
		Password: "secret",
		Database: "orchestra",
		AdditionalParams: map[string]string{
			"sslmode": "disable",
		},
	}

	want := "host=localhost port=5432 user=orchestra password=secret dbname=orchestra sslmode=disable"
	if got := db.ConnectionString(); got != want {
		t.Errorf("unexpected connection string: got %q, want %q", got, want)
	}
}
