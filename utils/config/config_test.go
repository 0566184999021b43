package config

import (
	"encoding/json"
	"os"
	"testing"
)

type TestConfig struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestLoadConfig(t *testing.T) {
	tempFile, err := os.CreateTemp("", "testconfig")
	if err != nil {
		t.Fatalf("Failed to create temporary file: %v", err)
	}
	defer os.Remove(tempFile.Name())

	validConfig := TestConfig{Name: "test", Value: 123}
	json.NewEncoder(tempFile).Encode(validConfig)
	tempFile.Close()

	var config *TestConfig
	err = LoadConfig(tempFile.Name(), &config)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if config == nil || *config != validConfig {
		t.Errorf("Expected config to be %v, got: %v", validConfig, config)
	}
}

func TestLoadConfig_ThrowError(t *testing.T) {
	err := LoadConfig("nonexistent.json", &TestConfig{})
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestLoadConfig_UnknownField(t *testing.T) {
	tempFile, err := os.CreateTemp("", "testconfig")
	if err != nil {
		t.Fatalf("Failed to create temporary file: %v", err)
	}
	defer os.Remove(tempFile.Name())

	tempFile.WriteString(`{"name": "test", "valor": 1}`)
	tempFile.Close()

	if err := LoadConfig(tempFile.Name(), &TestConfig{}); err == nil {
		t.Error("Expected error for unknown field, got nil")
	}
}

func TestInitConfig_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected InitConfig to panic for non-existent file")
		}
	}()
	InitConfig("nonexistent.json", &TestConfig{})
}
