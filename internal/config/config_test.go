package config

import (
	"os"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Success", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("JWT_SECRET", "secret")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.GeminiAPIKey != "gemini_key" {
			t.Errorf("Expected GeminiAPIKey to be 'gemini_key', got '%s'", cfg.GeminiAPIKey)
		}
		if cfg.JWTSecret != "secret" {
			t.Errorf("Expected JWTSecret to be 'secret', got '%s'", cfg.JWTSecret)
		}
		if cfg.GeminiModel != "gemini-2.5-flash" {
			t.Errorf("Expected default model, got '%s'", cfg.GeminiModel)
		}
		if cfg.DatabasePath != "data/nutriplan.db" {
			t.Errorf("Expected default database path, got '%s'", cfg.DatabasePath)
		}
		if cfg.Port != "8080" {
			t.Errorf("Expected default port 8080, got '%s'", cfg.Port)
		}
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		setEnv("JWT_SECRET", "secret")
		os.Unsetenv("GEMINI_API_KEY")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GEMINI_API_KEY, got nil")
		}
		expectedError := "GEMINI_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("MissingJWTSecret", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		os.Unsetenv("JWT_SECRET")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing JWT_SECRET, got nil")
		}
		expectedError := "JWT_SECRET environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("JWT_SECRET", "secret")
		setEnv("GEMINI_MODEL", "gemini-2.5-pro")
		setEnv("PORT", "9090")
		setEnv("ALLOWED_ORIGINS", "http://localhost:5173, https://nutriplan.example")
		setEnv("TELEGRAM_ALLOWED_USER_IDS", "123, 456")
		setEnv("TELEGRAM_ADMIN_ID", "123")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.GeminiModel != "gemini-2.5-pro" {
			t.Errorf("Expected model override, got '%s'", cfg.GeminiModel)
		}
		if cfg.Port != "9090" {
			t.Errorf("Expected port 9090, got '%s'", cfg.Port)
		}
		if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://nutriplan.example" {
			t.Errorf("Unexpected allowed origins: %v", cfg.AllowedOrigins)
		}
		if len(cfg.TelegramAllowedUserIDs) != 2 || cfg.TelegramAllowedUserIDs[0] != 123 {
			t.Errorf("Unexpected allowed user IDs: %v", cfg.TelegramAllowedUserIDs)
		}
		if cfg.AdminTelegramID != 123 {
			t.Errorf("Expected admin ID 123, got %d", cfg.AdminTelegramID)
		}
	})

	t.Run("InvalidUserIDs", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("JWT_SECRET", "secret")
		setEnv("TELEGRAM_ALLOWED_USER_IDS", "123,not-a-number")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for invalid TELEGRAM_ALLOWED_USER_IDS, got nil")
		}
	})
}
