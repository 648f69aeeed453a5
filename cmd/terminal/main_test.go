package main

import (
	"testing"

	"tokobesi/terminal/internal/config"
)

func TestValidateSecurityConfigAllowsUnsetPIN(t *testing.T) {
	if err := validateSecurityConfig(config.Config{}); err != nil {
		t.Fatalf("expected unset supervisor pin to pass, got %v", err)
	}
}

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	for _, pin := range []string{"1234", "123456", "987654", "444444", "12ab56"} {
		if err := validateSecurityConfig(config.Config{SupervisorPIN: pin}); err == nil {
			t.Fatalf("expected weak pin %q to be rejected", pin)
		}
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	if err := validateSecurityConfig(config.Config{SupervisorPIN: "739154"}); err != nil {
		t.Fatalf("expected strong pin to pass, got %v", err)
	}
}

func TestValidateSecurityConfigRejectsPatterns(t *testing.T) {
	cases := map[string]config.Config{
		"two digits only":    {SupervisorPIN: "121212"},
		"repeated half":      {SupervisorPIN: "839839"},
		"long descending":    {SupervisorPIN: "98765432"},
		"inside terminal id": {SupervisorPIN: "582914", TerminalID: "kasir-582914"},
	}
	for name, cfg := range cases {
		if err := validateSecurityConfig(cfg); err == nil {
			t.Fatalf("%s: expected pin %q to be rejected", name, cfg.SupervisorPIN)
		}
	}
}
