package node

import "testing"

func TestNormalizePeers(t *testing.T) {
	got := NormalizePeers("127.0.0.1:8333, 127.0.0.1:8334", "127.0.0.1:8333", " ", "10.0.0.1:8333")
	want := []string{"127.0.0.1:8333", "127.0.0.1:8334", "10.0.0.1:8333"}
	if len(got) != len(want) {
		t.Fatalf("len=%d want=%d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("at %d got=%q want=%q", i, got[i], want[i])
		}
	}
}

func TestValidateConfigOK(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Connect = []string{"127.0.0.1:8333"}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateConfigRejectsBadPeer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Connect = []string{"bad-peer"}
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected error")
	}
}

func TestConfigFromMap_DeepMergeAndDefaults(t *testing.T) {
	var warned []string
	cfg, err := ConfigFromMap(map[string]interface{}{
		"max": map[string]interface{}{
			"connections": 16,
		},
		"intervals": map[string]interface{}{
			"addrs": 60,
		},
		"dns":           false,
		"totally_bogus": "nope",
	}, func(key string) { warned = append(warned, key) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MaxConnections != 16 {
		t.Fatalf("max.connections not merged: got %d", cfg.MaxConnections)
	}
	// Untouched max fields keep their defaults.
	if cfg.MaxQueue != DefaultConfig().MaxQueue {
		t.Fatalf("max.queue should keep default, got %d", cfg.MaxQueue)
	}
	if cfg.IntervalAddrs != 60 {
		t.Fatalf("intervals.addrs not merged: got %d", cfg.IntervalAddrs)
	}
	if cfg.IntervalQueue != DefaultConfig().IntervalQueue {
		t.Fatalf("intervals.queue should keep default, got %d", cfg.IntervalQueue)
	}
	if cfg.DNS {
		t.Fatalf("dns override not applied")
	}
	if len(warned) != 1 || warned[0] != "totally_bogus" {
		t.Fatalf("expected exactly one warning for totally_bogus, got %v", warned)
	}
}

func TestConfigFromMap_RejectsWrongType(t *testing.T) {
	_, err := ConfigFromMap(map[string]interface{}{
		"dns": "yes",
	}, nil)
	if err == nil {
		t.Fatalf("expected type error")
	}
}
