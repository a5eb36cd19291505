package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q, want :8000", cfg.ListenAddr)
	}
	if cfg.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", cfg.Symbol)
	}
	if cfg.Interval != "1day" {
		t.Errorf("Interval = %q, want 1day", cfg.Interval)
	}
	if cfg.InitialCapital != 100000 {
		t.Errorf("InitialCapital = %v, want 100000", cfg.InitialCapital)
	}
	if cfg.MaxPositionSize != 0.2 || cfg.StopLossPct != 0.05 || cfg.TakeProfitPct != 0.10 || cfg.MaxDrawdownPct != 0.20 {
		t.Errorf("risk defaults = %v/%v/%v/%v, want 0.2/0.05/0.1/0.2",
			cfg.MaxPositionSize, cfg.StopLossPct, cfg.TakeProfitPct, cfg.MaxDrawdownPct)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, want disable", cfg.DBSSLMode)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("SYMBOL", "MSFT")
	t.Setenv("REQUEST_TIMEOUT", "5")
	t.Setenv("INITIAL_CAPITAL", "50000")
	t.Setenv("STOP_LOSS_PCT", "0.03")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q, want :9999", cfg.ListenAddr)
	}
	if cfg.Symbol != "MSFT" {
		t.Errorf("Symbol = %q, want MSFT", cfg.Symbol)
	}
	if cfg.RequestTimeout != 5 {
		t.Errorf("RequestTimeout = %d, want 5", cfg.RequestTimeout)
	}
	if cfg.InitialCapital != 50000 {
		t.Errorf("InitialCapital = %v, want 50000", cfg.InitialCapital)
	}
	if cfg.StopLossPct != 0.03 {
		t.Errorf("StopLossPct = %v, want 0.03", cfg.StopLossPct)
	}
}

func TestLoadMalformedNumbersFallBack(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "not-a-number")
	t.Setenv("INITIAL_CAPITAL", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.RequestTimeout != 30 {
		t.Errorf("RequestTimeout = %d, want default 30", cfg.RequestTimeout)
	}
	if cfg.InitialCapital != 100000 {
		t.Errorf("InitialCapital = %v, want default 100000", cfg.InitialCapital)
	}
}
