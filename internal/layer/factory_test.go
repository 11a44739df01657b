package layer

import (
	"errors"
	"strings"
	"testing"
)

func TestResolveSimpleEngine(t *testing.T) {
	tests := []struct {
		name        string
		engine      Engine
		accelerated bool
		want        Engine
		wantErr     bool
	}{
		{"default without backend", EngineDefault, false, EngineGeneric, false},
		{"default with backend", EngineDefault, true, EngineAccelerated, false},
		{"explicit generic with backend", EngineGeneric, true, EngineGeneric, false},
		{"explicit generic without backend", EngineGeneric, false, EngineGeneric, false},
		{"explicit accelerated with backend", EngineAccelerated, true, EngineAccelerated, false},
		{"explicit accelerated without backend", EngineAccelerated, false, 0, true},
		{"unknown engine", Engine(99), true, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveSimpleEngine("l", tt.engine, tt.accelerated)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveSimpleEngine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("resolveSimpleEngine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveConvolutionEngine(t *testing.T) {
	tests := []struct {
		name        string
		engine      Engine
		dilated     bool
		accelerated bool
		want        Engine
		wantErr     bool
	}{
		{"default dense with backend", EngineDefault, false, true, EngineAccelerated, false},
		{"default dilated with backend", EngineDefault, true, true, EngineGeneric, false},
		{"default without backend", EngineDefault, false, false, EngineGeneric, false},
		{"explicit generic dilated", EngineGeneric, true, true, EngineGeneric, false},
		{"explicit accelerated dense", EngineAccelerated, false, true, EngineAccelerated, false},
		{"explicit accelerated dilated", EngineAccelerated, true, true, 0, true},
		{"explicit accelerated without backend", EngineAccelerated, false, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveConvolutionEngine("conv", tt.engine, tt.dilated, tt.accelerated)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveConvolutionEngine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("resolveConvolutionEngine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveConvolutionEngineDilationError(t *testing.T) {
	_, err := resolveConvolutionEngine("conv", EngineAccelerated, true, true)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *ConfigError", err)
	}
	if cfgErr.Layer != "conv" {
		t.Errorf("Layer = %q, want %q", cfgErr.Layer, "conv")
	}
	if !strings.Contains(cfgErr.Reason, "dilation") {
		t.Errorf("Reason = %q, should mention dilation", cfgErr.Reason)
	}
}

func TestResolvePoolingEngine(t *testing.T) {
	tests := []struct {
		name        string
		engine      Engine
		method      PoolMethod
		numTops     int
		accelerated bool
		want        Engine
		wantNotice  bool
		wantErr     bool
	}{
		{"default ave with backend", EngineDefault, PoolAve, 1, true, EngineAccelerated, false, false},
		{"default max with backend", EngineDefault, PoolMax, 1, true, EngineGeneric, false, false},
		{"default empty method with backend", EngineDefault, "", 1, true, EngineGeneric, false, false},
		{"default without backend", EngineDefault, PoolAve, 1, false, EngineGeneric, false, false},
		{"multiple tops fall back with notice", EngineDefault, PoolAve, 2, true, EngineGeneric, true, false},
		{"explicit accelerated multiple tops", EngineAccelerated, PoolAve, 2, true, EngineGeneric, true, false},
		{"explicit generic", EngineGeneric, PoolAve, 1, true, EngineGeneric, false, false},
		{"explicit accelerated without backend", EngineAccelerated, PoolAve, 1, false, 0, false, true},
		{"unknown engine", Engine(99), PoolAve, 1, true, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, notice, err := resolvePoolingEngine("pool", tt.engine, tt.method, tt.numTops, tt.accelerated)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolvePoolingEngine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got != tt.want {
				t.Errorf("resolvePoolingEngine() = %v, want %v", got, tt.want)
			}
			if (notice != "") != tt.wantNotice {
				t.Errorf("notice = %q, wantNotice %v", notice, tt.wantNotice)
			}
		})
	}
}

func TestResolveLRNImpl(t *testing.T) {
	tests := []struct {
		name        string
		engine      Engine
		region      NormRegion
		localSize   int
		accelerated bool
		want        lrnImpl
		wantNotice  bool
		wantErr     bool
	}{
		{"default across with backend", EngineDefault, NormAcrossChannels, 5, true, lrnAccelerated, false, false},
		{"default within with backend", EngineDefault, NormWithinChannel, 5, true, lrnAcceleratedWithinChannel, false, false},
		{"default without backend", EngineDefault, NormAcrossChannels, 5, false, lrnGeneric, false, false},
		{"region at the limit", EngineDefault, NormAcrossChannels, 16, true, lrnAccelerated, false, false},
		{"oversized region falls back with notice", EngineDefault, NormAcrossChannels, 17, true, lrnGeneric, true, false},
		{"explicit generic", EngineGeneric, NormAcrossChannels, 5, true, lrnGeneric, false, false},
		{"explicit accelerated oversized region", EngineAccelerated, NormAcrossChannels, 21, true, lrnGeneric, true, false},
		{"explicit accelerated without backend", EngineAccelerated, NormAcrossChannels, 5, false, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, notice, err := resolveLRNImpl("norm", tt.engine, tt.region, tt.localSize, tt.accelerated)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveLRNImpl() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got != tt.want {
				t.Errorf("resolveLRNImpl() = %v, want %v", got, tt.want)
			}
			if (notice != "") != tt.wantNotice {
				t.Errorf("notice = %q, wantNotice %v", notice, tt.wantNotice)
			}
		})
	}
}

func TestEngineMarshalText(t *testing.T) {
	tests := []struct {
		engine Engine
		text   string
	}{
		{EngineDefault, "DEFAULT"},
		{EngineGeneric, "GENERIC"},
		{EngineAccelerated, "ACCELERATED"},
	}
	for _, tt := range tests {
		got, err := tt.engine.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText() error = %v", err)
		}
		if string(got) != tt.text {
			t.Errorf("MarshalText() = %q, want %q", got, tt.text)
		}

		var e Engine
		if err := e.UnmarshalText([]byte(tt.text)); err != nil {
			t.Fatalf("UnmarshalText(%q) error = %v", tt.text, err)
		}
		if e != tt.engine {
			t.Errorf("UnmarshalText(%q) = %v, want %v", tt.text, e, tt.engine)
		}
	}

	var e Engine
	if err := e.UnmarshalText(nil); err != nil || e != EngineDefault {
		t.Errorf("UnmarshalText(\"\") = %v, %v; want EngineDefault, nil", e, err)
	}
	if err := e.UnmarshalText([]byte("FAST")); err == nil {
		t.Error("UnmarshalText should reject unknown engine names")
	}
}
