package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestNewProviders_EmptyEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "   "} {
		providers, err := NewProviders(context.Background(), endpoint, "test-service", false)
		if err != nil {
			t.Fatalf("NewProviders(%q): %v", endpoint, err)
		}
		if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
			t.Fatalf("NewProviders(%q): all providers should be non-nil", endpoint)
		}
		if err := providers.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown should be a no-op for empty endpoint, got: %v", err)
		}
	}
}

func TestParseEndpoint(t *testing.T) {
	testCases := []struct {
		name         string
		endpoint     string
		wantTarget   string
		wantInsecure bool
		wantErr      bool
	}{
		{"bare host port", "localhost:4317", "localhost:4317", true, false},
		{"http scheme", "http://collector:4317", "collector:4317", true, false},
		{"https scheme", "https://collector:4317", "collector:4317", false, false},
		{"path ignored", "http://collector:4317/v1/traces", "collector:4317", true, false},
		{"missing host", "http://", "", false, true},
		{"malformed", "http://[invalid", "", false, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			target, insecure, err := parseEndpoint(tc.endpoint)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseEndpoint(%q) should return error", tc.endpoint)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseEndpoint(%q): %v", tc.endpoint, err)
			}
			if target != tc.wantTarget {
				t.Errorf("target = %q, want %q", target, tc.wantTarget)
			}
			if insecure != tc.wantInsecure {
				t.Errorf("insecure = %v, want %v", insecure, tc.wantInsecure)
			}
		})
	}
}

func TestSetGlobal(t *testing.T) {
	providers, err := NewProviders(context.Background(), "", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}

	oldTracer := otel.GetTracerProvider()
	oldMeter := otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(oldTracer)
		otel.SetMeterProvider(oldMeter)
	}()

	providers.SetGlobal()

	if otel.GetTracerProvider() != providers.TracerProvider {
		t.Error("global TracerProvider should be the one from NewProviders")
	}
	if otel.GetMeterProvider() != providers.MeterProvider {
		t.Error("global MeterProvider should be the one from NewProviders")
	}
}
