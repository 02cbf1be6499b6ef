package log

import (
	"bytes"
	"context"
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// createTestLogger builds a LogHelper writing into an in-memory buffer
func createTestLogger() (*LogHelper, *bytes.Buffer) {
	buf := &bytes.Buffer{}

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:  "msg",
		LevelKey:    "level",
		TimeKey:     "time",
		EncodeLevel: zapcore.LowercaseLevelEncoder,
		EncodeTime:  zapcore.ISO8601TimeEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(buf),
		zapcore.DebugLevel,
	)

	zapLogger := zap.New(core)
	kratosLogger := NewKratosAdapter(zapLogger)
	helper := NewLogHelper(kratosLogger)

	return helper, buf
}

func TestNewLogHelper(t *testing.T) {
	zapLogger := zap.NewNop()
	kratosLogger := NewKratosAdapter(zapLogger)
	helper := NewLogHelper(kratosLogger)

	if helper == nil {
		t.Fatal("NewLogHelper returned nil")
	}
}

func TestLogHelper_API(t *testing.T) {
	helper, buf := createTestLogger()

	helper.API("billing lookup", "endpoint", "/api/billings/current")

	output := buf.String()
	if output == "" {
		t.Error("API log produced no output")
	}

	if !contains(output, "api") {
		t.Error("API log missing 'api' type field")
	}
}

func TestLogHelper_Request(t *testing.T) {
	helper, buf := createTestLogger()

	helper.Request("POST", "/api/products/change", 200, 150)

	output := buf.String()
	if output == "" {
		t.Error("Request log produced no output")
	}

	if !contains(output, "POST") {
		t.Error("Request log missing method")
	}
	if !contains(output, "200") {
		t.Error("Request log missing status code")
	}
}

func TestLogHelper_External(t *testing.T) {
	helper, buf := createTestLogger()

	helper.External("provisioning call completed", "endpoint", "billing-info")

	output := buf.String()
	if output == "" {
		t.Error("External log produced no output")
	}

	if !contains(output, "external") {
		t.Error("External log missing 'external' type field")
	}
}

func TestLogHelper_Breaker(t *testing.T) {
	helper, buf := createTestLogger()

	helper.Breaker("circuit opened", "breaker", "billing-lookup")

	output := buf.String()
	if output == "" {
		t.Error("Breaker log produced no output")
	}

	if !contains(output, "breaker") {
		t.Error("Breaker log missing 'breaker' type field")
	}
}

func TestLogHelper_Success(t *testing.T) {
	helper, buf := createTestLogger()

	helper.Success("product change completed", "operation", "product_change")

	output := buf.String()
	if output == "" {
		t.Error("Success log produced no output")
	}

	if !contains(output, "success") {
		t.Error("Success log missing 'success' type field")
	}
}

func TestLogHelper_Database(t *testing.T) {
	helper, buf := createTestLogger()

	helper.Database("query executed", "table", "product_change_requests")

	output := buf.String()
	if output == "" {
		t.Error("Database log produced no output")
	}

	if !contains(output, "database") {
		t.Error("Database log missing 'database' type field")
	}
}

func TestLogHelper_Redis(t *testing.T) {
	helper, buf := createTestLogger()

	helper.Redis("cache hit", "key", "billing:01012345678:202609")

	output := buf.String()
	if output == "" {
		t.Error("Redis log produced no output")
	}

	if !contains(output, "redis") {
		t.Error("Redis log missing 'redis' type field")
	}
}

func TestLogHelper_RequestWithContext(t *testing.T) {
	helper, buf := createTestLogger()

	ctx := WithRequestContext(context.Background(), "req1234567", "01012345678", "billing.current")
	helper.RequestWithContext(ctx, "GET", "/api/billings/current", 200, 50)

	output := buf.String()
	if output == "" {
		t.Error("RequestWithContext log produced no output")
	}

	if !contains(output, "req1234567") {
		t.Error("RequestWithContext log missing request ID")
	}
	// phone number must be masked by the sanitizer
	if contains(output, "01012345678") {
		t.Error("RequestWithContext log leaked full phone number")
	}
}

func TestLogHelper_SlowRequestFlagged(t *testing.T) {
	helper, buf := createTestLogger()

	ctx := WithRequestContext(context.Background(), "req1234567", "", "billing.current")
	helper.RequestWithContext(ctx, "GET", "/api/billings", 200, 1500)

	output := buf.String()
	if !contains(output, "slow_request") {
		t.Error("request above threshold not flagged as slow")
	}
}

func TestLogHelper_AllTypes(t *testing.T) {
	// All type methods should run without panicking
	helper, _ := createTestLogger()

	helper.Scheduler("retry pass started")
	helper.Startup("service started")
	helper.Performance("operation took 100ms")
	helper.ErrorCount(context.Background(), "transport", 3)
	helper.APIWithContext(context.Background(), "availability checked")
	helper.CacheStats(context.Background(), "product-info", 10, 256, 90, 10, 0)
}

// contains reports whether s contains substr
func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > len(substr) && containsSubstring(s, substr))
}

func containsSubstring(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
