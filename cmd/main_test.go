package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/yungbote/movierec-backend/internal/app"
)

func TestRunReportsInitFailureOnStderr(t *testing.T) {
	t.Setenv(app.ConfigPathEnv, "")
	t.Setenv("LOG_MODE", "test")
	t.Setenv("SECRET", "")

	var stderr bytes.Buffer
	if code := run(context.Background(), &stderr); code != 1 {
		t.Fatalf("exit code: want=1 got=%d", code)
	}
	if got := stderr.String(); !strings.HasPrefix(got, "init app: ") || !strings.Contains(got, "SECRET not set") {
		t.Fatalf("stderr: want init failure got=%q", got)
	}
}
