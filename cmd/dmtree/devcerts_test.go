package main

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/kardianos/dmtree/dmdef"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestDevCertsCommand(t *testing.T) {
	cfg := DevCertsConfig{Script: "utils/dev_init", Dir: "example"}
	conn := dmdef.Connection{ID: "id1", AccessKey: "ak_secret"}

	cmd := devCertsCommand(context.Background(), cfg, conn, "https://api.example.com/")
	assert.Equal(t, []string{"utils/dev_init", "with-credentials", "-a", "ak_secret", "-u", "https://api.example.com"}, cmd.Args)
	assert.Equal(t, "example", cmd.Dir)
}

func TestLogLines(t *testing.T) {
	var buf strings.Builder
	log := zerolog.New(&buf)
	done := make(chan struct{})

	pr, pw := io.Pipe()
	go logLines(log, pr, done)
	_, _ = io.WriteString(pw, "one\ntwo\n")
	pw.Close()
	<-done

	assert.Equal(t, 2, strings.Count(buf.String(), `"level":"info"`))
	assert.Contains(t, buf.String(), `"message":"two"`)
}

func TestBrowserCommand(t *testing.T) {
	ctx := context.Background()
	url := "https://example.com/signup"
	tests := []struct {
		goos string
		want []string
	}{
		{"linux", []string{"xdg-open", url}},
		{"darwin", []string{"open", url}},
		{"windows", []string{"rundll32", "url.dll,FileProtocolHandler", url}},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			assert.Equal(t, tt.want, browserCommand(ctx, tt.goos, url).Args)
		})
	}
}
