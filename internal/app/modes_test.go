package app

import (
	"bufio"
	"context"
	"io"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-toolpool/internal/aggregator"
)

func TestApplication_ServeStdio(t *testing.T) {
	alpha := server.NewTestStreamableHTTPServer(toolServer("alpha"))
	defer alpha.Close()

	cfg := testConfig(t, "servers:\n  - name: alpha\n    url: "+alpha.URL+"\n")
	application, err := NewApplication(cfg)
	require.NoError(t, err)
	require.NoError(t, application.Start(context.Background()))
	defer application.Close()

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- application.Serve(ctx, ServeOptions{
			Transport: aggregator.TransportStdio,
			In:        inR,
			Out:       outW,
		})
	}()

	lines := bufio.NewScanner(outR)
	send := func(msg string) {
		_, err := io.WriteString(inW, msg+"\n")
		require.NoError(t, err)
	}

	send(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","clientInfo":{"name":"test","version":"1"},"capabilities":{}}}`)
	require.True(t, lines.Scan())
	assert.Contains(t, lines.Text(), `"id":1`)

	send(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	send(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	require.True(t, lines.Scan())
	assert.Contains(t, lines.Text(), `"id":2`)
	assert.Contains(t, lines.Text(), "alpha_echo")

	cancel()
	_ = inW.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	_ = outW.Close()
}

func TestApplication_ServeUnknownTransport(t *testing.T) {
	alpha := server.NewTestStreamableHTTPServer(toolServer("alpha"))
	defer alpha.Close()

	cfg := testConfig(t, "servers:\n  - name: alpha\n    url: "+alpha.URL+"\n")
	application, err := NewApplication(cfg)
	require.NoError(t, err)
	require.NoError(t, application.Start(context.Background()))
	defer application.Close()

	err = application.Serve(context.Background(), ServeOptions{Transport: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport")
}
