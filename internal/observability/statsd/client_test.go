package statsd

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{
		"env": "prod",
		//nolint:gocritic // whitespace is part of the test case
		" service ": " client ",
	}
	local := map[string]string{
		"result": " success ",
		"":       "ignored",
		"env":    "stage",
	}

	assert.Equal(t, "|#env:stage,result:success,service:client", formatTags(global, local))
	assert.Equal(t, "", formatTags(nil, nil))
}

func TestClient_MetricName(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "secureops"}
	tests := map[string]string{
		" gateway/request ": "secureops.gateway_request",
		"refresh..issued":   "secureops.refresh.issued",
		".":                 "",
	}
	for input, want := range tests {
		assert.Equal(t, want, c.metricName(input), input)
	}
}

func TestClient_WritesLines(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	client, err := Dial(context.Background(), Config{
		Address:    pc.LocalAddr().String(),
		Prefix:     "secureops.",
		GlobalTags: map[string]string{"app": "cli"},
	})
	require.NoError(t, err)
	defer client.Close()

	client.Count("refresh.issued", 1, map[string]string{"result": "success"})

	buf := make([]byte, 512)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "secureops.refresh.issued:1|c|#app:cli,result:success", string(buf[:n]))
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	client, err := Dial(context.Background(), Config{Address: pc.LocalAddr().String()})
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
	client.Timing("after.close", time.Second, nil)
}

func TestDial_RequiresAddress(t *testing.T) {
	_, err := Dial(context.Background(), Config{Address: " "})
	require.Error(t, err)
}
