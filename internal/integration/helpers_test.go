package integration

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pablo-flores/wa-3fecta/internal/config"
	"github.com/pablo-flores/wa-3fecta/internal/service/server"
)

// alarmExport is a mongoexport dump with one masked group (NE1), one group
// without a clear (NE2) and one clear-only group (NE3).
const alarmExport = `{"_id":{"$oid":"65f1a2b3c4d5e6f708192a01"},"networkElementId":"NE1","alarmRaisedTime":{"$date":"2024-05-01T10:00:00Z"},"alarmState":"RAISED","alarmId":"A1","origenId":"O1"}
{"_id":{"$oid":"65f1a2b3c4d5e6f708192a02"},"networkElementId":"NE1","alarmRaisedTime":{"$date":"2024-05-01T10:00:00Z"},"alarmState":"CLEARED","alarmId":"A2","origenId":"O2"}
{"_id":{"$oid":"65f1a2b3c4d5e6f708192a03"},"networkElementId":"NE1","alarmRaisedTime":{"$date":"2024-05-01T10:00:00Z"},"alarmState":"RETRY","alarmId":"A3"}
{"_id":{"$oid":"65f1a2b3c4d5e6f708192a04"},"networkElementId":"NE2","alarmRaisedTime":{"$date":"2024-05-01T10:00:00Z"},"alarmState":"RAISED","alarmId":"A4","origenId":"O4"}
{"_id":{"$oid":"65f1a2b3c4d5e6f708192a05"},"networkElementId":"NE3","alarmRaisedTime":{"$date":"2024-05-01T11:00:00Z"},"alarmState":"CLEARED","alarmId":"A5","origenId":"O5"}
{"_id":{"$oid":"65f1a2b3c4d5e6f708192a06"},"networkElementId":"NE1","alarmRaisedTime":{"$date":"2024-05-01T10:00:00Z"},"alarmState":"ACK","alarmId":"A6","origenId":"O6"}
`

// reservePort returns a free local address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

// writeExport stores the alarm dump in a temporary file.
func writeExport(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "alarm.json")
	require.NoError(t, os.WriteFile(path, []byte(alarmExport), 0o600))

	return path
}

// writeSettings saves settings to a temporary file and returns its path.
func writeSettings(t *testing.T, settings *config.Config) string {
	t.Helper()

	settings.Log.Level = "error"
	settings.Timeout = 5 * time.Second

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(path, settings))

	return path
}

// startGRPC starts a masking server reading the alarm dump.
// Returns a stop function to gracefully shutdown the server.
func startGRPC(t *testing.T, addr string) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := writeSettings(t, &config.Config{
		Server: config.ServerConfig{
			ListenAddress: addr,
		},
		Masking: config.MaskingConfig{
			InputFile: writeExport(t),
		},
	})

	done := make(chan struct{})

	go func() {
		defer close(done)

		_ = server.Run(ctx, &server.Options{ConfigPath: cfgPath, ListenAddress: addr}) //nolint:errcheck // Failures surface as dial errors.
	}()

	// Wait briefly for server to start listening.
	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err != nil {
			return false
		}

		_ = conn.Close()

		return true
	}, 2*time.Second, 10*time.Millisecond)

	return func() {
		cancel()
		<-done
	}
}
