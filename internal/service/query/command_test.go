package query

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pablo-flores/wa-3fecta/internal/config"
	"github.com/pablo-flores/wa-3fecta/internal/repository/export"
)

const queryInput = `{"_id":1,"networkElementId":"NE1","alarmRaisedTime":100,"alarmState":"RAISED","alarmId":"A1"}
{"_id":2,"networkElementId":"NE1","alarmRaisedTime":100,"alarmState":"CLEARED","alarmId":"A2"}
{"_id":3,"networkElementId":"NE2","alarmRaisedTime":200,"alarmState":"RETRY","alarmId":"A3"}
`

// writeFixtures creates an empty config file and an input file.
func writeFixtures(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "settings.yaml")
	inputPath := filepath.Join(dir, "alarm.json")

	require.NoError(t, os.WriteFile(configPath, []byte("log:\n  level: error\n"), 0o600))
	require.NoError(t, os.WriteFile(inputPath, []byte(queryInput), 0o600))

	return configPath, inputPath
}

// TestRun_InputToStdout writes the masked alarms without their identity field.
func TestRun_InputToStdout(t *testing.T) {
	t.Parallel()

	configPath, inputPath := writeFixtures(t)

	var out bytes.Buffer

	err := Run(context.Background(), &Options{
		ConfigPath: configPath,
		InputFile:  inputPath,
		Stdout:     &out,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	require.NotContains(t, out.String(), `"_id"`)
	require.Contains(t, lines[0], `"alarmId":"A1"`)
	require.Contains(t, lines[1], `"alarmId":"A2"`)
}

// TestRun_OutputFile writes to the requested file.
func TestRun_OutputFile(t *testing.T) {
	t.Parallel()

	configPath, inputPath := writeFixtures(t)
	outputPath := filepath.Join(t.TempDir(), "masked.json")

	allow := true

	err := Run(context.Background(), &Options{
		ConfigPath:   configPath,
		InputFile:    inputPath,
		OutputFile:   outputPath,
		AllowDiskUse: &allow,
	})
	require.NoError(t, err)

	reader, err := export.Open(outputPath)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, reader.Close())
	}()

	records, err := reader.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
}

// TestApplyOverrides_PushdownWithInput rejects a file source for the server-side aggregation.
func TestApplyOverrides_PushdownWithInput(t *testing.T) {
	t.Parallel()

	settings := new(config.Config)

	err := applyOverrides(settings, &Options{InputFile: "alarm.json", Pushdown: true})
	require.Error(t, err)
}
