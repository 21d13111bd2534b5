package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bmi/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args and stdin, resetting flag state
// left over from earlier runs.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, c := range append([]*cobra.Command{rootCmd}, rootCmd.Commands()...) {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	configPath = ""

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := run(t, "", "version")
	assert.NoError(t, err)
	assert.Contains(t, out, "bmi version test-version-1.0.0")
}

func TestCalcCmd_Text(t *testing.T) {
	out, err := run(t, "", "calc", "--weight", "80", "--height", "2")
	require.NoError(t, err)
	assert.Equal(t, "BMI: 20 (normal)\n", out)
}

func TestCalcCmd_JSONWithUnits(t *testing.T) {
	out, err := run(t, "", "calc", "-w", "143.3", "--weight-unit", "lb", "-H", "153", "--height-unit", "cm", "--json")
	require.NoError(t, err)

	var got struct {
		BMI      float64 `json:"bmi"`
		Category string  `json:"category"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, 27.77, got.BMI, 0.01)
	assert.Equal(t, "overweight", got.Category)
}

func TestCalcCmd_RejectsZeroHeight(t *testing.T) {
	_, err := run(t, "", "calc", "--weight", "80", "--height", "0")
	assert.Error(t, err)
}

func TestCalcCmd_RequiresFlags(t *testing.T) {
	_, err := run(t, "", "calc", "--weight", "80")
	assert.Error(t, err)
}

func TestPromptCmd(t *testing.T) {
	out, err := run(t, "Ada\nLovelace\n1.53\n65\n", "prompt")
	require.NoError(t, err)
	assert.Contains(t, out, "We will calculate BMI")
	assert.Contains(t, out, "Your BMI is 27.76")
}

func TestPromptCmd_Quiet(t *testing.T) {
	out, err := run(t, "A\nB\n2\n80\n", "prompt", "--quiet")
	require.NoError(t, err)
	assert.Equal(t, "Your BMI is 20\n", out)
}

func TestPromptCmd_BadInput(t *testing.T) {
	_, err := run(t, "A\nB\nx\n80\n", "prompt", "-q")
	assert.Error(t, err)
}

func TestConfigCmd_RedactsSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bmi.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url = "postgres://user:pw@db/bmi"

[oidc]
client_secret = "hunter2"
`), 0o600))

	out, err := run(t, "", "config", "--config", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "user:pw")
	assert.Contains(t, out, redacted)
}

func TestOpenStore_Memory(t *testing.T) {
	st, err := openStore(context.Background(), config.Default())
	require.NoError(t, err)
	assert.NotNil(t, st.measurements)
	assert.NoError(t, st.closer.Close())
}
