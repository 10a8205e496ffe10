package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pai-assistant-go/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "assistant:\n  id: asst_1\nknowledge:\n  vector_store_id: vs_1\nadmin:\n  jwt_secret: s3cret\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCheckURL(t *testing.T) {
	out, err := execute(t, "check-url", "https://News.Example/a")
	require.NoError(t, err)
	assert.Equal(t, "news.example.md", strings.TrimSpace(out))

	_, err = execute(t, "check-url", "ftp://news.example/a")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	out, err := execute(t, "token", "--config", writeConfig(t), "--email", "ops@example.com")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	claims, err := token.NewJWTManager("s3cret").VerifyToken(lines[len(lines)-1])
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Email)
}
