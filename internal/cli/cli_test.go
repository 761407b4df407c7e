package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const email = "Hi Bob,\n\nThanks for the update. The project is on track. We will ship Friday.\n\nThanks,\nAlice"

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTextCommand(t *testing.T) {
	dir := t.TempDir()
	configFile := writeConfig(t, dir, "Storage:\n  Path: \"\"\n")

	t.Run("邮件模式读取标准输入", func(t *testing.T) {
		out, err := run(t, email, "-f", configFile, "--mode", "email", "text")
		require.NoError(t, err)
		assert.Equal(t, "Hi Bob,\n\nThe project is on track.\n\nThanks,\nAlice\n", out)
	})

	t.Run("读取文件并渲染图片", func(t *testing.T) {
		input := filepath.Join(dir, "note.txt")
		require.NoError(t, os.WriteFile(input, []byte(email), 0644))
		output := filepath.Join(dir, "out", "note.png")

		out, err := run(t, "", "-f", configFile, "--mode", "email", "text", input, "--render", output)
		require.NoError(t, err)
		assert.Contains(t, out, "The project is on track.")
		assert.FileExists(t, output)
	})

	t.Run("比例为1时保留全文", func(t *testing.T) {
		out, err := run(t, "Cats sleep. Dogs bark.", "-f", configFile, "--fraction", "1", "text", "-")
		require.NoError(t, err)
		assert.Equal(t, "Cats sleep. Dogs bark.\n", out)
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, err := run(t, "", "-f", configFile, "text", filepath.Join(dir, "missing.txt"))
		assert.Error(t, err)
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("指定的配置文件不存在", func(t *testing.T) {
		_, err := run(t, "x", "-f", filepath.Join(dir, "missing.yaml"), "text")
		assert.ErrorContains(t, err, "读取配置文件失败")
	})

	t.Run("命令行覆盖非法模式", func(t *testing.T) {
		configFile := writeConfig(t, dir, "Storage:\n  Path: \"\"\n")
		_, err := run(t, "x", "-f", configFile, "--mode", "poem", "text")
		assert.ErrorContains(t, err, "Summary.Mode")
	})
}

func TestRunsCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	configFile := writeConfig(t, dir, "Storage:\n  Path: "+db+"\nWatch:\n  OutputDir: "+filepath.Join(dir, "out")+"\n")

	mbox := "From alice@example.com Mon Jan  1 00:00:00 2024\n" +
		"From: Alice <alice@example.com>\n" +
		"Subject: Status\n" +
		"Content-Type: text/plain\n" +
		"\n" +
		email + "\n"
	mboxPath := filepath.Join(dir, "inbox.mbox")
	require.NoError(t, os.WriteFile(mboxPath, []byte(mbox), 0644))

	out, err := run(t, "", "-f", configFile, "mbox", mboxPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Status")
	assert.Contains(t, out, "1 messages summarized")
	assert.FileExists(t, filepath.Join(dir, "out", "summarized_inbox-001.png"))

	out, err = run(t, "", "-f", configFile, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "inbox-001.txt")
	assert.Contains(t, out, "completed")

	t.Run("未配置数据库", func(t *testing.T) {
		noDB := writeConfig(t, t.TempDir(), "Storage:\n  Path: \"\"\n")
		_, err := run(t, "", "-f", noDB, "runs")
		assert.ErrorContains(t, err, "Storage.Path")
	})
}

func TestWatchCommand_RequiresInputDir(t *testing.T) {
	configFile := writeConfig(t, t.TempDir(), "Storage:\n  Path: \"\"\n")
	_, err := run(t, "", "-f", configFile, "watch")
	assert.ErrorContains(t, err, "Watch.InputDir")
}
