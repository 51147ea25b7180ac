package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-web/internal/skillcloud"
)

const sampleResult = `{"name":"Ada Lovelace","email":"ada@example.com","atsScore":91,` +
	`"skills":["Go","SQL"],"achievements":["Shipped v2"],"skillsToLearn":["Rust"],` +
	`"recommendedCourses":[["Rust Basics","https://example.com/rust"]]}`

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("RAV_CONFIG", "")
	t.Setenv("ANALYZE_SETTLE_DELAY", "0")
	t.Setenv("ANALYZE_ENDPOINT", "")
	t.Setenv("BACKGROUND_URL", "")
	t.Setenv("LOCAL_STORE_DIR", t.TempDir())
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func analysisServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := r.FormFile("resume"); err != nil {
			http.Error(w, "missing resume part", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestAnalyzeCommand_TextOutput(t *testing.T) {
	isolateConfig(t)
	srv := analysisServer(t, http.StatusOK, sampleResult)
	resume := writeTemp(t, "cv.pdf", "%PDF-1.4 not really")

	stdout, stderr, err := execute(t, "analyze", resume, "--endpoint", srv.URL)
	require.NoError(t, err)

	assert.Contains(t, stderr, "cv.pdf")
	assert.True(t, strings.HasPrefix(stdout, "Resume Analysis Results\n"))
	assert.Contains(t, stdout, "Name: Ada Lovelace\n")
	assert.Contains(t, stdout, "ATS Score: 91\n")
	assert.Contains(t, stdout, "Skills Count: 2\n")
	assert.Contains(t, stdout, "Skills: Go, SQL\n")
	assert.Contains(t, stdout, "  - Shipped v2\n")
	assert.Contains(t, stdout, "Skills to Learn: Rust\n")
	assert.Contains(t, stdout, "  - Rust Basics <https://example.com/rust>\n")
	assert.Contains(t, stdout, "3D Skills Cloud: 2 skill(s)\n")
}

func TestAnalyzeCommand_JSONPassesBodyThrough(t *testing.T) {
	isolateConfig(t)
	srv := analysisServer(t, http.StatusOK, sampleResult)
	resume := writeTemp(t, "cv.pdf", "%PDF-1.4")

	stdout, _, err := execute(t, "analyze", resume, "--endpoint", srv.URL, "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, sampleResult, stdout)
}

func TestAnalyzeCommand_ServerErrorFails(t *testing.T) {
	isolateConfig(t)
	srv := analysisServer(t, http.StatusInternalServerError, `{"error":"boom"}`)
	resume := writeTemp(t, "cv.pdf", "%PDF-1.4")

	stdout, _, err := execute(t, "analyze", resume, "--endpoint", srv.URL)
	require.Error(t, err)
	assert.Equal(t, "analysis failed: Request failed with status code 500", err.Error())
	assert.Empty(t, stdout)
}

func TestAnalyzeCommand_EndpointFromEnv(t *testing.T) {
	isolateConfig(t)
	srv := analysisServer(t, http.StatusOK, `{"name":"Env"}`)
	t.Setenv("ANALYZE_ENDPOINT", srv.URL)
	resume := writeTemp(t, "cv.pdf", "%PDF-1.4")

	stdout, _, err := execute(t, "analyze", resume)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Name: Env")
}

func TestAnalyzeCommand_WithBackground(t *testing.T) {
	isolateConfig(t)
	srv := analysisServer(t, http.StatusOK, `{"name":"Ada"}`)
	img := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10})
	}))
	defer img.Close()
	t.Setenv("BACKGROUND_URL", img.URL)
	resume := writeTemp(t, "cv.pdf", "%PDF-1.4")
	outDir := t.TempDir()

	_, stderr, err := execute(t, "analyze", resume, "--endpoint", srv.URL, "--background-out", outDir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Background saved to "+outDir)
}

func TestAnalyzeCommand_Validation(t *testing.T) {
	isolateConfig(t)

	_, _, err := execute(t, "analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")

	_, _, err = execute(t, "analyze", filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)

	resume := writeTemp(t, "cv.pdf", "%PDF-1.4")
	_, _, err = execute(t, "analyze", resume, "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestCloudCommand_SVG(t *testing.T) {
	result := writeTemp(t, "result.json", sampleResult)

	stdout, _, err := execute(t, "cloud", result, "--seed", "42")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "<svg "))
	assert.Contains(t, stdout, ">Go</text>")
	assert.Contains(t, stdout, ">SQL</text>")

	again, _, err := execute(t, "cloud", result, "--seed", "42")
	require.NoError(t, err)
	assert.Equal(t, stdout, again)
}

func TestCloudCommand_SceneJSON(t *testing.T) {
	result := writeTemp(t, "result.json", sampleResult)
	out := filepath.Join(t.TempDir(), "scene.json")

	_, _, err := execute(t, "cloud", result, "--format", "json", "--out", out)
	require.NoError(t, err)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var scene skillcloud.Scene
	require.NoError(t, json.Unmarshal(raw, &scene))
	assert.Len(t, scene.Glyphs, 2)
	for _, g := range scene.Glyphs {
		for _, c := range g.Position {
			assert.GreaterOrEqual(t, c, -skillcloud.HalfExtent)
			assert.Less(t, c, skillcloud.HalfExtent)
		}
	}
}

func TestCloudCommand_Frame(t *testing.T) {
	result := writeTemp(t, "result.json", sampleResult)

	stdout, _, err := execute(t, "cloud", result, "--format", "frame", "--t", "1000")
	require.NoError(t, err)
	var frame skillcloud.Frame
	require.NoError(t, json.Unmarshal([]byte(stdout), &frame))
	assert.Equal(t, "rgb(0,0,255)", frame.Color)
	assert.Len(t, frame.Glyphs, 2)
}

func TestCloudCommand_NoSkills(t *testing.T) {
	result := writeTemp(t, "result.json", `{"name":"Ada","skills":[]}`)
	_, _, err := execute(t, "cloud", result)
	assert.ErrorIs(t, err, errNoSkills)
}

func TestBackgroundCommand(t *testing.T) {
	isolateConfig(t)
	img := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	}))
	defer img.Close()
	outDir := t.TempDir()

	stdout, _, err := execute(t, "background", "--out", outDir, "--url", img.URL)
	require.NoError(t, err)
	assert.Contains(t, stdout, outDir)
	assert.Contains(t, stdout, "image/png, 8 bytes")

	path := strings.SplitN(stdout, " (", 2)[0]
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, data, 8)
}

func TestBackgroundCommand_FailureReported(t *testing.T) {
	isolateConfig(t)
	img := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer img.Close()

	_, _, err := execute(t, "background", "--out", t.TempDir(), "--url", img.URL)
	assert.ErrorIs(t, err, errBackgroundUnavailable)
}

func TestBackgroundCommand_DefaultsToLocalStoreDir(t *testing.T) {
	isolateConfig(t)
	img := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	}))
	defer img.Close()
	storeDir := t.TempDir()
	t.Setenv("LOCAL_STORE_DIR", storeDir)

	stdout, _, err := execute(t, "background", "--url", img.URL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, storeDir), "expected image under %s, got %s", storeDir, stdout)
}

func TestAnalyzeCommand_BackgroundIntoLocalStoreDir(t *testing.T) {
	isolateConfig(t)
	srv := analysisServer(t, http.StatusOK, `{"name":"Ada"}`)
	img := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10})
	}))
	defer img.Close()
	t.Setenv("BACKGROUND_URL", img.URL)
	storeDir := t.TempDir()
	t.Setenv("LOCAL_STORE_DIR", storeDir)
	resume := writeTemp(t, "cv.pdf", "%PDF-1.4")

	_, stderr, err := execute(t, "analyze", resume, "--endpoint", srv.URL, "--background")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Background saved to "+storeDir)
}
