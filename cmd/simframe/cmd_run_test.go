package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestRunWritesAllOutputs(t *testing.T) {
	path := writeTestModel(t)
	outDir := filepath.Join(t.TempDir(), "out")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"run", path, "--out", outDir, "--chart", "y", "--video", "y", "--dot"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("run: %v", err)
	}

	csv, err := os.ReadFile(filepath.Join(outDir, "trajectories.csv"))
	if err != nil {
		t.Fatalf("read trajectories: %v", err)
	}
	if !strings.Contains(string(csv), "c0.y") {
		t.Errorf("csv missing species column:\n%s", csv)
	}

	png, err := os.ReadFile(filepath.Join(outDir, "chart_y.png"))
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("chart is not a PNG")
	}

	if fi, err := os.Stat(filepath.Join(outDir, "y.avi")); err != nil || fi.Size() == 0 {
		t.Errorf("video missing or empty: %v", err)
	}

	dot, err := os.ReadFile(filepath.Join(outDir, "network.dot"))
	if err != nil {
		t.Fatalf("read graph: %v", err)
	}
	if !strings.Contains(string(dot), "digraph") {
		t.Errorf("graph is not DOT:\n%s", dot)
	}
}

func TestRunMissingModel(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"run", filepath.Join(t.TempDir(), "absent.yaml")})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for a missing model file")
	}
}

func TestRunUnknownChartSpecies(t *testing.T) {
	path := writeTestModel(t)

	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"run", path, "--out", filepath.Join(t.TempDir(), "out"), "--chart", "ghost"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("want unknown species error, got %v", err)
	}
}

func TestLubenskySmallRun(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"lubensky", "--cells", "5", "--duration", "5", "--points", "6", "--out", outDir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("lubensky: %v", err)
	}

	for _, name := range []string{"trajectories.csv", "chart_a.png", "a.avi"} {
		if fi, err := os.Stat(filepath.Join(outDir, name)); err != nil || fi.Size() == 0 {
			t.Errorf("%s missing or empty: %v", name, err)
		}
	}
}
