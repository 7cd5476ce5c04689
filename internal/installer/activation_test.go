package installer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eim-labs/eim/internal/paths"
)

func testVersionPaths(t *testing.T) paths.VersionPaths {
	base := t.TempDir()
	venv := filepath.Join(base, "tools", "python", "v5.4", "venv")
	return paths.VersionPaths{
		CheckoutDir:      filepath.Join(base, "esp-idf"),
		InstallRoot:      base,
		ToolInstallDir:   filepath.Join(base, "tools"),
		VenvDir:          venv,
		PythonPath:       filepath.Join(venv, "bin", "python"),
		ActivationScript: filepath.Join(base, "scripts", "activate_idf_v5.4.sh"),
		ActualVersion:    "v5.4",
	}
}

func TestWriteActivationScriptPosix(t *testing.T) {
	vp := testVersionPaths(t)
	exports := []string{filepath.Join(vp.ToolInstallDir, "xtensa-esp-elf", "bin")}

	if err := writeActivationScript("linux", vp, exports); err != nil {
		t.Fatalf("writeActivationScript: %v", err)
	}

	data, err := os.ReadFile(vp.ActivationScript)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{
		"export IDF_PATH=" + `"` + vp.CheckoutDir + `"`,
		"export IDF_TOOLS_PATH=",
		"export IDF_PYTHON_ENV_PATH=",
		exports[0],
		filepath.Dir(vp.PythonPath),
	} {
		if !strings.Contains(content, want) {
			t.Errorf("script missing %q:\n%s", want, content)
		}
	}

	info, err := os.Stat(vp.ActivationScript)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0100 == 0 {
		t.Error("activation script is not executable")
	}
}

func TestWriteActivationScriptWindows(t *testing.T) {
	vp := testVersionPaths(t)
	if err := writeActivationScript("windows", vp, nil); err != nil {
		t.Fatalf("writeActivationScript: %v", err)
	}
	data, err := os.ReadFile(vp.ActivationScript)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "$env:IDF_PATH") || !strings.Contains(content, "$env:PATH") {
		t.Errorf("powershell script incomplete:\n%s", content)
	}
}
