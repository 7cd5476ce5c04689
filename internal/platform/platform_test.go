package platform

import "testing"

func TestNormalizePathWindowsLowercases(t *testing.T) {
	got := NormalizePath(`C:\Espressif\Tools`, "windows")
	want := `c:\espressif\tools`
	if got != want {
		t.Errorf("NormalizePath = %q, want %q", got, want)
	}
}

func TestNormalizePathWindowsConvertsSeparators(t *testing.T) {
	got := NormalizePath("C:/Esp/v5.4", "windows")
	want := `c:\esp\v5.4`
	if got != want {
		t.Errorf("NormalizePath = %q, want %q", got, want)
	}
}

func TestNormalizePathPosixPreservesCase(t *testing.T) {
	got := NormalizePath("/tmp/Esp-New/v5.4", "linux")
	want := "/tmp/Esp-New/v5.4"
	if got != want {
		t.Errorf("NormalizePath = %q, want %q", got, want)
	}
}

func TestSamePath(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		goos string
		want bool
	}{
		{"windows case-insensitive", `C:\esp\V5.4`, `c:\ESP\v5.4`, "windows", true},
		{"linux case-sensitive", "/esp/V5.4", "/esp/v5.4", "linux", false},
		{"darwin identical", "/esp/v5.4", "/esp/v5.4", "darwin", true},
		{"trailing separator cleaned", "/esp/v5.4/", "/esp/v5.4", "linux", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SamePath(tt.a, tt.b, tt.goos); got != tt.want {
				t.Errorf("SamePath(%q, %q, %q) = %v, want %v", tt.a, tt.b, tt.goos, got, tt.want)
			}
		})
	}
}

func TestActivationScriptName(t *testing.T) {
	if got := ActivationScriptName("v5.4", "windows"); got != "Microsoft.v5.4.PowerShell_profile.ps1" {
		t.Errorf("windows script name = %q", got)
	}
	if got := ActivationScriptName("v5.4", "linux"); got != "activate_idf_v5.4.sh" {
		t.Errorf("posix script name = %q", got)
	}
}

func TestVenvPython(t *testing.T) {
	if got := VenvPython("/venv", "linux"); got != "/venv/bin/python" {
		t.Errorf("posix python = %q", got)
	}
}
