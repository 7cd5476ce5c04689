package manifest

import "encoding/json"

// File is a parsed tools.json manifest.
type File struct {
	Tools   []Tool `json:"tools"`
	Version int    `json:"version"`
}

// Tool is one entry of the manifest.
type Tool struct {
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	Install          string        `json:"install"` // "always", "on_request", "never"
	ExportPaths      [][]string    `json:"export_paths"`
	SupportedTargets []string      `json:"supported_targets"`
	Versions         []ToolVersion `json:"versions"`
}

// ToolVersion carries per-platform download artifacts. In the wire format
// the platform keys ("linux-amd64", "win64", ...) sit alongside name and
// status inside the same object, so decoding is custom.
type ToolVersion struct {
	Name      string
	Status    string
	Downloads map[string]Download
}

// Download is one downloadable artifact.
type Download struct {
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

func (v *ToolVersion) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	v.Downloads = make(map[string]Download)
	for key, val := range raw {
		switch key {
		case "name":
			if err := json.Unmarshal(val, &v.Name); err != nil {
				return err
			}
		case "status":
			if err := json.Unmarshal(val, &v.Status); err != nil {
				return err
			}
		default:
			var d Download
			if err := json.Unmarshal(val, &d); err != nil {
				// Non-download auxiliary keys are ignored.
				continue
			}
			if d.URL != "" {
				v.Downloads[key] = d
			}
		}
	}
	return nil
}

func (v ToolVersion) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(v.Downloads)+2)
	out["name"] = v.Name
	out["status"] = v.Status
	for key, d := range v.Downloads {
		out[key] = d
	}
	return json.Marshal(out)
}

// Recommended returns the version marked recommended, falling back to the
// first listed version.
func (t *Tool) Recommended() *ToolVersion {
	for i := range t.Versions {
		if t.Versions[i].Status == "recommended" {
			return &t.Versions[i]
		}
	}
	if len(t.Versions) > 0 {
		return &t.Versions[0]
	}
	return nil
}

// supportsTarget reports whether the tool serves any of the requested chip
// targets. An empty supported list or an "all" entry on either side matches
// everything.
func (t *Tool) supportsTarget(targets []string) bool {
	if len(t.SupportedTargets) == 0 {
		return true
	}
	for _, st := range t.SupportedTargets {
		if st == "all" {
			return true
		}
		for _, want := range targets {
			if want == "all" || want == st {
				return true
			}
		}
	}
	return false
}

// ToolsFor selects the tools to provision for the requested chip targets:
// every always-install tool that supports one of the targets.
func (f *File) ToolsFor(targets []string) []Tool {
	var out []Tool
	for _, t := range f.Tools {
		if t.Install == "never" || t.Install == "on_request" {
			continue
		}
		if t.supportsTarget(targets) {
			out = append(out, t)
		}
	}
	return out
}

// PlatformKey maps a GOOS/GOARCH pair onto the manifest's platform naming.
func PlatformKey(goos, goarch string) string {
	switch goos {
	case "windows":
		if goarch == "386" {
			return "win32"
		}
		return "win64"
	case "darwin":
		if goarch == "arm64" {
			return "macos-arm64"
		}
		return "macos"
	default:
		switch goarch {
		case "arm64":
			return "linux-arm64"
		case "386":
			return "linux-i686"
		case "arm":
			return "linux-armel"
		default:
			return "linux-amd64"
		}
	}
}
