package updater

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// tarGzWith builds a tar.gz archive holding a single file.
func tarGzWith(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0755, Size: int64(len(content)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	tw.Close()
	gw.Close()
	return buf.Bytes()
}

// releaseServer serves an archive and its checksum manifest, returning a
// matching Release whose asset URLs point at the server.
func releaseServer(t *testing.T, archiveName string, archive []byte, sum string) (*httptest.Server, *Release) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/"+archiveName, func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})
	mux.HandleFunc("/checksums.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  %s\n", sum, archiveName)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	rel := &Release{Version: "v0.3.0", Assets: []Asset{
		{Name: archiveName, DownloadURL: srv.URL + "/" + archiveName},
		{Name: "checksums.txt", DownloadURL: srv.URL + "/checksums.txt"},
	}}
	return srv, rel
}

func TestFetchVerifiesWhileDownloading(t *testing.T) {
	archive := tarGzWith(t, "eim", []byte("#!/bin/sh\necho hi"))
	sumBytes := sha256.Sum256(archive)
	_, rel := releaseServer(t, "eim_linux_amd64.tar.gz", archive, hex.EncodeToString(sumBytes[:]))

	var last int
	cl := New("0.1.0", WithProgress(func(p int) { last = p }))

	dest := t.TempDir()
	path, err := cl.Fetch(rel, &rel.Assets[0], dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, archive) {
		t.Error("downloaded archive differs from the served one")
	}
	if last != 100 {
		t.Errorf("final progress = %d, want 100", last)
	}
}

func TestFetchRejectsCorruptDownload(t *testing.T) {
	archive := tarGzWith(t, "eim", []byte("payload"))
	wrong := "0000000000000000000000000000000000000000000000000000000000000000"
	_, rel := releaseServer(t, "eim_linux_amd64.tar.gz", archive, wrong)

	cl := New("0.1.0")
	dest := t.TempDir()
	if _, err := cl.Fetch(rel, &rel.Assets[0], dest); err == nil {
		t.Fatal("Fetch accepted an archive that fails its checksum")
	}
	if _, err := os.Stat(filepath.Join(dest, rel.Assets[0].Name)); !os.IsNotExist(err) {
		t.Error("corrupt archive left on disk")
	}
}

func TestFetchRequiresChecksumManifest(t *testing.T) {
	rel := &Release{Version: "v0.3.0", Assets: []Asset{
		{Name: "eim_linux_amd64.tar.gz", DownloadURL: "https://objects.example/a"},
	}}
	cl := New("0.1.0")
	if _, err := cl.Fetch(rel, &rel.Assets[0], t.TempDir()); err == nil {
		t.Error("Fetch proceeded without a checksum manifest")
	}
}

func TestExtractExecutableTarGz(t *testing.T) {
	content := []byte("#!/bin/sh\necho extracted")
	dir := t.TempDir()
	archive := filepath.Join(dir, "eim_linux_amd64.tar.gz")
	if err := os.WriteFile(archive, tarGzWith(t, "eim_linux_amd64/eim", content), 0644); err != nil {
		t.Fatal(err)
	}

	bin, err := ExtractExecutable(archive, dir)
	if err != nil {
		t.Fatalf("ExtractExecutable: %v", err)
	}
	got, err := os.ReadFile(bin)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Error("extracted binary differs from the archived one")
	}
	info, err := os.Stat(bin)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0111 == 0 {
		t.Error("extracted binary is not executable")
	}
}

func TestExtractExecutableZip(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("eim.exe")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("MZ")); err != nil {
		t.Fatal(err)
	}
	zw.Close()

	dir := t.TempDir()
	archive := filepath.Join(dir, "eim_windows_amd64.zip")
	if err := os.WriteFile(archive, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	bin, err := ExtractExecutable(archive, dir)
	if err != nil {
		t.Fatalf("ExtractExecutable: %v", err)
	}
	if filepath.Base(bin) != "eim.exe" {
		t.Errorf("extracted %q, want eim.exe", bin)
	}
}

func TestExtractExecutableMissingBinary(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "other.tar.gz")
	if err := os.WriteFile(archive, tarGzWith(t, "README.md", []byte("docs")), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ExtractExecutable(archive, dir); err == nil {
		t.Error("ExtractExecutable found a binary in an archive without one")
	}
}
