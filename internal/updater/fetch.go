package updater

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/eim-labs/eim/internal/branding"
)

const checksumManifest = "checksums.txt"

// Fetch downloads the asset into destDir, hashing it on the way through,
// and checks the hash against the release's checksum manifest. The archive
// path is returned only after verification passes; a corrupt download is
// deleted.
func (c *Client) Fetch(rel *Release, asset *Asset, destDir string) (string, error) {
	want, err := c.expectedSum(rel, asset.Name)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(destDir, asset.Name)
	sum, err := c.download(asset, dest)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(sum, want) {
		os.Remove(dest)
		return "", fmt.Errorf("checksum mismatch for %s: manifest lists %s, archive is %s", asset.Name, want, sum)
	}
	return dest, nil
}

// download streams the asset to dest and returns its hex sha256.
func (c *Client) download(asset *Asset, dest string) (string, error) {
	resp, err := c.get(asset.DownloadURL)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", asset.Name, err)
	}
	defer resp.Body.Close()

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}
	defer f.Close()

	hash := sha256.New()
	out := io.MultiWriter(f, hash)

	var copied int64
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return "", fmt.Errorf("writing %s: %w", dest, err)
			}
			copied += int64(n)
			if c.progress != nil && resp.ContentLength > 0 {
				c.progress(int(copied * 100 / resp.ContentLength))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("reading download stream: %w", readErr)
		}
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// expectedSum downloads the checksum manifest and returns the digest
// recorded for name. Each manifest line pairs a hex digest with a filename.
func (c *Client) expectedSum(rel *Release, name string) (string, error) {
	var manifest *Asset
	for i := range rel.Assets {
		if rel.Assets[i].Name == checksumManifest {
			manifest = &rel.Assets[i]
			break
		}
	}
	if manifest == nil {
		return "", fmt.Errorf("release %s carries no %s", rel.Version, checksumManifest)
	}

	resp, err := c.get(manifest.DownloadURL)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", checksumManifest, err)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 2 && fields[1] == name {
			return fields[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading %s: %w", checksumManifest, err)
	}
	return "", fmt.Errorf("%s has no entry for %s", checksumManifest, name)
}

func (c *Client) get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s returned status %d", url, resp.StatusCode)
	}
	return resp, nil
}

// ExtractExecutable pulls the tool binary out of a downloaded archive and
// returns its path. Both release archive formats are understood.
func ExtractExecutable(archive, destDir string) (string, error) {
	if strings.HasSuffix(archive, ".zip") {
		return executableFromZip(archive, destDir)
	}
	return executableFromTarGz(archive, destDir)
}

func executableFromTarGz(archive, destDir string) (string, error) {
	f, err := os.Open(archive)
	if err != nil {
		return "", fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("reading gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading archive entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || !isToolBinary(hdr.Name) {
			continue
		}
		dest := filepath.Join(destDir, filepath.Base(hdr.Name))
		if err := writeExecutable(dest, tr); err != nil {
			return "", fmt.Errorf("extracting %s: %w", dest, err)
		}
		return dest, nil
	}
	return "", fmt.Errorf("archive holds no %s binary", branding.CLIName())
}

func executableFromZip(archive, destDir string) (string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return "", fmt.Errorf("opening archive: %w", err)
	}
	defer r.Close()

	for _, entry := range r.File {
		if !isToolBinary(entry.Name) {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return "", fmt.Errorf("opening archive entry %s: %w", entry.Name, err)
		}
		dest := filepath.Join(destDir, filepath.Base(entry.Name))
		err = writeExecutable(dest, rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("extracting %s: %w", dest, err)
		}
		return dest, nil
	}
	return "", fmt.Errorf("archive holds no %s binary", branding.CLIName())
}

func isToolBinary(name string) bool {
	base := filepath.Base(name)
	return base == branding.CLIName() || base == branding.CLIName()+".exe"
}

func writeExecutable(dest string, r io.Reader) error {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
