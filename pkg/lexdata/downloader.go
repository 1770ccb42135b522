package lexdata

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultReleaseAPI lists the latest jmdict-simplified release.
	DefaultReleaseAPI = "https://api.github.com/repos/scriptin/jmdict-simplified/releases/latest"
	assetPrefix       = "jmdict-eng-common"
)

// Downloader fetches the JMdict-simplified release when no local copy exists.
type Downloader struct {
	Client     *http.Client
	ReleaseAPI string
	Log        *slog.Logger
}

// NewDownloader returns a Downloader using the public release API.
func NewDownloader(log *slog.Logger) *Downloader {
	if log == nil {
		log = slog.Default()
	}
	return &Downloader{
		Client:     &http.Client{Timeout: 10 * time.Minute},
		ReleaseAPI: DefaultReleaseAPI,
		Log:        log.With("component", "lexdata.downloader"),
	}
}

// Ensure checks if the dictionary exists at path. If not, it discovers the
// latest release, downloads it and extracts the JSON file to path.
func (d *Downloader) Ensure(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	d.Log.Info("dictionary not found, downloading", "path", path)
	url, err := d.latestAssetURL(ctx)
	if err != nil {
		return fmt.Errorf("failed to find latest dictionary release: %w", err)
	}
	d.Log.Info("downloading dictionary", "url", url)
	return d.downloadAndExtract(ctx, url, path)
}

func (d *Downloader) latestAssetURL(ctx context.Context) (string, error) {
	apiCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(apiCtx, http.MethodGet, d.ReleaseAPI, nil)
	if err != nil {
		return "", err
	}
	// GitHub rejects requests without a User-Agent.
	req.Header.Set("User-Agent", "lexindex-cli")

	resp, err := d.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release api returned status: %s", resp.Status)
	}

	var release struct {
		Assets []struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		} `json:"assets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}
	for _, a := range release.Assets {
		if strings.Contains(a.Name, assetPrefix) && (strings.HasSuffix(a.Name, ".json.tgz") || strings.HasSuffix(a.Name, ".json.gz")) {
			return a.BrowserDownloadURL, nil
		}
	}
	return "", errors.New("no suitable dictionary asset found in latest release")
}

func (d *Downloader) downloadAndExtract(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	// .json.gz assets are the bare file.
	if strings.HasSuffix(url, ".json.gz") {
		return writeAtomic(dest, gz)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return errors.New("no json file found in downloaded archive")
		}
		if err != nil {
			return fmt.Errorf("error reading tar archive: %w", err)
		}
		if hdr.Typeflag == tar.TypeReg && strings.HasSuffix(hdr.Name, ".json") {
			return writeAtomic(dest, tr)
		}
	}
}

// writeAtomic writes r to a temp file next to dest and renames it into place.
func writeAtomic(dest string, r io.Reader) error {
	if dir := filepath.Dir(dest); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".jmdict-*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
