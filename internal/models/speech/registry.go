package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ProgressFunc is called during download with bytes downloaded and total
type ProgressFunc func(downloaded, total int64)

// IsInstalled returns true if the model serving a locale is present at
// the given tier
func IsInstalled(localeID string, fast bool) bool {
	path := PathFor(localeID, fast)
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// InstalledLocales returns the supported locales whose model is already
// downloaded at the given tier
func InstalledLocales(fast bool) []string {
	var installed []string
	for _, id := range SupportedLocales() {
		if IsInstalled(id, fast) {
			installed = append(installed, id)
		}
	}
	return installed
}

// Download fetches the model serving a locale at the given tier. The
// download goes to a temp file and is renamed into place only when
// complete, so a partial download never counts as installed. Progress
// callback is optional; ctx cancels between read chunks.
func Download(ctx context.Context, localeID string, fast bool, onProgress ProgressFunc) error {
	info := ModelForLocale(localeID)
	if info == nil {
		return fmt.Errorf("no model for locale: %s", localeID)
	}

	url := DownloadURL(localeID, fast)
	name, expectedSize := assetFor(info, fast)

	dir, err := ModelsDir()
	if err != nil {
		return fmt.Errorf("failed to get models directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	destPath := filepath.Join(dir, name)
	tempPath := destPath + ".downloading"

	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		out.Close()
		os.Remove(tempPath) // clean up temp file on error
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	total := resp.ContentLength
	if total < 0 {
		total = expectedSize
	}

	var downloaded int64
	buf := make([]byte, 32*1024)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("failed to write: %w", writeErr)
			}
			downloaded += int64(n)
			if onProgress != nil {
				onProgress(downloaded, total)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read: %w", err)
		}
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		return fmt.Errorf("failed to finalize download: %w", err)
	}

	return nil
}

// Remove deletes a downloaded model asset
func Remove(localeID string, fast bool) error {
	if !IsInstalled(localeID, fast) {
		return fmt.Errorf("model not installed for locale: %s", localeID)
	}
	if err := os.Remove(PathFor(localeID, fast)); err != nil {
		return fmt.Errorf("failed to remove model: %w", err)
	}
	return nil
}
