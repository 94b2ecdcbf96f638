package cmd

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/ulikunitz/xz"
	"gopkg.in/yaml.v3"

	"github.com/Professor414/Text2PDF/pkg"
)

// fontSpec describes one downloadable font archive listed in FONTS.yml.
type fontSpec struct {
	URL      string
	Dest     string
	Sha256   string
	Strip    int
	MarkExec []string `yaml:"markExec,omitempty"`
}

type fontConfig struct {
	Vars  map[string]string
	Fonts map[string]fontSpec
}

var fetchFontsCmd = &cobra.Command{
	Use:   "fetch-fonts",
	Short: "Downloads Khmer font archives into the project",
	Long: `Downloads and unpacks the font archives listed in FONTS.yml. This is a
fallback for hosts without apt where fonts-khmeros cannot be installed; it
is never part of the regular pipeline. Archives are verified against their
sha256 checksum and skipped when the recorded stamp still matches.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pkg.PrintTask("Loading config")
		root, err := pkg.GetProjectRoot()
		if err != nil {
			return err
		}

		cfg, stamps, err := getFontConfig(root)
		if err != nil {
			return err
		}

		pkg.PrintTask("Downloading fonts")
		err = fetchFonts(cfg, stamps, root)

		stampData, jErr := json.Marshal(stamps)
		if jErr == nil {
			jErr = os.WriteFile(filepath.Join(root, "fonts.stamps"), stampData, os.FileMode(0o660))
		}
		if jErr != nil {
			pkg.PrintError(jErr.Error())
		}

		if err == nil {
			pkg.PrintTask("Done")
		}

		return err
	},
}

func init() {
	rootCmd.AddCommand(fetchFontsCmd)
}

func getFontConfig(projectRoot string) (fontConfig, map[string]string, error) {
	var cfg fontConfig

	cfgPath := filepath.Join(projectRoot, "FONTS.yml")
	cfgData, err := os.ReadFile(cfgPath)
	if err != nil {
		return cfg, nil, eris.Wrapf(err, "Could not open file %s.", cfgPath)
	}

	err = yaml.Unmarshal(cfgData, &cfg)
	if err != nil {
		return cfg, nil, eris.Wrapf(err, "Failed to parse %s.", cfgPath)
	}

	stamps := map[string]string{}
	stampPath := filepath.Join(projectRoot, "fonts.stamps")
	stampData, err := os.ReadFile(stampPath)
	if err != nil {
		if !eris.Is(err, os.ErrNotExist) {
			return cfg, nil, eris.Wrapf(err, "Failed to read stamps file %s.", stampPath)
		}
	} else {
		err = json.Unmarshal(stampData, &stamps)
		if err != nil {
			return cfg, nil, eris.Wrapf(err, "Failed to parse JSON file %s.", stampPath)
		}
	}

	return cfg, stamps, nil
}

var varPattern = regexp.MustCompile(`\{([A-Z0-9_]+)\}`)

func expandVars(value string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(value, func(name string) string {
		return vars[name[1:len(name)-1]]
	})
}

func getProgressBar(length int64, desc string) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.DefaultBytes(length, desc)
}

func fetchFonts(cfg fontConfig, stamps map[string]string, projectRoot string) error {
	client := &http.Client{
		Timeout: time.Minute * 30,
	}

	names := make([]string, 0, len(cfg.Fonts))
	for name := range cfg.Fonts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		meta := cfg.Fonts[name]
		meta.URL = expandVars(meta.URL, cfg.Vars)

		if meta.Sha256 == "" {
			return eris.Errorf("Font %s doesn't have a checksum", name)
		}

		destPath := filepath.Join(projectRoot, meta.Dest)
		_, err := os.Stat(destPath)
		destExists := err == nil

		stampToken := meta.URL + "#" + meta.Sha256
		if stamp, ok := stamps[name]; ok && stampToken == stamp && destExists {
			continue
		}

		pkg.PrintSubtask(name + ":  " + meta.URL)

		err = fetchFont(client, name, meta, destPath, destExists)
		if err != nil {
			return err
		}

		stamps[name] = stampToken
	}

	return nil
}

func fetchFont(client *http.Client, name string, meta fontSpec, destPath string, destExists bool) error {
	arHandle, err := os.CreateTemp("", "fonts_dl")
	if err != nil {
		return eris.Wrap(err, "Failed to create download file")
	}
	defer func() {
		arHandle.Close()
		os.Remove(arHandle.Name())
	}()

	resp, err := client.Get(meta.URL)
	if err != nil {
		return eris.Wrapf(err, "Failed to start download for %s", meta.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("Download of %s failed with status %s", meta.URL, resp.Status)
	}

	hash := sha256.New()
	bar := getProgressBar(resp.ContentLength, "     download")
	_, err = io.Copy(io.MultiWriter(arHandle, hash, bar), resp.Body)
	if err != nil {
		return eris.Wrapf(err, "Failed during download of %s", meta.URL)
	}
	bar.Finish()

	digest := hex.EncodeToString(hash.Sum(nil))
	if digest != meta.Sha256 {
		return eris.Errorf("Checksum check failed for %s (got %s)", name, digest)
	}

	if destExists {
		pkg.PrintSubtask("Remove " + destPath)
		err = os.RemoveAll(destPath)
		if err != nil {
			return err
		}
	}

	extract, err := pickExtractor(meta.URL)
	if err != nil {
		return err
	}

	_, err = arHandle.Seek(0, io.SeekStart)
	if err != nil {
		return eris.Wrap(err, "Failed to rewind download file")
	}

	err = extract(arHandle, destPath, meta)
	if err != nil {
		return err
	}

	if runtime.GOOS != "windows" {
		// .zip files don't carry permissions so binaries have to be fixed up
		for _, binPath := range meta.MarkExec {
			binPath = filepath.Join(destPath, binPath)
			fi, err := os.Stat(binPath)
			if err != nil {
				return eris.Wrapf(err, "Failed to read permissions for %s", binPath)
			}

			err = os.Chmod(binPath, fi.Mode()|0o700)
			if err != nil {
				return eris.Wrapf(err, "Failed to mark %s as executable", binPath)
			}
		}
	}

	return nil
}

type fontExtractor func(*os.File, string, fontSpec) error

func pickExtractor(url string) (fontExtractor, error) {
	switch {
	case strings.HasSuffix(url, ".zip"):
		return extractZip, nil
	case strings.HasSuffix(url, ".tar.gz"):
		return func(f *os.File, destPath string, meta fontSpec) error {
			reader, err := gzip.NewReader(f)
			if err != nil {
				return err
			}
			defer reader.Close()

			return extractTar(reader, destPath, meta)
		}, nil
	case strings.HasSuffix(url, ".tar.xz"):
		return func(f *os.File, destPath string, meta fontSpec) error {
			reader, err := xz.NewReader(f)
			if err != nil {
				return err
			}

			return extractTar(reader, destPath, meta)
		}, nil
	}

	return nil, eris.Errorf("Archive format of %s not supported", url)
}

// stripDest maps an archive entry to its destination, dropping the first
// meta.Strip path elements. Entries that strip away entirely are skipped.
func stripDest(destPath, item string, strip int) (string, bool) {
	parts := strings.Split(filepath.Clean(filepath.FromSlash(item)), string(filepath.Separator))
	if len(parts) <= strip {
		return "", false
	}

	dest := filepath.Join(destPath, filepath.Join(parts[strip:]...))
	if dest == destPath {
		return "", false
	}

	return dest, true
}

func writeFontFile(dest string, r io.Reader, mode os.FileMode) error {
	err := os.MkdirAll(filepath.Dir(dest), os.FileMode(0o770))
	if err != nil {
		return eris.Wrapf(err, "Failed to create directory %s", filepath.Dir(dest))
	}

	handle, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return eris.Wrapf(err, "Failed to create file %s", dest)
	}
	defer handle.Close()

	_, err = io.Copy(handle, r)
	if err != nil {
		return eris.Wrapf(err, "Failed to write extracted file %s", dest)
	}

	return nil
}

func extractZip(f *os.File, destPath string, meta fontSpec) error {
	stat, err := f.Stat()
	if err != nil {
		return err
	}

	archive, err := zip.NewReader(f, stat.Size())
	if err != nil {
		return err
	}

	for _, item := range archive.File {
		if strings.HasSuffix(item.Name, "/") {
			continue
		}

		dest, ok := stripDest(destPath, item.Name, meta.Strip)
		if !ok {
			continue
		}

		itemHandle, err := item.Open()
		if err != nil {
			return eris.Wrapf(err, "Failed to open archive entry %s", item.Name)
		}

		err = writeFontFile(dest, itemHandle, os.FileMode(0o660))
		itemHandle.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

func extractTar(r io.Reader, destPath string, meta fontSpec) error {
	archive := tar.NewReader(r)

	for {
		item, err := archive.Next()
		if err != nil {
			if err == io.EOF {
				break
			}

			return eris.Wrap(err, "Failed to read archive entry")
		}

		fi := item.FileInfo()
		if fi.IsDir() {
			continue
		}

		dest, ok := stripDest(destPath, item.Name, meta.Strip)
		if !ok {
			continue
		}

		if item.Typeflag == tar.TypeSymlink {
			err = os.MkdirAll(filepath.Dir(dest), os.FileMode(0o770))
			if err == nil {
				err = os.Symlink(item.Linkname, dest)
			}
			if err != nil {
				return eris.Wrapf(err, "Failed to create symlink %s pointing to %s", dest, item.Linkname)
			}
			continue
		}

		err = writeFontFile(dest, archive, fi.Mode())
		if err != nil {
			return err
		}
	}

	return nil
}
