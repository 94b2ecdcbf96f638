// Package pipreq parses pip requirements manifests far enough to validate
// them before pip itself runs. It is not a resolver; pip stays the source
// of truth for anything this parser passes through.
package pipreq

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rotisserie/eris"
)

// maxIncludeDepth limits how many -r includes may nest before the parser
// assumes a cycle.
const maxIncludeDepth = 4

var namePattern = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)(\[[^\]]*\])?`)

// Requirement is one package entry of a manifest.
type Requirement struct {
	Name      string
	Extras    []string
	Specifier string
	Marker    string
	Raw       string
	File      string
	Line      int
}

// PinnedVersion returns the version a `==` specifier pins, if the entry
// pins exactly one version.
func (r Requirement) PinnedVersion() (string, bool) {
	spec := strings.TrimSpace(r.Specifier)
	if !strings.HasPrefix(spec, "==") || strings.Contains(spec, ",") {
		return "", false
	}

	return strings.TrimSpace(strings.TrimPrefix(spec, "==")), true
}

// File is a parsed manifest including everything pulled in through -r.
type File struct {
	Path         string
	Requirements []Requirement
	Options      []string
}

// Parse reads the manifest at path and every manifest it includes.
func Parse(path string) (*File, error) {
	result := &File{Path: path}

	err := parseFile(result, path, 0)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func parseFile(result *File, path string, depth int) error {
	if depth > maxIncludeDepth {
		return eris.Errorf("Too many nested includes while reading %s", path)
	}

	handle, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "Could not open manifest %s", path)
	}
	defer handle.Close()

	return parseReader(result, handle, path, depth)
}

func parseReader(result *File, r io.Reader, path string, depth int) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	pending := ""
	pendingStart := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if pending == "" {
			pendingStart = lineNo
		}

		if strings.HasSuffix(line, "\\") {
			pending += strings.TrimSuffix(line, "\\")
			continue
		}

		full := strings.TrimSpace(pending + line)
		pending = ""

		full = stripComment(full)
		if full == "" {
			continue
		}

		err := parseEntry(result, full, path, pendingStart, depth)
		if err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return eris.Wrapf(err, "Failed to read manifest %s", path)
	}

	if pending != "" {
		return eris.Errorf("%s ends with a line continuation", path)
	}

	return nil
}

// stripComment removes an unquoted trailing comment. pip only treats # as
// a comment when it starts the line or follows whitespace.
func stripComment(line string) string {
	if strings.HasPrefix(line, "#") {
		return ""
	}

	for idx := 1; idx < len(line); idx++ {
		if line[idx] == '#' && (line[idx-1] == ' ' || line[idx-1] == '\t') {
			return strings.TrimSpace(line[:idx])
		}
	}

	return line
}

func parseEntry(result *File, entry, path string, line, depth int) error {
	if strings.HasPrefix(entry, "-r ") || strings.HasPrefix(entry, "--requirement ") {
		ref := strings.TrimSpace(entry[strings.Index(entry, " ")+1:])
		if !filepath.IsAbs(ref) {
			ref = filepath.Join(filepath.Dir(path), ref)
		}

		return parseFile(result, ref, depth+1)
	}

	if strings.HasPrefix(entry, "-") {
		// installer options (--index-url, --no-binary, ...) are passed
		// through to pip untouched
		result.Options = append(result.Options, entry)
		return nil
	}

	req := Requirement{Raw: entry, File: path, Line: line}

	if pos := strings.Index(entry, ";"); pos > -1 {
		req.Marker = strings.TrimSpace(entry[pos+1:])
		entry = strings.TrimSpace(entry[:pos])
	}

	match := namePattern.FindStringSubmatch(entry)
	if match == nil {
		return eris.Errorf("%s:%d: cannot parse requirement %q", path, line, entry)
	}

	req.Name = match[1]
	if match[2] != "" {
		for _, extra := range strings.Split(strings.Trim(match[2], "[]"), ",") {
			extra = strings.TrimSpace(extra)
			if extra != "" {
				req.Extras = append(req.Extras, extra)
			}
		}
	}

	req.Specifier = strings.TrimSpace(entry[len(match[0]):])
	if req.Specifier != "" && !strings.ContainsAny(req.Specifier, "=<>!~") {
		return eris.Errorf("%s:%d: unexpected text after package name: %q", path, line, req.Specifier)
	}

	result.Requirements = append(result.Requirements, req)
	return nil
}

// Lint reports oddities that pip would accept but that usually point at a
// typo, currently just pinned versions that don't parse as a version.
// Python versioning is not semver, so these are warnings, never errors.
func (f *File) Lint() []string {
	var warnings []string

	for _, req := range f.Requirements {
		pinned, ok := req.PinnedVersion()
		if !ok {
			continue
		}

		_, err := semver.NewVersion(pinned)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s:%d: pinned version %q of %s does not look like a version",
				req.File, req.Line, pinned, req.Name))
		}
	}

	return warnings
}
