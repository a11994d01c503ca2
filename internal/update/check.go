// Package update looks up the newest cargo-quality release.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// DefaultRepo is the GitHub repository releases are published to.
const DefaultRepo = "open-rust-Initiative/cargo-plugins"

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = time.Second
	binaryPackage  = "cmd/cargo-quality"
)

// ErrUnversioned is returned for development builds, which have nothing to
// compare against.
var ErrUnversioned = errors.New("development build has no release version")

// Release describes the newest published release relative to the running
// binary.
type Release struct {
	Latest  string
	Current string
	// Install reinstalls the binary at Latest. cargo picks it up as
	// `cargo quality` as long as the install directory is on PATH.
	Install string
}

// Newer reports whether Latest is a higher semantic version than Current.
// Tags without a leading "v" are accepted.
func (r *Release) Newer() bool {
	return semver.Compare(canonical(r.Latest), canonical(r.Current)) > 0
}

// Checker queries the GitHub releases API.
type Checker struct {
	Repo    string
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

// NewChecker returns a checker for DefaultRepo on api.github.com.
func NewChecker() *Checker {
	return &Checker{Repo: DefaultRepo, BaseURL: defaultBaseURL, Client: http.DefaultClient, Timeout: defaultTimeout}
}

// Latest fetches the latest release tag and compares it to current.
func (c *Checker) Latest(ctx context.Context, current string) (*Release, error) {
	if current == "" || current == "dev" {
		return nil, ErrUnversioned
	}
	if !semver.IsValid(canonical(current)) {
		return nil, fmt.Errorf("current version %q is not a semantic version", current)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimRight(c.BaseURL, "/"), c.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching latest release: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching latest release: %s", resp.Status)
	}

	var body struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}
	if !semver.IsValid(canonical(body.TagName)) {
		return nil, fmt.Errorf("release tag %q is not a semantic version", body.TagName)
	}

	return &Release{
		Latest:  body.TagName,
		Current: current,
		Install: fmt.Sprintf("go install github.com/%s/%s@%s", c.Repo, binaryPackage, body.TagName),
	}, nil
}

func canonical(v string) string {
	if v != "" && !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
