// pkg/update/update.go

// Package update resolves the artifact channel and checks whether a newer
// kiosk shell build exists upstream. The check is advisory: network failure
// reports "unknown", never an error that blocks the kiosk.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/afitler79-alt/xui-installer/pkg/platform"
	"github.com/afitler79-alt/xui-installer/pkg/state"
	"github.com/cenkalti/backoff/v4"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// DefaultRepo is the upstream repository holding the kiosk shell.
// XUI_UPDATE_REPO overrides it.
const DefaultRepo = "afitler79-alt/XUI-X360-FRONTEND"

// Availability classifies the outcome of an update check.
type Availability string

const (
	UpToDate        Availability = "up-to-date"
	UpdateAvailable Availability = "update-available"
	Unknown         Availability = "unknown"
)

// Result is one update check outcome.
type Result struct {
	Branch       string
	Installed    string
	Latest       string
	Availability Availability
}

// Checker probes the upstream repository for the channel's HEAD commit.
type Checker struct {
	Repo   string
	Store  *state.Store
	Client *http.Client
}

// NewChecker builds a checker against the default or overridden repo.
func NewChecker(store *state.Store) *Checker {
	repo := os.Getenv("XUI_UPDATE_REPO")
	if repo == "" {
		repo = DefaultRepo
	}
	return &Checker{
		Repo:   repo,
		Store:  store,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

// ResolveBranch picks the channel branch. Precedence: explicit flag value,
// then XUI_UPDATE_BRANCH, then the persisted channel file, then the
// platform default.
func (c *Checker) ResolveBranch(flagValue string, target platform.InstallTarget) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("XUI_UPDATE_BRANCH"); env != "" {
		return env
	}
	if ch, err := c.Store.LoadChannel(); err == nil && ch.Branch != "" {
		return ch.Branch
	}
	if target.OSFamily == platform.Windows {
		return "windows"
	}
	return "main"
}

// Check compares the installed commit against the channel HEAD.
func (c *Checker) Check(ctx context.Context, branchFlag string, target platform.InstallTarget) Result {
	log := otelzap.Ctx(ctx)
	branch := c.ResolveBranch(branchFlag, target)

	installed := ""
	if st, err := c.Store.LoadUpdateState(); err == nil {
		installed = st.InstalledCommit
	}

	res := Result{Branch: branch, Installed: installed, Availability: Unknown}

	latest, err := c.latestCommit(ctx, branch)
	if err != nil {
		log.Warn("Update check failed, result unknown",
			zap.String("branch", branch), zap.Error(err))
		return res
	}
	res.Latest = latest

	switch {
	case installed == "":
		res.Availability = UpdateAvailable
	case installed == latest:
		res.Availability = UpToDate
	default:
		res.Availability = UpdateAvailable
	}
	return res
}

// latestCommit fetches the HEAD commit SHA for branch, retrying transient
// failures with exponential backoff.
func (c *Checker) latestCommit(ctx context.Context, branch string) (string, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/commits/%s", c.Repo, branch)

	var sha string
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/vnd.github+json")

		resp, err := c.Client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(cerr.Newf("branch %q not found upstream", branch))
		}
		if resp.StatusCode != http.StatusOK {
			return cerr.Newf("upstream returned %s", resp.Status)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		var payload struct {
			SHA string `json:"sha"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return backoff.Permanent(cerr.Wrap(err, "parse upstream response"))
		}
		if payload.SHA == "" {
			return backoff.Permanent(cerr.New("upstream response has no commit sha"))
		}
		sha = payload.SHA
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return "", err
	}
	return sha, nil
}
