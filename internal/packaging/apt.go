// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package packaging manages apt sources, keys and packages on the unit's
// machine.
package packaging

import (
	"context"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/proxy"
	"github.com/juju/retry"
	"golang.org/x/net/http/httpproxy"

	"github.com/openstack-charmers/charm-cinder-infinidat/internal/command"
)

var logger = loggo.GetLogger("cinder-infinidat.packaging")

const (
	// DefaultSourcesDir holds apt source lists.
	DefaultSourcesDir = "/etc/apt/sources.list.d"

	// DefaultTrustedDir holds the keyrings apt trusts.
	DefaultTrustedDir = "/etc/apt/trusted.gpg.d"

	// DefaultKeyServerURL is queried for keys given by id.
	DefaultKeyServerURL = "https://keyserver.ubuntu.com"

	// dpkgLockedExitCode is returned by apt-get when it cannot acquire
	// the dpkg lock.
	dpkgLockedExitCode = 100

	defaultRetryAttempts = 30
	defaultRetryDelay    = 10 * time.Second
)

// aptGetOptions keep apt-get from prompting and from replacing existing
// configuration files.
var aptGetOptions = []string{
	"--option=Dpkg::Options::=--force-confold",
	"--option=Dpkg::options::=--force-unsafe-io",
	"--assume-yes",
	"--quiet",
}

// Config holds the dependencies and settings of an Apt.
type Config struct {
	// Name names the source list and keyring files written.
	Name string

	Runner command.Runner
	Clock  clock.Clock

	// Proxy is passed to apt and to the key server client.
	Proxy proxy.Settings

	SourcesDir   string
	TrustedDir   string
	KeyServerURL string

	// HTTPClient fetches keys. When nil a client honouring Proxy is
	// created.
	HTTPClient *http.Client

	RetryAttempts int
	RetryDelay    time.Duration
}

// Validate checks the config, filling in defaults where a zero value
// makes no sense.
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.NotValidf("empty Name")
	}
	if c.Runner == nil {
		return errors.NotValidf("nil Runner")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.SourcesDir == "" {
		c.SourcesDir = DefaultSourcesDir
	}
	if c.TrustedDir == "" {
		c.TrustedDir = DefaultTrustedDir
	}
	if c.KeyServerURL == "" {
		c.KeyServerURL = DefaultKeyServerURL
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = defaultRetryAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	return nil
}

// Apt drives apt-get, add-apt-repository and dpkg-query.
type Apt struct {
	config Config
	client *http.Client
}

// NewApt returns an Apt for the given config.
func NewApt(config Config) (*Apt, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	client := config.HTTPClient
	if client == nil {
		client = newProxyClient(config.Proxy)
	}
	return &Apt{
		config: config,
		client: client,
	}, nil
}

func newProxyClient(settings proxy.Settings) *http.Client {
	proxyFunc := (&httpproxy.Config{
		HTTPProxy:  settings.Http,
		HTTPSProxy: settings.Https,
		NoProxy:    settings.NoProxy,
	}).ProxyFunc()

	transport := cleanhttp.DefaultTransport()
	transport.Proxy = func(req *http.Request) (*url.URL, error) {
		return proxyFunc(req.URL)
	}
	client := cleanhttp.DefaultClient()
	client.Transport = transport
	return client
}

func (a *Apt) env(extra ...string) []string {
	var env []string
	env = append(env, a.config.Proxy.AsEnvironmentValues()...)
	return append(env, extra...)
}

func (a *Apt) sourcePath() string {
	return filepath.Join(a.config.SourcesDir, a.config.Name+".list")
}

func (a *Apt) keyringPath() string {
	return filepath.Join(a.config.TrustedDir, a.config.Name+".gpg")
}

// Update refreshes the package index.
func (a *Apt) Update(ctx context.Context) error {
	return errors.Trace(a.aptGet(ctx, nil, "update"))
}

// Install installs pkgs, keeping any existing configuration files.
func (a *Apt) Install(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}
	args := append([]string{"install"}, pkgs...)
	return errors.Trace(a.aptGet(ctx, []string{"DEBIAN_FRONTEND=noninteractive"}, args...))
}

// aptGet runs apt-get, retrying while another process holds the dpkg
// lock.
func (a *Apt) aptGet(ctx context.Context, env []string, args ...string) error {
	params := command.Params{
		Name: "apt-get",
		Args: append(append([]string(nil), aptGetOptions...), args...),
		Env:  a.env(env...),
	}
	logger.Infof("running %s", params)

	err := retry.Call(retry.CallArgs{
		Func: func() error {
			_, err := a.config.Runner.Run(ctx, params)
			return err
		},
		IsFatalError: func(err error) bool {
			code, ok := command.ExitCode(err)
			return !ok || code != dpkgLockedExitCode
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Warningf("dpkg is locked, apt-get %s attempt %d: %v", args[0], attempt, err)
		},
		Attempts: a.config.RetryAttempts,
		Delay:    a.config.RetryDelay,
		Clock:    a.config.Clock,
		Stop:     ctx.Done(),
	})
	if err != nil {
		return errors.Annotatef(retry.LastError(err), "apt-get %s", args[0])
	}
	return nil
}

// PackageVersion returns the installed version of pkg. A package that is
// not installed is reported as NotFound.
func (a *Apt) PackageVersion(ctx context.Context, pkg string) (string, error) {
	res, err := a.config.Runner.Run(ctx, command.Params{
		Name: "dpkg-query",
		Args: []string{"-W", "-f=${Version}", pkg},
	})
	if code, ok := command.ExitCode(err); ok && code == 1 {
		return "", errors.NotFoundf("package %q", pkg)
	}
	if err != nil {
		return "", errors.Annotatef(err, "querying %q version", pkg)
	}
	version := strings.TrimSpace(string(res.Stdout))
	if version == "" {
		return "", errors.NotFoundf("package %q", pkg)
	}
	return version, nil
}
