// Package transport speaks the web management interfaces of the
// supported switch families. Each family uses one of two dialects: the
// GS1900 line drives a token CGI endpoint with numeric page ids, the
// GS1915 and GS1920 lines use cookie sessions with per-page form
// handlers that differ only in naming convention. Callers address pages
// by logical name; the adapter owns the dialect-specific mapping.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/gsconf-net/gsconf/pkg/model"
)

// ErrPageNotMapped means the family's web interface does not serve the
// requested logical page at all.
var ErrPageNotMapped = errors.New("page not mapped on this family")

// Page is a logical page name, stable across dialects.
type Page string

const (
	PageLogin    Page = "login"
	PageSysInfo  Page = "sysinfo"
	PagePorts    Page = "ports"
	PageVlans    Page = "vlans"
	PagePortVlan Page = "port-vlan"
	PageSystem   Page = "system"
	PageSyslog   Page = "syslog"
	PageTrunk    Page = "trunk"
)

// Field is one form field of a submission. Sensitive fields are
// redacted wherever the submission is logged or recorded.
type Field struct {
	Name      string
	Value     string
	Sensitive bool
}

// Form is a rendered submission against a device page. Action is the
// dialect-specific submit target: a form handler path on session-form
// devices, a numeric command id on token-CGI devices. Source, when set,
// names the page the anti-forgery token must be scraped from before the
// post; dialects without page tokens ignore it.
type Form struct {
	Page   Page
	Action string
	Source string
	Fields []Field
}

// String renders the form for logs with sensitive values masked.
func (f Form) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]", f.Page, f.Action)
	for _, fld := range f.Fields {
		v := fld.Value
		if fld.Sensitive {
			v = "<hidden>"
		}
		fmt.Fprintf(&b, " %s=%s", fld.Name, v)
	}
	return b.String()
}

// Adapter is a logged-in conversation with one device. Implementations
// are not safe for concurrent use; the device web servers themselves
// serialize on a single session.
type Adapter interface {
	// Family reports the dialect the adapter speaks.
	Family() model.Family

	// Login authenticates and establishes the session.
	Login(ctx context.Context) error

	// FetchPage retrieves the HTML of a logical page.
	FetchPage(ctx context.Context, page Page) (string, error)

	// Submit posts a rendered form and returns the response body.
	Submit(ctx context.Context, form Form) (string, error)

	// Logout ends the session. Safe to call when not logged in.
	Logout(ctx context.Context) error
}

// Config carries connection parameters for one device.
type Config struct {
	Target   string
	Username string
	Password string
	UseTLS   bool
	Insecure bool
	Timeout  time.Duration
}

// baseURL returns the scheme://host prefix for requests.
func (c Config) baseURL() string {
	scheme := "http"
	if c.UseTLS {
		scheme = "https"
	}
	return scheme + "://" + c.Target
}

// newHTTPClient builds the client shared by detection and the adapters.
// The cookie jar carries the session on session-form devices; the
// token-CGI dialect does not mind it.
func newHTTPClient(cfg Config) *http.Client {
	jar, _ := cookiejar.New(nil)
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	tr := &http.Transport{}
	if cfg.Insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{
		Jar:       jar,
		Timeout:   timeout,
		Transport: tr,
	}
}

// New detects the device family behind cfg.Target and returns a
// matching adapter, not yet logged in. A non-empty hint is checked
// against the detected family; a mismatch is logged but detection wins.
func New(ctx context.Context, cfg Config, hint model.Family) (Adapter, error) {
	client := newHTTPClient(cfg)
	family, err := Detect(ctx, client, cfg)
	if err != nil {
		return nil, err
	}
	if hint != "" && hint != family {
		warnHintMismatch(cfg.Target, hint, family)
	}
	return adapterFor(family, cfg, client), nil
}

// NewForFamily returns an adapter for a known family, skipping the
// detection probe.
func NewForFamily(family model.Family, cfg Config) Adapter {
	return adapterFor(family, cfg, newHTTPClient(cfg))
}

func adapterFor(family model.Family, cfg Config, client *http.Client) Adapter {
	switch family {
	case model.FamilyGS1900:
		return newTokenCGI(cfg, client)
	default:
		return newSessionForm(family, cfg, client)
	}
}
