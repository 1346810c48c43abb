package transport

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/util"
)

// tokenCGI speaks the GS1900 dialect: every page lives behind a single
// CGI dispatcher addressed by numeric command id, authentication hands
// back an opaque token carried as a cookie, and each mutating form
// embeds a one-shot XSSID value that must be scraped from the form page
// and posted back with the submission.
type tokenCGI struct {
	cfg    Config
	client *http.Client
	authID string
}

const dispatcherPath = "/cgi-bin/dispatcher.cgi"

// Page queries for the dispatcher. Forms post to their own command ids
// carried on the Form, so only readable pages are listed here.
var tokenCGIPages = map[Page]string{
	PageSysInfo:  "cmd=512",
	PagePorts:    "cmd=768",
	PageVlans:    "cmd=1283&pageindex=1",
	PagePortVlan: "cmd=1290",
	PageSystem:   "cmd=1025",
}

var xssidRe = regexp.MustCompile(`name="XSSID"\s+value="([^"]+)"`)

func newTokenCGI(cfg Config, client *http.Client) *tokenCGI {
	return &tokenCGI{cfg: cfg, client: client}
}

func (t *tokenCGI) Family() model.Family {
	return model.FamilyGS1900
}

// Login posts the scrambled password, keeps the returned token and
// confirms it with a login check round trip. The device answers the
// check with a body containing "OK" once the token is live.
func (t *tokenCGI) Login(ctx context.Context) error {
	body, err := t.post(ctx, string(PageLogin), url.Values{
		"username": {t.cfg.Username},
		"password": {encodePassword(t.cfg.Password)},
		"login":    {"true"},
	})
	if err != nil {
		return err
	}
	token := strings.TrimSpace(body)
	if token == "" {
		return &util.AuthenticationError{Target: t.cfg.Target, Reason: "empty token from login"}
	}
	t.authID = token

	check, err := t.post(ctx, string(PageLogin), url.Values{
		"authId":    {token},
		"login_chk": {"true"},
	})
	if err != nil {
		return err
	}
	if !strings.Contains(check, "OK") {
		t.authID = ""
		return &util.AuthenticationError{Target: t.cfg.Target, Reason: "token check rejected"}
	}
	util.WithDevice(t.cfg.Target).Debug("token session established")
	return nil
}

func (t *tokenCGI) FetchPage(ctx context.Context, page Page) (string, error) {
	if t.authID == "" {
		return "", util.ErrNotConnected
	}
	query, ok := tokenCGIPages[page]
	if !ok {
		return "", fmt.Errorf("page %s on %s: %w", page, model.FamilyGS1900, ErrPageNotMapped)
	}
	return t.get(ctx, page, query)
}

// Submit scrapes the XSSID token from the form's source page, then
// posts the fields to the form's command id. The device invalidates the
// XSSID after every post, so each submission pays the extra round trip.
func (t *tokenCGI) Submit(ctx context.Context, form Form) (string, error) {
	if t.authID == "" {
		return "", util.ErrNotConnected
	}
	values := url.Values{"cmd": {form.Action}}
	if form.Source != "" {
		source, err := t.get(ctx, form.Page, "cmd="+form.Source)
		if err != nil {
			return "", err
		}
		m := xssidRe.FindStringSubmatch(source)
		if m == nil {
			return "", &util.ParseError{
				Page:  string(form.Page),
				Field: "XSSID",
				Err:   fmt.Errorf("token not present in form page"),
			}
		}
		values.Set("XSSID", m[1])
	}
	for _, f := range form.Fields {
		values.Add(f.Name, f.Value)
	}
	util.WithPage(t.cfg.Target, string(form.Page)).Debugf("submit %s", form)
	return t.post(ctx, string(form.Page), values)
}

func (t *tokenCGI) Logout(ctx context.Context) error {
	if t.authID == "" {
		return nil
	}
	_, err := t.post(ctx, "logout", url.Values{"logout": {"true"}})
	t.authID = ""
	return err
}

func (t *tokenCGI) get(ctx context.Context, page Page, query string) (string, error) {
	var body string
	err := withRetry(ctx, t.cfg.Target, string(page), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			t.cfg.baseURL()+dispatcherPath+"?"+query, nil)
		if err != nil {
			return permanent(err)
		}
		t.decorate(req)
		resp, err := t.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if err := checkStatus(resp); err != nil {
			return err
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = string(data)
		return nil
	})
	return body, err
}

func (t *tokenCGI) post(ctx context.Context, page string, values url.Values) (string, error) {
	var body string
	err := withRetry(ctx, t.cfg.Target, page, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			t.cfg.baseURL()+dispatcherPath, strings.NewReader(values.Encode()))
		if err != nil {
			return permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		t.decorate(req)
		resp, err := t.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if err := checkStatus(resp); err != nil {
			return err
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = string(data)
		return nil
	})
	return body, err
}

func (t *tokenCGI) decorate(req *http.Request) {
	if t.authID != "" {
		req.AddCookie(&http.Cookie{Name: "authId", Value: t.authID})
	}
}

const fillerChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// encodePassword scrambles the password the way the GS1900 login page
// script does before it ever leaves the browser. The output is a fixed
// 321 characters counted from one: every fifth position carries the
// next password character taken from the end, position 123 holds the
// tens digit of the length, position 289 the ones digit, and everything
// else is random filler the device discards.
func encodePassword(password string) string {
	var b strings.Builder
	b.Grow(321)
	remaining := len(password)
	for i := 1; i <= 321; i++ {
		switch {
		case i%5 == 0 && remaining > 0:
			remaining--
			b.WriteByte(password[remaining])
		case i == 123:
			if len(password) < 10 {
				b.WriteByte('0')
			} else {
				b.WriteByte(byte('0' + len(password)/10))
			}
		case i == 289:
			b.WriteByte(byte('0' + len(password)%10))
		default:
			b.WriteByte(fillerChars[rand.Intn(len(fillerChars))])
		}
	}
	return b.String()
}
