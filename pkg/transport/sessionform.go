package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/util"
)

// formDialect captures what separates the two session-form families:
// the login field names and the page paths. The GS1920 line uses
// mixed-case names with underscored widget prefixes, the GS1915 line
// lowercases its pages and drops the underscore after the widget kind.
type formDialect struct {
	loginPath string
	userField string
	passField string
	pages     map[Page]string
}

var formDialects = map[model.Family]formDialect{
	model.FamilyGS1920: {
		loginPath: "/Forms/login_1",
		userField: "rpAuthForm_Ipt_UserName",
		passField: "rpAuthForm_Ipt_Password",
		pages: map[Page]string{
			PageSysInfo:  "/rpSysinfo.html",
			PagePorts:    "/rpPort.html",
			PageVlans:    "/rpVlantag.html",
			PagePortVlan: "/rpVlanport.html",
			PageSystem:   "/rpGeneral.html",
			PageSyslog:   "/rpSyslog.html",
			PageTrunk:    "/rpLacpsetting.html",
		},
	},
	model.FamilyGS1915: {
		loginPath: "/Forms/login_1",
		userField: "rpAuthForm_IptTextUsername",
		passField: "rpAuthForm_IptTextPassword",
		pages: map[Page]string{
			PageSysInfo:  "/rpsysinfo.html",
			PagePorts:    "/rpport.html",
			PageVlans:    "/rpvlantag.html?1,1",
			PagePortVlan: "/rpvlanport.html",
			PageSystem:   "/rpgeneral.html",
		},
	},
}

// sessionForm speaks the cookie-session dialect shared by the GS1915
// and GS1920 lines. The session rides on a cookie the login handler
// sets; forms post to per-page handlers under /Forms/.
type sessionForm struct {
	family   model.Family
	dialect  formDialect
	cfg      Config
	client   *http.Client
	loggedIn bool
}

func newSessionForm(family model.Family, cfg Config, client *http.Client) *sessionForm {
	return &sessionForm{
		family:  family,
		dialect: formDialects[family],
		cfg:     cfg,
		client:  client,
	}
}

func (s *sessionForm) Family() model.Family {
	return s.family
}

// Login posts the credentials form. The device answers a rejected login
// by serving the login form again, so the username field showing up in
// the response means the credentials were refused.
func (s *sessionForm) Login(ctx context.Context) error {
	body, err := s.post(ctx, string(PageLogin), s.dialect.loginPath, url.Values{
		s.dialect.userField: {s.cfg.Username},
		s.dialect.passField: {s.cfg.Password},
	})
	if err != nil {
		return err
	}
	if strings.Contains(body, s.dialect.userField) {
		return &util.AuthenticationError{Target: s.cfg.Target, Reason: "credentials rejected"}
	}
	s.loggedIn = true
	util.WithDevice(s.cfg.Target).Debug("form session established")
	return nil
}

func (s *sessionForm) FetchPage(ctx context.Context, page Page) (string, error) {
	if !s.loggedIn {
		return "", util.ErrNotConnected
	}
	path, ok := s.dialect.pages[page]
	if !ok {
		return "", fmt.Errorf("page %s on %s: %w", page, s.family, ErrPageNotMapped)
	}
	var body string
	err := withRetry(ctx, s.cfg.Target, string(page), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.baseURL()+path, nil)
		if err != nil {
			return permanent(err)
		}
		resp, err := s.client.Do(req)
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

// Submit posts the form fields to its /Forms/ handler.
func (s *sessionForm) Submit(ctx context.Context, form Form) (string, error) {
	if !s.loggedIn {
		return "", util.ErrNotConnected
	}
	values := url.Values{}
	for _, f := range form.Fields {
		values.Add(f.Name, f.Value)
	}
	util.WithPage(s.cfg.Target, string(form.Page)).Debugf("submit %s", form)
	return s.post(ctx, string(form.Page), form.Action, values)
}

func (s *sessionForm) Logout(ctx context.Context) error {
	if !s.loggedIn {
		return nil
	}
	s.loggedIn = false
	_, err := s.post(ctx, "logout", "/Forms/logout_1", url.Values{})
	return err
}

func (s *sessionForm) post(ctx context.Context, page, path string, values url.Values) (string, error) {
	var body string
	err := withRetry(ctx, s.cfg.Target, page, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			s.cfg.baseURL()+path, strings.NewReader(values.Encode()))
		if err != nil {
			return permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := s.client.Do(req)
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
