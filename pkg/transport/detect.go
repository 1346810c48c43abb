package transport

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/util"
)

// Model signatures in the order they are probed. GS1915 precedes GS1900
// so the longer signature can never be shadowed by a firmware line that
// mentions both.
var modelSignatures = []struct {
	marker string
	family model.Family
}{
	{"GS1915", model.FamilyGS1915},
	{"GS1920", model.FamilyGS1920},
	{"GS1900", model.FamilyGS1900},
}

var titleRe = regexp.MustCompile(`(?is)<title[^>]*>\s*(.*?)\s*</title>`)

// Detect fetches the login page and matches it against the known model
// signatures. It runs before authentication; the login pages of all
// supported families embed the model string.
func Detect(ctx context.Context, client *http.Client, cfg Config) (model.Family, error) {
	body, err := fetchLoginPage(ctx, client, cfg)
	if err != nil {
		return "", err
	}
	for _, sig := range modelSignatures {
		if strings.Contains(body, sig.marker) {
			util.WithDevice(cfg.Target).Debugf("detected %s device", sig.family)
			return sig.family, nil
		}
	}
	return "", &util.UnknownModelError{
		Target: cfg.Target,
		Banner: pageTitle(body),
	}
}

func fetchLoginPage(ctx context.Context, client *http.Client, cfg Config) (string, error) {
	var body string
	err := withRetry(ctx, cfg.Target, string(PageLogin), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.baseURL()+"/", nil)
		if err != nil {
			return permanent(err)
		}
		resp, err := client.Do(req)
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

func pageTitle(body string) string {
	if m := titleRe.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

func warnHintMismatch(target string, hint, detected model.Family) {
	util.WithDevice(target).Warnf("configured model %s but device identifies as %s; using %s",
		hint, detected, detected)
}
