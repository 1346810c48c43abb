package device

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/transport"
	"github.com/gsconf-net/gsconf/pkg/util"
)

const sysinfoPage = `
<table>
<tr><td>Product Model</td><td>GS1900-8</td></tr>
<tr><td>System Name</td><td>closet-sw</td></tr>
<tr><td>F/W Version</td><td>V2.80(AAHH.1)</td></tr>
<tr><td>Ethernet Address</td><td>00:19:cb:aa:bb:cc</td></tr>
</table>
`

type fakeAdapter struct {
	family     model.Family
	loginErr   error
	logins     int
	logouts    int
	pages      map[transport.Page]string
	fetchCalls int
}

func (f *fakeAdapter) Family() model.Family { return f.family }

func (f *fakeAdapter) Login(ctx context.Context) error {
	f.logins++
	return f.loginErr
}

func (f *fakeAdapter) Logout(ctx context.Context) error {
	f.logouts++
	return nil
}

func (f *fakeAdapter) FetchPage(ctx context.Context, page transport.Page) (string, error) {
	f.fetchCalls++
	body, ok := f.pages[page]
	if !ok {
		return "", fmt.Errorf("page %s: %w", page, transport.ErrPageNotMapped)
	}
	return body, nil
}

func (f *fakeAdapter) Submit(ctx context.Context, form transport.Form) (string, error) {
	return "", nil
}

func newFake() *fakeAdapter {
	return &fakeAdapter{
		family: model.FamilyGS1900,
		pages:  map[transport.Page]string{transport.PageSysInfo: sysinfoPage},
	}
}

func TestConnectCachesIdentity(t *testing.T) {
	fake := newFake()
	conn, err := ConnectWith(context.Background(), "192.0.2.5", fake)
	if err != nil {
		t.Fatalf("ConnectWith: %v", err)
	}
	defer conn.Close(context.Background())

	if fake.logins != 1 {
		t.Errorf("logins = %d, want 1", fake.logins)
	}
	id := conn.Identity()
	if id.Model != "GS1900-8" || id.Firmware != "V2.80(AAHH.1)" {
		t.Errorf("identity = %+v", id)
	}
	if conn.Firmware().IsZero() {
		t.Error("firmware not parsed")
	}
	if !conn.Firmware().AtLeast(conn.Firmware()) {
		t.Error("firmware comparison broken")
	}

	// The identity probe is the only page fetch; re-reading the cached
	// identity must not touch the device again.
	fetched := fake.fetchCalls
	_ = conn.Identity()
	_ = conn.Firmware()
	if fake.fetchCalls != fetched {
		t.Errorf("identity re-read hit the device (%d fetches)", fake.fetchCalls)
	}
}

func TestConnectLoginFailure(t *testing.T) {
	fake := newFake()
	fake.loginErr = &util.AuthenticationError{Target: "192.0.2.5", Reason: "bad password"}
	_, err := ConnectWith(context.Background(), "192.0.2.5", fake)
	if !errors.Is(err, util.ErrAuthentication) {
		t.Fatalf("err = %v, want ErrAuthentication", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	fake := newFake()
	conn, err := ConnectWith(context.Background(), "192.0.2.5", fake)
	if err != nil {
		t.Fatalf("ConnectWith: %v", err)
	}
	if err := conn.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := conn.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if fake.logouts != 1 {
		t.Errorf("logouts = %d, want 1", fake.logouts)
	}
	if _, err := conn.Gather(context.Background(), nil); !errors.Is(err, util.ErrNotConnected) {
		t.Errorf("Gather after Close: %v", err)
	}
}
