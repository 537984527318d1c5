package testutil

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestMockAPI_RecordsRequests(t *testing.T) {
	m := NewMockAPI()
	defer m.Close()

	req, _ := http.NewRequest(http.MethodPost, m.URL()+"/tmai?x=1", strings.NewReader(`{"q":1}`))
	req.Header.Set("If-None-Match", `"e"`)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if string(body) != `{"success":true,"data":[]}` {
		t.Errorf("default body = %s", body)
	}
	if resp.Header.Get(HeaderRemaining) != "100" {
		t.Errorf("remaining header = %q", resp.Header.Get(HeaderRemaining))
	}
	if m.RequestCount() != 1 || m.ConditionalCount() != 1 {
		t.Errorf("requests/conditional = %d/%d", m.RequestCount(), m.ConditionalCount())
	}
	if m.Queries()[0].Get("x") != "1" || m.Bodies()[0] != `{"q":1}` {
		t.Errorf("recorded = %v %v", m.Queries(), m.Bodies())
	}

	m.Reset()
	if m.RequestCount() != 0 || len(m.Queries()) != 0 {
		t.Error("Reset should clear recordings")
	}
}

func TestNewDateRangeHandler(t *testing.T) {
	m := NewMockAPI()
	defer m.Close()
	m.SetHandler("/grades/", NewDateRangeHandler("2024-01-30"))

	get := func(start string) (int, string) {
		resp, err := http.Get(m.URL() + "/grades?startDate=" + start + "&endDate=2024-02-01&limit=5")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	code, body := get("2024-01-01")
	if code != http.StatusOK || !strings.Contains(body, `"startDate":"2024-01-01"`) || !strings.Contains(body, `"limit":"5"`) {
		t.Errorf("ok window = %d %s", code, body)
	}
	if code, _ := get("2024-01-30"); code != http.StatusInternalServerError {
		t.Errorf("failing window status = %d", code)
	}
}

func TestNewConditionalHandler(t *testing.T) {
	m := NewMockAPI()
	defer m.Close()
	m.SetHandler("/tokens", NewConditionalHandler(`"v1"`, `{"data":[1]}`))

	resp, _ := http.Get(m.URL() + "/tokens")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("ETag") != `"v1"` {
		t.Errorf("first response = %d %q", resp.StatusCode, resp.Header.Get("ETag"))
	}

	req, _ := http.NewRequest(http.MethodGet, m.URL()+"/tokens", nil)
	req.Header.Set("If-None-Match", `"v1"`)
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotModified {
		t.Errorf("conditional response = %d, want 304", resp.StatusCode)
	}
}
