package utils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

// pollingURL builds the Engine.IO long-polling request URL for sid
// against the test server. sid is omitted from the query when empty,
// which is what the initial handshake request looks like.
func pollingURL(t *testing.T, ts *httptest.Server, sid string) string {
	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatal(err)
	}

	q := u.Query()
	q.Set("transport", "polling")
	q.Set("EIO", "4")
	if sid != "" {
		q.Set("sid", sid)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func doRequest(t *testing.T, ts *httptest.Server, method, reqURL string, body io.Reader) *http.Response {
	req, err := http.NewRequest(method, reqURL, body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// EIOHandshake drives the initial Engine.IO long-polling handshake
// and returns the session ID the server assigned.
func EIOHandshake(t *testing.T, ts *httptest.Server) (sid string) {
	resp := doRequest(t, ts, "GET", pollingURL(t, ts, ""), nil)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	// The open packet's leading byte is the Engine.IO packet-type
	// digit ('0'); the rest is the JSON handshake payload.
	var handshake struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(body[1:], &handshake); err != nil {
		t.Fatal(err)
	}
	if handshake.SID == "" {
		t.Fatal("handshake response had no sid")
	}
	return handshake.SID
}

// EIOPush POSTs body as a long-polling frame on the given session.
func EIOPush(t *testing.T, ts *httptest.Server, sid, body string) {
	resp := doRequest(t, ts, "POST", pollingURL(t, ts, sid), bytes.NewBufferString(body))
	resp.Body.Close()
}

// EIOPoll performs one long-polling GET on the given session,
// returning the raw response body and status code.
func EIOPoll(t *testing.T, ts *httptest.Server, sid string) (body string, status int) {
	resp := doRequest(t, ts, "GET", pollingURL(t, ts, sid), nil)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(respBytes), resp.StatusCode
}
