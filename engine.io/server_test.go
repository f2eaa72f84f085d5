package eio

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kamros/sio/engine.io/parser"
	"github.com/stretchr/testify/require"
)

func TestServer(t *testing.T) {
	t.Run("map key of `serverErrors` should be equal to error code", func(t *testing.T) {
		for j, e1 := range serverErrors {
			e2, ok := serverErrors[j]
			require.True(t, ok)
			require.Equal(t, e1, e2)
			require.Equal(t, j, e1.Code)
		}
	})

	t.Run("should fail with invalid Engine.IO version", func(t *testing.T) {
		io := NewServer(nil, nil)
		require.NoError(t, io.Run())

		rec := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		q := req.URL.Query()
		q.Add("EIO", "523523")
		req.URL.RawQuery = q.Encode()

		io.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		e := new(ServerError)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), e))
		require.Equal(t, serverErrors[ErrorUnsupportedProtocolVersion].Code, e.Code)
	})

	t.Run("should fail with unknown transport name", func(t *testing.T) {
		io := NewServer(nil, nil)
		require.NoError(t, io.Run())

		rec := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		q := req.URL.Query()
		q.Add("EIO", strconv.Itoa(ProtocolVersion))
		q.Add("transport", "carrier-pigeon")
		req.URL.RawQuery = q.Encode()

		io.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		e := new(ServerError)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), e))
		require.Equal(t, serverErrors[ErrorUnknownTransport].Code, e.Code)
	})

	t.Run("should fail with unknown SID", func(t *testing.T) {
		io := NewServer(nil, nil)
		require.NoError(t, io.Run())

		rec := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		q := req.URL.Query()
		q.Add("EIO", strconv.Itoa(ProtocolVersion))
		q.Add("sid", "not-a-real-sid")
		req.URL.RawQuery = q.Encode()

		io.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		e := new(ServerError)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), e))
		require.Equal(t, serverErrors[ErrorUnknownSID].Code, e.Code)
	})

	t.Run("should fail when handshake is made with an invalid method", func(t *testing.T) {
		io := NewServer(nil, nil)
		require.NoError(t, io.Run())

		rec := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/", nil)
		q := req.URL.Query()
		q.Add("EIO", strconv.Itoa(ProtocolVersion))
		q.Add("transport", "polling")
		req.URL.RawQuery = q.Encode()

		io.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		e := new(ServerError)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), e))
		require.Equal(t, serverErrors[ErrorBadHandshakeMethod].Code, e.Code)
	})

	t.Run("authenticator rejecting a client should return 403", func(t *testing.T) {
		io := NewServer(nil, &ServerConfig{
			Authenticator: func(w http.ResponseWriter, r *http.Request) bool { return false },
		})
		require.NoError(t, io.Run())

		rec := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		q := req.URL.Query()
		q.Add("EIO", strconv.Itoa(ProtocolVersion))
		q.Add("transport", "polling")
		req.URL.RawQuery = q.Encode()

		io.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("polling handshake then JSONP round trip", func(t *testing.T) {
		const (
			pingInterval = 123456 * time.Second
			pingTimeout  = 654321 * time.Second
			jsonp        = "21"
		)

		testPacket := mustCreatePacket(t, parser.PacketTypeMessage, false, []byte("hello from server"))

		onSocket := func(socket ServerSocket) *Callbacks {
			socket.Send(testPacket)
			return &Callbacks{}
		}

		io := NewServer(onSocket, &ServerConfig{
			PingInterval: pingInterval,
			PingTimeout:  pingTimeout,
		})
		require.NoError(t, io.Run())

		// Handshake.
		rec := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		q := req.URL.Query()
		q.Add("EIO", strconv.Itoa(ProtocolVersion))
		q.Add("transport", "polling")
		q.Add("j", jsonp)
		req.URL.RawQuery = q.Encode()

		io.ServeHTTP(rec, req)
		require.Equal(t, 200, rec.Code)
		require.Equal(t, "text/javascript; charset=UTF-8", rec.Header().Get("Content-Type"))

		body := rec.Body.String()
		head := "___eio[" + jsonp + "](\""
		foot := "\");"
		require.True(t, strings.HasPrefix(body, head))
		require.True(t, strings.HasSuffix(body, foot))

		body = strings.TrimSuffix(strings.TrimPrefix(body, head), foot)
		body = strings.ReplaceAll(body, "\\\"", "\"")

		p, err := parser.Parse([]byte(body), false)
		require.NoError(t, err)

		hr := new(parser.HandshakeResponse)
		require.NoError(t, json.Unmarshal(p.Data, hr))
		require.Equal(t, pingInterval, hr.GetPingInterval())
		require.Equal(t, pingTimeout, hr.GetPingTimeout())
		sid := hr.SID

		// Poll for the queued message.
		rec = httptest.NewRecorder()
		req, _ = http.NewRequest("GET", "/", nil)
		q = req.URL.Query()
		q.Add("sid", sid)
		q.Add("EIO", strconv.Itoa(ProtocolVersion))
		q.Add("transport", "polling")
		q.Add("j", jsonp)
		req.URL.RawQuery = q.Encode()

		io.ServeHTTP(rec, req)
		require.Equal(t, 200, rec.Code)

		body = rec.Body.String()
		body = strings.TrimSuffix(strings.TrimPrefix(body, head), foot)
		body = strings.ReplaceAll(body, "\\\"", "\"")

		p1, err := parser.Parse([]byte(body), false)
		require.NoError(t, err)
		require.Equal(t, testPacket.Data, p1.Data)

		// Post data back to the server.
		buf := bytes.NewBuffer(nil)
		require.NoError(t, parser.EncodePayloads(buf, testPacket))

		d := "d=" + url.QueryEscape(buf.String())
		rec = httptest.NewRecorder()
		req, _ = http.NewRequest("POST", "/", bytes.NewBufferString(d))
		req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
		q = req.URL.Query()
		q.Add("sid", sid)
		q.Add("EIO", strconv.Itoa(ProtocolVersion))
		q.Add("transport", "polling")
		q.Add("j", jsonp)
		req.URL.RawQuery = q.Encode()

		io.ServeHTTP(rec, req)
		require.Equal(t, 200, rec.Code)
		require.Equal(t, "ok", rec.Body.String())
	})

	t.Run("server Close should reject further handshakes", func(t *testing.T) {
		io := NewServer(nil, nil)
		require.NoError(t, io.Run())
		require.NoError(t, io.Close())
		require.True(t, io.IsClosed())

		rec := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		io.ServeHTTP(rec, req)
		require.Equal(t, http.StatusTeapot, rec.Code)
	})
}

func mustCreatePacket(t *testing.T, typ parser.PacketType, isBinary bool, data []byte) *parser.Packet {
	p, err := parser.NewPacket(typ, isBinary, data)
	require.NoError(t, err)
	return p
}
