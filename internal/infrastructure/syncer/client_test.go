package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sync" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("pwd") != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"success":false,"error":"密码错误"}`)
			return
		}
		fmt.Fprint(w, `{"success":true,"data":{"version":"1.0","data":{"crypto":[{"symbol":"BTCUSDT"}]}}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "s3cret")
	blob, err := c.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}

	var panels map[string]json.RawMessage
	if err := json.Unmarshal(blob, &panels); err != nil {
		t.Fatalf("pulled blob is not valid json: %v", err)
	}
	if _, ok := panels["crypto"]; !ok {
		t.Fatalf("expected crypto panel in %s", blob)
	}
}

func TestPullWrongPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"success":false,"error":"密码错误"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "wrong")
	if _, err := c.Pull(context.Background()); err == nil {
		t.Fatal("expected error on wrong password")
	}
}

func TestPullEmptyRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"data":{"version":"1.0","lastUpdate":null,"data":{}}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "s3cret")
	blob, err := c.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if blob != nil {
		t.Fatalf("empty remote should yield nil blob, got %s", blob)
	}
}

func TestPush(t *testing.T) {
	var received []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		var p struct {
			Version string          `json:"version"`
			Data    json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("bad push body: %v", err)
		}
		received = p.Data
		fmt.Fprint(w, `{"success":true,"message":"配置已更新"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "s3cret")
	if err := c.Push(context.Background(), []byte(`{"crypto":[]}`)); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if string(received) != `{"crypto":[]}` {
		t.Fatalf("unexpected pushed data %s", received)
	}
}
