package job

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zenvpn/zen-console/client"
	"github.com/zenvpn/zen-console/config"
	"github.com/zenvpn/zen-console/model"
	"github.com/zenvpn/zen-console/service"
)

func TestRunRecordsLiveness(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/nodes":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []model.Node{
				{ID: 1, Name: "fra-1"}, {ID: 2, Name: "ams-1"},
			}})
		case "/nodes/1/status":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"online": true}})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "no route"})
		}
	}))
	defer srv.Close()

	cfg := config.Config{PanelURL: srv.URL, TokenFile: filepath.Join(t.TempDir(), "token")}
	services := service.NewWithClient(client.New(srv.URL, 5*time.Second), cfg)

	j := NewCheckNodeStatusJob(services, 5*time.Second)
	j.Run()

	assert.Equal(t, model.NodeOnline, services.Nodes.Status(1))
	assert.Equal(t, model.NodeOffline, services.Nodes.Status(2), "unreachable agent degrades to offline")
}

func TestRunWithZeroTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/nodes":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []model.Node{{ID: 1, Name: "fra-1"}}})
		case "/nodes/1/status":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"online": true}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := config.Config{PanelURL: srv.URL, TokenFile: filepath.Join(t.TempDir(), "token")}
	services := service.NewWithClient(client.New(srv.URL, 0), cfg)

	// zero means no deadline, the same as the client's timeout handling
	j := NewCheckNodeStatusJob(services, 0)
	j.Run()

	assert.Equal(t, model.NodeOnline, services.Nodes.Status(1))
}
