package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/papyruslabs-ai/seshat-swarm/internal/catalog"
	"github.com/papyruslabs-ai/seshat-swarm/internal/comms"
	"github.com/papyruslabs-ai/seshat-swarm/internal/coordinator"
	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
	"github.com/papyruslabs-ai/seshat-swarm/internal/world"
)

func newTestServer(t *testing.T) (*Server, *coordinator.Coordinator) {
	t.Helper()
	hover := &catalog.BehavioralPattern{
		ID: "hover-autonomous-performer-bare.crazyflie-2.1",
		Core: dimension.CorePattern{
			Sigma: dimension.Hover, Kappa: dimension.Autonomous, Chi: dimension.Performer,
			Lambda: dimension.DefaultOwnership(dimension.Performer), Tau: dimension.Bare, Rho: dimension.Crazyflie21,
		},
	}
	idx := catalog.NewIndex(map[string]*catalog.BehavioralPattern{hover.ID: hover}, nil, dimension.NewTransitionMatrix(dimension.DefaultRules()))
	sc := comms.NewSimComms()
	co := coordinator.New(context.Background(), sc, idx, coordinator.DefaultConfig())
	co.Start(context.Background(), []string{"d0"})
	co.RegisterDrone("d0", dimension.Crazyflie21, dimension.Bare, hover.ID, world.SensorState{
		Position: world.Position{X: 0, Y: 0, Z: 1}, BatteryPercentage: 0.8, PositionQuality: 1,
	})
	return NewServer(co), co
}

func doGet(t *testing.T, mux http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func testMux(s *Server) *http.ServeMux {
	mux := http.NewServeMux()
	s.routes(mux)
	return mux
}

func TestHandleStatus(t *testing.T) {
	s, co := newTestServer(t)
	co.Tick(time.Now())
	rec := doGet(t, testMux(s), "/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["drone_count"].(float64) != 1 {
		t.Errorf("drone_count = %v, want 1", body["drone_count"])
	}
}

func TestHandleDrones(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doGet(t, testMux(s), "/drones")
	var drones []coordinator.DroneSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &drones); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(drones) != 1 || drones[0].ID != "d0" {
		t.Errorf("drones = %+v, want one entry for d0", drones)
	}
}

func TestHandleAssignmentsAndRoles(t *testing.T) {
	s, _ := newTestServer(t)
	if rec := doGet(t, testMux(s), "/assignments"); rec.Code != http.StatusOK {
		t.Errorf("/assignments status = %d", rec.Code)
	}
	if rec := doGet(t, testMux(s), "/roles"); rec.Code != http.StatusOK {
		t.Errorf("/roles status = %d", rec.Code)
	}
}
