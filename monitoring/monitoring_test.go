package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestMetricsCollectorSnapshot(t *testing.T) {
	mc := NewMetricsCollector()

	mc.RecordRequest(20*time.Millisecond, false)
	mc.RecordRequest(40*time.Millisecond, true)
	mc.RecordPredictions(10, 3)
	mc.RecordTraining()
	mc.RecordUpload(120)

	snapshot := mc.Snapshot()
	if snapshot["request_count"].(int64) != 2 {
		t.Errorf("request_count = %v", snapshot["request_count"])
	}
	if snapshot["error_count"].(int64) != 1 {
		t.Errorf("error_count = %v", snapshot["error_count"])
	}
	if snapshot["high_risk_count"].(int64) != 3 {
		t.Errorf("high_risk_count = %v", snapshot["high_risk_count"])
	}
	if snapshot["rows_ingested"].(int64) != 120 {
		t.Errorf("rows_ingested = %v", snapshot["rows_ingested"])
	}
	if snapshot["avg_latency_ms"].(float64) != 30 {
		t.Errorf("avg_latency_ms = %v", snapshot["avg_latency_ms"])
	}
}

func TestAlertHubBroadcast(t *testing.T) {
	hub := NewAlertHub()
	go hub.Run()
	defer hub.Stop()

	wsServer := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer wsServer.Close()

	url := "ws" + strings.TrimPrefix(wsServer.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	// Give the hub a moment to register the client.
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(AlertHighRisk, map[string]int{"high_risk_students": 4})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var alert Alert
	if err := json.Unmarshal(payload, &alert); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if alert.Type != AlertHighRisk {
		t.Errorf("expected %s, got %s", AlertHighRisk, alert.Type)
	}
}
