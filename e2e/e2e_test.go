package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/tripshift/app"
	"github.com/kilianp07/tripshift/config"
	"github.com/kilianp07/tripshift/core/factory"
	"github.com/kilianp07/tripshift/core/runlog"
	"github.com/kilianp07/tripshift/infra/loader"
	"github.com/kilianp07/tripshift/infra/mqtt"
	"github.com/kilianp07/tripshift/pkg/export"
)

const (
	influxOrg    = "e2e_org"
	influxBucket = "e2e_bucket"
	influxToken  = "e2e-token"
)

// startInflux starts an InfluxDB 2.7 container already set up with the e2e
// organisation, bucket and token.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return cont, fmt.Sprintf("http://%s:%s", host, port.Port())
}

// startMosquitto spins up a broker accepting anonymous clients.
func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:1.6",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return cont, fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

// subscribe collects the payloads published below topic.
func subscribe(t *testing.T, broker, topic string) <-chan []byte {
	t.Helper()
	msgs := make(chan []byte, 8)
	cli := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("e2e-subscriber"))
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		t.Fatalf("subscriber connect: %v", token.Error())
	}
	t.Cleanup(func() { cli.Disconnect(100) })
	token := cli.Subscribe(topic+"/#", 1, func(_ paho.Client, m paho.Message) {
		msgs <- m.Payload()
	})
	if token.Wait() && token.Error() != nil {
		t.Fatalf("subscribe: %v", token.Error())
	}
	return msgs
}

// Test_E2E_Reschedule runs a full reassignment with the InfluxDB sink, the
// MQTT publisher and the SQLite run log against real backends.
func Test_E2E_Reschedule(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	influxCont, influxURL := startInflux(ctx, t)
	defer influxCont.Terminate(ctx) //nolint:errcheck
	mqttCont, broker := startMosquitto(ctx, t)
	defer mqttCont.Terminate(ctx) //nolint:errcheck

	dir := t.TempDir()
	trips := filepath.Join(dir, "trips.csv")
	data := "car_id;start_ts;last_logout_ts\n" +
		"6;2019-03-01 08:00:00+01:00;2019-03-01 10:00:00+01:00\n" +
		"6;2019-03-01 09:00:00+01:00;2019-03-01 11:00:00+01:00\n" +
		"7;2019-03-01 12:00:00+01:00;2019-03-01 13:00:00+01:00\n"
	if err := os.WriteFile(trips, []byte(data), 0o600); err != nil {
		t.Fatalf("write trips: %v", err)
	}

	cfg := &config.Config{
		Fleet: config.FleetConfig{
			CarIDs: []string{"6", "7"},
			Window: config.WindowConfig{Start: "2019-03-01", End: "2019-03-02"},
		},
		Loader: loader.Config{Path: trips, FilterWindow: true},
		Runlog: runlog.Config{Backend: "sqlite", Path: filepath.Join(dir, "runs.db")},
		MQTT:   mqtt.Config{Broker: broker, ClientID: "e2e-publisher", Topic: "tripshift/e2e", QoS: 1},
	}
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "influx", Conf: map[string]any{
		"url": influxURL, "token": influxToken, "org": influxOrg, "bucket": influxBucket,
	}}}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	msgs := subscribe(t, broker, cfg.MQTT.Topic)

	svc, err := app.New(cfg)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	out, err := svc.Run(ctx, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if out.Record.Assigned != 3 || out.Record.Dropped != 0 {
		t.Fatalf("unexpected run %+v", out.Record)
	}

	select {
	case payload := <-msgs:
		var doc export.ReportDoc
		if err := json.Unmarshal(payload, &doc); err != nil {
			t.Fatalf("decode report: %v", err)
		}
		if doc.RunID != out.Record.ID || len(doc.Cars) != 2 {
			t.Fatalf("unexpected report %+v", doc)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("no report received on %s", cfg.MQTT.Topic)
	}

	cli := NewInfluxClient(influxURL, influxOrg, influxBucket, influxToken)
	defer cli.Close()
	n, err := cli.CountPoints(ctx, "car_utilization", map[string]string{"run_id": out.Record.ID})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	// 3 fields for 2 cars and the fleet, before and after
	if n != 18 {
		t.Fatalf("expected 18 utilization records, got %d", n)
	}

	store, err := runlog.NewSQLiteStore(cfg.Runlog.Path)
	if err != nil {
		t.Fatalf("open runlog: %v", err)
	}
	defer func() { _ = store.Close() }()
	recs, err := store.Query(ctx, runlog.Query{})
	if err != nil || len(recs) != 1 || recs[0].ID != out.Record.ID {
		t.Fatalf("runlog not written: %v %+v", err, recs)
	}
}
