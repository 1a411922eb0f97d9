package orchestrator

import (
	"fmt"
	"testing"

	"github.com/orbitfold/constellation-sim/internal/model"
)

const radioParamsJSON = `
		"frequency_hz": 868000000,
		"bandwidth_hz": 125000,
		"spreading_factor": 7,
		"coding_rate": 5,
		"preamble_symbols": 8,
		"tx_antenna_gain_db": 2,
		"tx_power_dbw": 0.1,
		"tx_line_loss_db": 0.5,
		"rx_antenna_gain_db": 2,
		"rx_line_loss_db": 0.5,
		"gain_to_temperature_db": 5,
		"bits_allowed": 0,
		"symbol_rate_baud": 125000,
		"num_channels": 1`

func testScenarioJSON(logFolder string) []byte {
	return []byte(fmt.Sprintf(`{
		"topologies": [{
			"name": "test",
			"id": 0,
			"nodes": [
				{
					"type": "GS",
					"iname": "GroundStation",
					"nodeid": 1,
					"loglevel": "info",
					"latitude": 10.0,
					"longitude": 20.0,
					"models": [
						{"iname": "ModelFixedOrbit", "altitude_meters": 0},
						{"iname": "ModelLoraRadio", %s},
						{"iname": "ModelDataRelay", "queue_capacity": 10},
						{"iname": "ModelMACGS", "request_count": 1, "inactivity_timeout_seconds": 30}
					]
				},
				{
					"type": "IoT",
					"iname": "EndDevice",
					"nodeid": 2,
					"loglevel": "info",
					"latitude": 11.0,
					"longitude": 21.0,
					"models": [
						{"iname": "ModelFixedOrbit", "altitude_meters": 0},
						{"iname": "ModelDataGenerator", "rate_per_step": 0.1, "unit_size_bytes": 32, "queue_capacity": 10},
						{"iname": "ModelLoraRadio", %s},
						{"iname": "ModelMACIot", "backoff_max_seconds": 5, "retransmit_seconds": 2}
					]
				}
			]
		}],
		"simtime": {"starttime": "2024-01-01 00:00:00", "endtime": "2024-01-01 00:01:00", "delta": 1},
		"simlogsetup": {"loghandler": "file", "logfolder": %q, "logchunksize": 1024}
	}`, radioParamsJSON, radioParamsJSON, logFolder))
}

func TestBuildConstructsNodesAndModels(t *testing.T) {
	env, err := Build(testScenarioJSON(t.TempDir()), 2, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer func() {
		for _, l := range env.Loggers {
			l.Close()
		}
	}()

	if env.NumSteps != 60 {
		t.Fatalf("NumSteps = %d, want 60", env.NumSteps)
	}
	if len(env.Topologies) != 1 {
		t.Fatalf("Topologies = %d, want 1", len(env.Topologies))
	}
	nodes := env.Topologies[0].Nodes()
	if len(nodes) != 2 {
		t.Fatalf("Nodes = %d, want 2", len(nodes))
	}

	gs, ok := env.Topologies[0].GetNode(1)
	if !ok {
		t.Fatal("ground station node not found")
	}
	if len(gs.Models()) != 4 {
		t.Fatalf("ground station models = %d, want 4", len(gs.Models()))
	}
	if _, ok := gs.HasModelWithTag(model.TagMAC); !ok {
		t.Fatal("ground station missing MAC model")
	}

	iot, ok := env.Topologies[0].GetNode(2)
	if !ok {
		t.Fatal("end device node not found")
	}
	if _, ok := iot.HasModelWithTag(model.TagDataGenerator); !ok {
		t.Fatal("end device missing data generator model")
	}
}

func TestBuildExecutesOneStepWithoutError(t *testing.T) {
	env, err := Build(testScenarioJSON(t.TempDir()), 2, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer func() {
		for _, l := range env.Loggers {
			l.Close()
		}
	}()

	for _, n := range env.Topologies[0].Nodes() {
		if err := n.Execute(); err != nil {
			t.Fatalf("node %d Execute: %v", n.ID, err)
		}
	}
}

func TestBuildRejectsUnknownModelType(t *testing.T) {
	bad := []byte(`{
		"topologies": [{"name": "t", "id": 0, "nodes": [
			{"type": "GS", "iname": "n", "nodeid": 1, "loglevel": "info", "latitude": 0, "longitude": 0,
			 "models": [{"iname": "ModelDoesNotExist"}]}
		]}],
		"simtime": {"starttime": "2024-01-01 00:00:00", "endtime": "2024-01-01 00:01:00", "delta": 1},
		"simlogsetup": {"loghandler": "file", "logfolder": "` + t.TempDir() + `", "logchunksize": 1024}
	}`)
	if _, err := Build(bad, 1, nil); err == nil {
		t.Fatal("expected an error for an unknown model type")
	}
}

func testSchedulerScenarioJSON(logFolder string) []byte {
	return []byte(fmt.Sprintf(`{
		"topologies": [{
			"name": "test",
			"id": 0,
			"nodes": [
				{
					"type": "GS",
					"iname": "GroundStation",
					"nodeid": 1,
					"loglevel": "info",
					"latitude": 10.0,
					"longitude": 20.0,
					"models": [
						{"iname": "ModelFixedOrbit", "altitude_meters": 0},
						{"iname": "ModelImagingRadio", %s},
						{"iname": "ModelDataRelay", "queue_capacity": 10}
					]
				},
				{
					"type": "SAT",
					"iname": "RelaySat",
					"nodeid": 2,
					"loglevel": "info",
					"latitude": 11.0,
					"longitude": 21.0,
					"tle_1": "1 25544U 98067A   24001.50000000  .00016717  00000-0  10270-3 0  9991",
					"tle_2": "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.49560771417771",
					"models": [
						{"iname": "ModelOrbit"},
						{"iname": "ModelPower", "max_charge_joules": 100, "min_charge_joules": 0, "initial_charge_joules": 100, "power_generation_w": 1},
						{"iname": "ModelDataGenerator", "rate_per_step": 0.5, "unit_size_bytes": 32, "queue_capacity": 10},
						{"iname": "ModelImagingRadio", %s},
						{"iname": "ModelEdgeCompute", "schedule": [
							{"destination_nodeid": 1, "start": "2024-01-01 00:00:00", "end": "2024-01-01 00:01:00"}
						]}
					]
				}
			]
		}],
		"simtime": {"starttime": "2024-01-01 00:00:00", "endtime": "2024-01-01 00:01:00", "delta": 1},
		"simlogsetup": {"loghandler": "file", "logfolder": %q, "logchunksize": 1024}
	}`, radioParamsJSON, radioParamsJSON, logFolder))
}

func TestBuildExecutesSchedulerModel(t *testing.T) {
	env, err := Build(testSchedulerScenarioJSON(t.TempDir()), 2, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer func() {
		for _, l := range env.Loggers {
			l.Close()
		}
	}()

	sat, ok := env.Topologies[0].GetNode(2)
	if !ok {
		t.Fatal("relay satellite node not found")
	}
	if _, ok := sat.HasModelWithTag(model.TagScheduler); !ok {
		t.Fatal("relay satellite missing scheduler model")
	}

	for _, n := range env.Topologies[0].Nodes() {
		if err := n.Execute(); err != nil {
			t.Fatalf("node %d Execute: %v", n.ID, err)
		}
	}
}

func TestBuildRejectsDuplicateModelName(t *testing.T) {
	bad := []byte(`{
		"topologies": [{"name": "t", "id": 0, "nodes": [
			{"type": "GS", "iname": "n", "nodeid": 1, "loglevel": "info", "latitude": 0, "longitude": 0,
			 "models": [{"iname": "ModelFixedOrbit", "altitude_meters": 0}, {"iname": "ModelFixedOrbit", "altitude_meters": 0}]}
		]}],
		"simtime": {"starttime": "2024-01-01 00:00:00", "endtime": "2024-01-01 00:01:00", "delta": 1},
		"simlogsetup": {"loghandler": "file", "logfolder": "` + t.TempDir() + `", "logchunksize": 1024}
	}`)
	if _, err := Build(bad, 1, nil); err == nil {
		t.Fatal("expected an error for two models sharing a name on the same node")
	}
}

func TestBuildRejectsMissingDependency(t *testing.T) {
	bad := []byte(`{
		"topologies": [{"name": "t", "id": 0, "nodes": [
			{"type": "GS", "iname": "n", "nodeid": 1, "loglevel": "info", "latitude": 0, "longitude": 0,
			 "models": [{"iname": "ModelMACGS", "request_count": 1, "inactivity_timeout_seconds": 30}]}
		]}],
		"simtime": {"starttime": "2024-01-01 00:00:00", "endtime": "2024-01-01 00:01:00", "delta": 1},
		"simlogsetup": {"loghandler": "file", "logfolder": "` + t.TempDir() + `", "logchunksize": 1024}
	}`)
	if _, err := Build(bad, 1, nil); err == nil {
		t.Fatal("expected an error when ModelMACGS has no radio/relay sibling built yet")
	}
}
