package testutil

import "github.com/c360/panicstore/keys"

// Sample stored values shaped like what the monitoring backend writes.
const (
	CosmosMonitorables = `{"chains":{"cosmoshub":{"parent_id":"chain_name_1",` +
		`"monitored":{"systems":[{"system_1":"cosmoshub-node"}],"repos":[]}}}}`
	GeneralMonitorables = `{"chains":{"general":{"parent_id":"GENERAL",` +
		`"monitored":{"systems":[{"system_2":"host-a"}]}}}}`
	ComponentHeartbeat = `{"component_name":"alerter","is_alive":true,"timestamp":1700000000.5}`
	MalformedValue     = `{"chains":`
)

// DashboardValues returns a store snapshot keyed by concrete store keys:
// two base chains, CPU readings for three systems (one malformed) and a
// component heartbeat.
func DashboardValues() map[string]string {
	cpu := func(id string) string {
		return keys.MustBuildKey(keys.CategorySystem, "process_cpu_seconds_total", keys.DefaultPostfix, id)
	}
	return map[string]string{
		keys.MonitorablesInfo("cosmos"):    CosmosMonitorables,
		keys.MonitorablesInfo("general"):   GeneralMonitorables,
		cpu("system_1"):                    "1523.75",
		cpu("system_2"):                    "88",
		cpu("system_3"):                    MalformedValue,
		keys.ComponentHeartbeat("alerter"): ComponentHeartbeat,
	}
}
