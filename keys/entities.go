package keys

// Helpers for the statically known keys written by the monitoring pipeline.
// All of them go through BuildKey with DefaultPostfix.

// ParentHash is the hash holding every metric of a parent chain or general repository set
func ParentHash(parentID string) string {
	return MustBuildKey(CategoryHash, FieldParent, DefaultPostfix, parentID)
}

// SystemMetric returns the key of a system metric
func SystemMetric(field, systemID string) (string, error) {
	return BuildKey(CategorySystem, field, DefaultPostfix, systemID)
}

// GitHubMetric returns the key of a repository metric
func GitHubMetric(field, repoID string) (string, error) {
	return BuildKey(CategoryGitHub, field, DefaultPostfix, repoID)
}

// AlertMetric returns the key of an alert state entry for an origin
func AlertMetric(field, originID string) (string, error) {
	return BuildKey(CategoryAlert, field, DefaultPostfix, originID)
}

// ComponentHeartbeat is the heartbeat key of a pipeline component
func ComponentHeartbeat(componentName string) string {
	return MustBuildKey(CategoryComponent, FieldHeartbeat, DefaultPostfix, componentName)
}

// ChainMute is the mute flag of a chain
func ChainMute(chainName string) string {
	return MustBuildKey(CategoryChain, FieldMuteAlerts, DefaultPostfix, chainName)
}

// AlerterMute is the mute flag of an alerter
func AlerterMute(alerterID string) string {
	return MustBuildKey(CategoryAlerter, FieldMute, DefaultPostfix, alerterID)
}

// ConfigKey stores a configuration document received under routingKey
func ConfigKey(routingKey string) string {
	return MustBuildKey(CategoryConfig, FieldConfig, DefaultPostfix, routingKey)
}

// MonitorablesInfo is the summary of monitorables of a base chain
func MonitorablesInfo(baseChain string) string {
	return MustBuildKey(CategoryBaseChain, FieldMonitorablesInfo, DefaultPostfix, baseChain)
}
