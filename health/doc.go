// Package health provides health reporting for the dashboard data layer.
//
// A Status is healthy, degraded or unhealthy. Monitor aggregates component
// statuses, either pushed with Update or pulled from a registered CheckFunc
// each time Check runs. FromConnection turns a store connection report into
// a Status, so a reconnecting store shows as degraded and a terminally
// failed one as unhealthy:
//
//	monitor := health.NewMonitor()
//	monitor.Register("store", func() health.Status {
//	    return health.FromConnection("store", report())
//	})
//	status := monitor.Check("panicstore")
//
// Error messages embedded in statuses are sanitized: addresses, paths and
// credentials are replaced before they reach clients.
package health
