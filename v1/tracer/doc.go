// Package tracer installs an OpenTelemetry TracerProvider for the process.
//
// The relational, redis and mongodb drivers start one client span per
// operation from the global provider, named after the operation (for example
// "db.query" or "redis.get") and carrying db.system, db.operation and the
// driver name. Without a Tracer those spans go to the no-op provider.
//
//	t, err := tracer.NewClient(tracer.Config{ServiceName: "billing", AppEnv: "prod", EnableExport: true}, log)
//	if err != nil {
//		return err
//	}
//	defer t.Shutdown(context.Background())
package tracer
