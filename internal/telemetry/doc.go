// Package telemetry observes slot construction through structured logs and
// OpenTelemetry spans.
//
// Both observers are exposed as [slot.Hook] values and can be combined with
// [Multi]:
//
//	hook := telemetry.Multi(telemetry.LogHook(logger), telemetry.TraceHook(provider.Tracer()))
//	registry := slot.NewRegistry(slot.WithRegistryHook(hook))
package telemetry
