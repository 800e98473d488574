// Package probe produces raw resource readings for the alerting engine.
//
// System wraps gopsutil for disk (percent free), CPU (percent used over a
// one second window) and RAM (percent used). Its collection functions are
// fields so tests can replace them without touching the host.
//
// GPU readings come from NVML on linux cgo builds; other builds compile a
// stub whose Present always reports false.
package probe
