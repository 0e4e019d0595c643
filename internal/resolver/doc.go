// Package resolver decides which prebuilt llama.cpp/ggml libraries a build
// links and which runtime files ship next to the produced binary.
//
// It is structured into small files by concern:
//
//   - resolver.go: Resolver type, Options, the platform dispatch table, ResolveAll.
//   - rules.go: fixed-layout rules for Linux, Mac and Android.
//   - win64.go: the Win64 capability/override algorithm.
//   - errors.go: ConfigurationError and helpers.
//   - metrics.go: Prometheus collectors for resolution outcomes.
//
// A resolution reads environment variables through probe.Env and checks file
// existence through fsutil.CheckDir. It never writes anything; the only
// output is the returned plan and an informational log line.
package resolver
