// Package version reports the flowkit engine version.
//
// A binary built from this module can set the version at link time:
//
//	go build -ldflags "-X github.com/kbukum/flowkit/version.Version=1.4.0"
//
// When flowkit is a dependency, the module version recorded in the build
// info is used instead.
package version
