// Package buildinfo exposes version information injected at build time:
//
//	go build -ldflags "-X github.com/fintrackr/fintrackr/internal/infra/buildinfo.Version=v1.2.0 \
//	  -X github.com/fintrackr/fintrackr/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo
