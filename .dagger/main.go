// chatvault CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
// It is the main harness for handling nearly all dev operations.
package main

import (
	"context"

	"dagger/chatvault/internal/dagger"
)

// Chatvault is the main module for the chatvault CI/CD pipeline
type Chatvault struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new chatvault CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", ".chatvault", "build", "tmp"]
	source *dagger.Directory,
) *Chatvault {
	return &Chatvault{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc,
// libsqlite3-dev, CGO enabled, and the project source mounted. The sqlite
// content store, record store and sqlite-vec index all need CGO.
//
// It is the shared foundation for tests, builds, and linting.
func (c *Chatvault) goContainer(platform dagger.Platform) *dagger.Container {
	return dag.Container(dagger.ContainerOpts{Platform: platform}).
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod-"+string(platform))).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build-"+string(platform))).
		WithWorkdir("/src").
		WithDirectory("/src", c.Source)
}

// Test runs the chatvault unit tests via "go test"
func (c *Chatvault) Test(ctx context.Context) (string, error) {
	return c.goContainer("").
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}

// TestRace runs the unit tests with the race detector. The worker pool,
// inbox watcher and archive fan-out are the packages it mostly matters for.
func (c *Chatvault) TestRace(ctx context.Context) (string, error) {
	return c.goContainer("").
		WithExec([]string{"go", "test", "-race", "./pkg/...", "./api/..."}).
		Stdout(ctx)
}
