package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/chatvault/internal/dagger"
)

// Build and return directory of go binaries
func (c *Chatvault) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	// CGO rules out cross compiling from one container, so each
	// architecture builds natively on its own platform.
	platforms := []dagger.Platform{"linux/amd64", "linux/arm64"}

	// create empty directory to put build artifacts
	outputs := dag.Directory()

	for _, platform := range platforms {
		// create directory for each OS and architecture
		path := string(platform) + "/"

		build := c.goContainer(platform).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/chatvault"})

		// add build to outputs
		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	// return build directory
	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (c *Chatvault) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/chatvault/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/chatvault/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/chatvault/pkg/utils.Buildtime=%s'", buildtime),
	}

	return c.Build(ctx, strings.Join(ldflags, " "))
}
