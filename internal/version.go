package internal

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/baalimago/metai/internal/utils"
)

// Set with buildflag if built in pipeline and not using go install
var (
	BuildVersion  = ""
	BuildChecksum = ""
)

func printVersion() error {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return errors.New("failed to read build info")
	}
	version, checksum := BuildVersion, BuildChecksum
	if version == "" {
		version = bi.Main.Version
	}
	if checksum == "" {
		checksum = bi.Main.Sum
	}
	fmt.Printf("version: %v, go version: %v, checksum: %v\n", version, bi.GoVersion, checksum)
	for _, dep := range bi.Deps {
		fmt.Printf("%s %s\n", dep.Path, dep.Version)
	}
	return utils.ErrUserInitiatedExit
}
