package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"
	"github.com/xlthimolx/djpult/cmd/board"
	"github.com/xlthimolx/djpult/cmd/configure"
	"github.com/xlthimolx/djpult/cmd/pick"
	"github.com/xlthimolx/djpult/cmd/scan"
	"github.com/xlthimolx/djpult/cmd/serve"
	"github.com/xlthimolx/djpult/cmd/stats"
)

// Command group IDs
const (
	groupPlayback = "playback"
	groupLibrary  = "library"
	groupNetwork  = "network"
)

// withGroup sets the GroupID on a command and returns it
func withGroup(cmd *cobra.Command, group string) *cobra.Command {
	cmd.GroupID = group
	return cmd
}

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "djpult",
		Short:   "Soundboard for the sports DJ",
		Version: appVersion(),
		Groups: []*cobra.Group{
			{ID: groupPlayback, Title: "Playback:"},
			{ID: groupLibrary, Title: "Library:"},
			{ID: groupNetwork, Title: "Network:"},
		},
		SubCmds: []*cobra.Command{
			// Playback
			withGroup(board.Cmd(), groupPlayback),
			withGroup(pick.Cmd(), groupPlayback),

			// Library
			withGroup(scan.Cmd(), groupLibrary),
			withGroup(stats.Cmd(), groupLibrary),
			withGroup(configure.Cmd(), groupLibrary),

			// Network
			withGroup(serve.Cmd(), groupNetwork),
		},
	}.Run()
}

func appVersion() string {
	bi, hasBuilInfo := debug.ReadBuildInfo()
	if !hasBuilInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
