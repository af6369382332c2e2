package cmd

import (
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/relex/gotils/logger"
)

type rootCommandState struct {
	CPUProfile string `name:"cpuprofile" help:"Write CPU profile to file."`
	MemProfile string `name:"memprofile" help:"Write memory profile to file on exit."`
	Trace      string `help:"Write trace to file."`

	stoppers []func()
}

var rootCmd rootCommandState

// profiler starts writing a profile of some kind to the opened file, and returns the function to finish it
type profiler func(f *os.File) (func(), error)

func (cmd *rootCommandState) preRun() {
	cmd.startProfile("CPU profile", cmd.CPUProfile, func(f *os.File) (func(), error) {
		if err := pprof.StartCPUProfile(f); err != nil {
			return nil, err
		}
		return pprof.StopCPUProfile, nil
	})
	cmd.startProfile("memory profile", cmd.MemProfile, func(f *os.File) (func(), error) {
		return func() {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				logger.Errorf("failed to write memory profile: %s", err.Error())
			}
		}, nil
	})
	cmd.startProfile("trace", cmd.Trace, func(f *os.File) (func(), error) {
		if err := trace.Start(f); err != nil {
			return nil, err
		}
		return trace.Stop, nil
	})
}

func (cmd *rootCommandState) postRun() {
	for i := len(cmd.stoppers) - 1; i >= 0; i-- {
		cmd.stoppers[i]()
	}
	cmd.stoppers = nil
}

func (cmd *rootCommandState) startProfile(kind string, path string, start profiler) {
	if path == "" {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		logger.Fatalf("failed to create %s %s: %s", kind, path, err.Error())
	}
	stop, err := start(f)
	if err != nil {
		logger.Fatalf("failed to start %s: %s", kind, err.Error())
	}
	logger.Infof("start %s %s", kind, path)
	cmd.stoppers = append(cmd.stoppers, func() {
		stop()
		f.Close()
	})
}
