package main

import (
	"errors"
	"fmt"
	"os"

	"lamina/internal/buildpipeline"
	"lamina/internal/ffi"
	"lamina/internal/project"
)

const noManifestMessage = "no lamina.toml found in the current directory or its parents; pass a source path explicitly"

// buildInput is what a command compiles, merged from lamina.toml and args.
type buildInput struct {
	Path   string
	IsDir  bool
	Name   string
	Target buildpipeline.Target
	Out    string
	Jobs   int
	Env    *ffi.Env
	// Manifest is nil when no lamina.toml was found.
	Manifest *project.Manifest
}

func resolveInput(args []string) (buildInput, error) {
	var in buildInput
	manifest, found, err := project.Load(".")
	if err != nil {
		return in, err
	}
	if found {
		in.Manifest = manifest
		in.Path = manifest.MainPath()
		in.Name = manifest.Config.Package.Name
		in.Out = manifest.OutDir()
		in.Jobs = manifest.Config.Build.Jobs
		if in.Target, err = buildpipeline.ParseTarget(manifest.Config.Build.Target); err != nil {
			return in, fmt.Errorf("%s: %w", manifest.Path, err)
		}
		if in.Env, err = manifest.Config.Env(); err != nil {
			return in, fmt.Errorf("%s: %w", manifest.Path, err)
		}
	}
	if len(args) > 0 {
		in.Path = args[0]
		// имя пакета относится только к [build].main
		in.Name = ""
	}
	if in.Path == "" {
		return in, errors.New(noManifestMessage)
	}
	if in.Target == "" {
		in.Target = buildpipeline.TargetEVM
	}
	if in.Out == "" {
		in.Out = "build"
	}
	st, err := os.Stat(in.Path)
	if err != nil {
		return in, fmt.Errorf("failed to stat %s: %w", in.Path, err)
	}
	in.IsDir = st.IsDir()
	return in, nil
}
