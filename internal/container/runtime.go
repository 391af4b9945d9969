// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container detects a local container runtime and manages the Qdrant
// service container used for development.
package container

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Service describes a long-running container.
type Service struct {
	Name   string
	Image  string
	Ports  []string // host:container
	Volume string   // name:path
	Env    map[string]string
}

// QdrantService is the local vector database: REST on 6333, gRPC on 6334,
// storage in a named volume.
func QdrantService(apiKey string) Service {
	svc := Service{
		Name:   "desk-researcher-qdrant",
		Image:  "docker.io/qdrant/qdrant:latest",
		Ports:  []string{"6333:6333", "6334:6334"},
		Volume: "desk-researcher-qdrant:/qdrant/storage",
	}
	if apiKey != "" {
		svc.Env = map[string]string{"QDRANT__SERVICE__API_KEY": apiKey}
	}
	return svc
}

// Container states reported by Status.
const (
	StateRunning = "running"
	StateMissing = "missing"
)

// Runtime provides container operations.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available() bool

	// ImageExists checks whether the named image exists locally.
	ImageExists(image string) error

	// Start runs svc detached, restarting a stopped container of the same name.
	// It returns the resulting state.
	Start(svc Service) (string, error)

	// Status returns the container state ("running", "exited", ...) or
	// StateMissing when no container has that name.
	Status(name string) (string, error)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	Output(name string, args ...string) (string, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) Output(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// runtime implements Runtime for docker and podman, which differ only in
// binary name and the image check subcommand.
type runtime struct {
	bin           string
	imageCheckCmd []string
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(r.bin, "info") == nil
}

func (r *runtime) ImageExists(image string) error {
	args := append(append([]string{}, r.imageCheckCmd...), image)
	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Status(name string) (string, error) {
	out, err := r.exec.Output(r.bin, "container", "inspect", "--format", "{{.State.Status}}", name)
	if err != nil {
		if strings.Contains(strings.ToLower(out), "no such") {
			return StateMissing, nil
		}
		return "", fmt.Errorf("inspecting %s container %s: %w: %s", r.bin, name, err, out)
	}
	return out, nil
}

func (r *runtime) Start(svc Service) (string, error) {
	state, err := r.Status(svc.Name)
	if err != nil {
		return "", err
	}
	switch state {
	case StateRunning:
		return StateRunning, nil
	case StateMissing:
		if out, err := r.exec.Output(r.bin, runArgs(svc)...); err != nil {
			return "", fmt.Errorf("running %s container %s: %w: %s", r.bin, svc.Image, err, out)
		}
	default:
		if out, err := r.exec.Output(r.bin, "start", svc.Name); err != nil {
			return "", fmt.Errorf("starting %s container %s: %w: %s", r.bin, svc.Name, err, out)
		}
	}
	return StateRunning, nil
}

// runArgs builds the detached run command line for svc.
func runArgs(svc Service) []string {
	args := []string{"run", "-d", "--name", svc.Name}
	for _, p := range svc.Ports {
		args = append(args, "-p", p)
	}
	if svc.Volume != "" {
		args = append(args, "-v", svc.Volume)
	}
	keys := make([]string, 0, len(svc.Env))
	for k := range svc.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+svc.Env[k])
	}
	return append(args, svc.Image)
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{bin: binDocker, imageCheckCmd: []string{"image", "inspect"}, exec: exec}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{bin: binPodman, imageCheckCmd: []string{"image", "exists"}, exec: exec}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (Runtime, error) {
	for _, rt := range []*runtime{newDockerRuntime(exec), newPodmanRuntime(exec)} {
		if rt.Available() {
			return rt, nil
		}
	}
	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}
