// SPDX-License-Identifier: MPL-2.0

package container

import (
	"slices"
	"testing"
)

func TestPodmanEngine_RunContainer_StdoutLog(t *testing.T) {
	t.Parallel()

	recorder := NewMockCommandRecorder()
	engine := newTestPodmanEngine(t, recorder)

	_, err := engine.RunContainer(t.Context(), RunOptions{
		Name:         "haproxy",
		Image:        "centos-haproxy:latest",
		Detach:       true,
		StdoutLogDir: "/var/log/containers/stdouts",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recorder.AssertCommandName(t, "/usr/bin/podman")
	recorder.AssertArgsContain(t, "--log-driver k8s-file --log-opt path=/var/log/containers/stdouts/haproxy.log centos-haproxy:latest")
}

func TestPodmanEngine_RunContainer_NoStdoutLog(t *testing.T) {
	t.Parallel()

	recorder := NewMockCommandRecorder()
	engine := newTestPodmanEngine(t, recorder)

	if _, err := engine.RunContainer(t.Context(), RunOptions{Name: "haproxy", Image: "img"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slices.Contains(recorder.LastArgs(), "--log-driver") {
		t.Errorf("did not expect log driver flags: %v", recorder.LastArgs())
	}
}

func TestPodmanEngine_ImageExists(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()
		recorder := NewMockCommandRecorder()
		engine := newTestPodmanEngine(t, recorder)

		ok, err := engine.ImageExists(t.Context(), "keystone:latest")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Error("expected image to exist")
		}
		recorder.AssertArgs(t, "image", "exists", "keystone:latest")
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()
		recorder := NewMockCommandRecorder()
		recorder.Default = MockResponse{ExitCode: 1}
		engine := newTestPodmanEngine(t, recorder)

		ok, err := engine.ImageExists(t.Context(), "keystone:latest")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected image to be absent")
		}
	})
}

func TestPodmanEngine_Version(t *testing.T) {
	t.Parallel()

	recorder := NewMockCommandRecorder()
	recorder.Default = MockResponse{Stdout: "4.9.4\n"}
	engine := newTestPodmanEngine(t, recorder)

	v, err := engine.Version(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "4.9.4" {
		t.Errorf("Version() = %q, want 4.9.4", v)
	}
}
