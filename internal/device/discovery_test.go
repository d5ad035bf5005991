package device

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDiscoverMissingDRMClass(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	infos, err := Discover(root, logger)
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("expected 0 GPUs, got %d", len(infos))
	}
}

func TestDiscoverAssignsIDsInOrder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cards := []struct{ name, slot, render string }{
		{"card0", "0000:00:01.0", "renderD128"},
		{"card1", "0000:00:02.0", "renderD129"},
	}
	for _, c := range cards {
		deviceDir := filepath.Join(root, "class", "drm", c.name, "device")
		renderDir := filepath.Join(deviceDir, "drm", c.render)
		if err := os.MkdirAll(renderDir, 0o750); err != nil {
			t.Fatalf("mkdir render dir: %v", err)
		}
		writeFile(t, filepath.Join(deviceDir, "uevent"), "PCI_SLOT_NAME="+c.slot+"\nPCI_ID=1002:73df\n")
	}

	infos, err := Discover(root, logger)
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 GPUs, got %d", len(infos))
	}

	seen := map[uint32]bool{}
	for _, info := range infos {
		if info.ID == 0 {
			t.Errorf("discovered device got reserved id 0: %+v", info)
		}
		if seen[info.ID] {
			t.Errorf("duplicate device id %d", info.ID)
		}
		seen[info.ID] = true
	}
	if infos[0].CardID != "card0" || infos[0].ID != 1 || infos[1].CardID != "card1" || infos[1].ID != 2 {
		t.Errorf("ids not assigned in discovery order: %+v", infos)
	}
}

func TestDiscoverFollowsSymlinks(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	classPath := filepath.Join(root, "class", "drm")
	if err := os.MkdirAll(classPath, 0o750); err != nil {
		t.Fatalf("mkdir class: %v", err)
	}

	target := filepath.Join(root, "devices", "pci0000:00", "0000:00:01.0", "drm", "card0")
	deviceDir := filepath.Join(target, "device")
	if err := os.MkdirAll(filepath.Join(deviceDir, "drm"), 0o750); err != nil {
		t.Fatalf("mkdir device: %v", err)
	}

	writeFile(t, filepath.Join(deviceDir, "uevent"), "PCI_SLOT_NAME=0000:00:01.0\nPCI_ID=1002:73df\n")
	writeFile(t, filepath.Join(deviceDir, "vendor"), "0x1002\n")
	writeFile(t, filepath.Join(deviceDir, "device"), "0x73df\n")
	if err := os.MkdirAll(filepath.Join(deviceDir, "drm", "renderD128"), 0o750); err != nil {
		t.Fatalf("mkdir render node: %v", err)
	}

	linkPath := filepath.Join(classPath, "card0")
	relTarget, err := filepath.Rel(classPath, target)
	if err != nil {
		t.Fatalf("filepath.Rel: %v", err)
	}
	if err := os.Symlink(relTarget, linkPath); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	infos, err := Discover(root, logger)
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if len(infos) != 1 || infos[0].CardID != "card0" {
		t.Fatalf("expected symlinked gpu, got %+v", infos)
	}
	if infos[0].ID != 1 {
		t.Fatalf("expected first discovered device id 1, got %d", infos[0].ID)
	}
	if infos[0].RenderNode != "/dev/dri/renderD128" {
		t.Errorf("unexpected render node: %q", infos[0].RenderNode)
	}
}
