package source

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// writePNG writes a small solid PNG into dir
func writePNG(t *testing.T, dir, name string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", name, err)
	}
}

// createFolder builds a directory with three images, one broken file, one
// unsupported file and a nested image that must be ignored
func createFolder(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, dir, "b.png", color.White)
	writePNG(t, dir, "a.PNG", color.Black)
	writePNG(t, dir, "c.jpeg.png", color.Gray{Y: 128})
	if err := os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, sub, "d.png", color.White)
	return dir
}

func collect(t *testing.T, src Source, limit int) []Frame {
	t.Helper()
	var frames []Frame
	for i := 0; i < limit; i++ {
		f, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		frames = append(frames, f)
	}
	return frames
}

func TestFolder_OrderAndFilter(t *testing.T) {
	f := NewFolder(createFolder(t), FolderOptions{Workers: 2})
	if err := f.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	want := []string{"a.PNG", "b.png", "c.jpeg.png"}
	names := f.Names()
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, names[i], want[i])
		}
	}

	frames := collect(t, f, 10)
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	for i, fr := range frames {
		if fr.ID != want[i] || fr.Index != i {
			t.Errorf("frame %d = {%s %d}, want {%s %d}", i, fr.ID, fr.Index, want[i], i)
		}
	}

	// Exhausted source keeps returning EOF.
	if _, err := f.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Next after end = %v, want io.EOF", err)
	}
}

func TestFolder_Loop(t *testing.T) {
	f := NewFolder(createFolder(t), FolderOptions{Loop: true})
	if err := f.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	frames := collect(t, f, 7)
	if len(frames) != 7 {
		t.Fatalf("looping source stopped after %d frames", len(frames))
	}
	if frames[3].ID != "a.PNG" || frames[6].ID != "a.PNG" {
		t.Errorf("loop did not wrap to the first image: %s, %s", frames[3].ID, frames[6].ID)
	}
	if frames[6].Index != 6 {
		t.Errorf("Index = %d, want 6", frames[6].Index)
	}
}

func TestFolder_Errors(t *testing.T) {
	missing := NewFolder(filepath.Join(t.TempDir(), "missing"), FolderOptions{})
	if err := missing.Open(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Open(missing) = %v, want ErrUnavailable", err)
	}

	empty := t.TempDir()
	if err := os.WriteFile(filepath.Join(empty, "broken.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewFolder(empty, FolderOptions{}).Open(context.Background()); !errors.Is(err, ErrNoImages) {
		t.Errorf("Open(no images) = %v, want ErrNoImages", err)
	}
}

func TestFolder_Canceled(t *testing.T) {
	f := NewFolder(createFolder(t), FolderOptions{})
	if err := f.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next(canceled) = %v, want context.Canceled", err)
	}

	if err := f.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if _, err := f.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Next after Close = %v, want io.EOF", err)
	}
}

func TestFolder_Interface(t *testing.T) {
	var _ Source = NewFolder("", FolderOptions{})
	var _ Source = NewCamera(0)
}
