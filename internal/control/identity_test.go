package control

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseIdentity(t *testing.T) {
	id, err := ParseIdentity("1234 c00kie 127.0.0.1 port 655")
	if err != nil {
		t.Fatalf("ParseIdentity() error: %v", err)
	}
	want := Identity{PID: 1234, Cookie: "c00kie", Host: "127.0.0.1", Port: 655}
	if id != want {
		t.Errorf("ParseIdentity() = %+v, want %+v", id, want)
	}

	bad := []string{
		"",
		"1234 c00kie",
		"1234 c00kie 127.0.0.1 655 655",
		"pid c00kie 127.0.0.1 port 655",
		"1234 c00kie 127.0.0.1 port http",
		"1234 c00kie 127.0.0.1 port 70000",
	}
	for _, line := range bad {
		if _, err := ParseIdentity(line); err == nil {
			t.Errorf("ParseIdentity(%q) expected error", line)
		}
	}
}

func TestReadIdentity(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadIdentity(filepath.Join(dir, "absent.pid"))
		if !errors.Is(err, ErrIdentityNotFound) {
			t.Errorf("error = %v, want identity not found", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want it to wrap os.ErrNotExist", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.pid")
		os.WriteFile(path, nil, 0644)
		if _, err := ReadIdentity(path); !errors.Is(err, ErrIdentityNotFound) {
			t.Errorf("error = %v, want identity not found", err)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.pid")
		os.WriteFile(path, []byte("hello\n"), 0644)
		if _, err := ReadIdentity(path); !errors.Is(err, ErrIdentityNotFound) {
			t.Errorf("error = %v, want identity not found", err)
		}
	})

	t.Run("valid file", func(t *testing.T) {
		path := writePidFile(t, 6550)
		id, err := ReadIdentity(path)
		if err != nil {
			t.Fatalf("ReadIdentity() error: %v", err)
		}
		if id.Port != 6550 || id.Cookie != testCookie {
			t.Errorf("ReadIdentity() = %+v", id)
		}
	})
}
