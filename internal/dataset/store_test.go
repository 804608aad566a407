package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jlonij/dac-web/internal/model"
)

// setupTestStore creates a store in a temporary directory holding one
// dataset with the given instances.
func setupTestStore(t *testing.T, name string, instances ...model.Instance) *Store {
	t.Helper()

	s := NewStore(t.TempDir())
	if err := s.Create(name, &model.Dataset{Instances: instances}); err != nil {
		t.Fatalf("failed to create dataset: %v", err)
	}
	return s
}

func sampleInstances() []model.Instance {
	return []model.Instance{
		{ID: 1, URL: "http://resolver.kb.nl/a", NEString: "Amsterdam", NEType: model.StringPtr("location"), Links: []string{"http://nl.dbpedia.org/resource/Amsterdam"}},
		{ID: 2, URL: "http://resolver.kb.nl/a", NEString: "Thorbecke", Links: []string{}},
		{ID: 3, URL: "http://resolver.kb.nl/b", NEString: "Curaçao", Links: []string{model.NoLink}},
	}
}

func TestStoreLoad(t *testing.T) {
	t.Parallel()

	t.Run("round trips a saved dataset", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t, "train", sampleInstances()...)
		ds, err := s.Load("train")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}

		ds.Instances[1].Links = []string{"http://nl.dbpedia.org/resource/Johan_Rudolph_Thorbecke"}
		if err := s.AtomicReplace("train", ds, 15000); err != nil {
			t.Fatalf("AtomicReplace() error: %v", err)
		}

		reloaded, err := s.Load("train")
		if err != nil {
			t.Fatalf("Load() after replace error: %v", err)
		}
		if !reflect.DeepEqual(ds.Instances, reloaded.Instances) {
			t.Errorf("round trip mismatch:\n got  %+v\n want %+v", reloaded.Instances, ds.Instances)
		}
	})

	t.Run("missing dataset is not found", func(t *testing.T) {
		t.Parallel()

		s := NewStore(t.TempDir())
		_, err := s.Load("test")
		if !errors.Is(err, model.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("malformed dataset is not found", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if err := os.MkdirAll(filepath.Join(dir, "broken"), 0o750); err != nil {
			t.Fatal(err)
		}
		for name, content := range map[string]string{
			"broken": `{"instances": [`,
		} {
			if err := os.WriteFile(filepath.Join(dir, name, DataFile), []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
		}

		_, err := NewStore(dir).Load("broken")
		if !errors.Is(err, model.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("object without instances is malformed", func(t *testing.T) {
		t.Parallel()

		if _, err := Decode([]byte(`{"data": []}`)); err == nil {
			t.Error("expected error for missing instances list")
		}
	})

	t.Run("rejects names escaping the data directory", func(t *testing.T) {
		t.Parallel()

		s := NewStore(t.TempDir())
		for _, name := range []string{"", "..", "../etc", "a/b", `a\b`} {
			if _, err := s.Load(name); !errors.Is(err, model.ErrNotFound) {
				t.Errorf("Load(%q): expected ErrNotFound, got %v", name, err)
			}
		}
	})

	t.Run("null links load as empty", func(t *testing.T) {
		t.Parallel()

		ds, err := Decode([]byte(`{"instances": [{"id": 1, "links": null, "ne_string": "x", "ne_type": null, "url": "u"}]}`))
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		if ds.Instances[0].Links == nil {
			t.Error("expected non-nil links")
		}
	})
}

func TestEncode(t *testing.T) {
	t.Parallel()

	data, err := Encode(&model.Dataset{Instances: sampleInstances()})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	out := string(data)

	t.Run("keeps non-ASCII text unescaped", func(t *testing.T) {
		t.Parallel()
		if !strings.Contains(out, `"ne_string": "Curaçao"`) {
			t.Errorf("expected raw UTF-8 mention in output:\n%s", out)
		}
	})

	t.Run("writes keys in sorted order", func(t *testing.T) {
		t.Parallel()
		keys := []string{`"id"`, `"links"`, `"ne_string"`, `"ne_type"`, `"url"`}
		last := -1
		for _, k := range keys {
			pos := strings.Index(out, k)
			if pos <= last {
				t.Fatalf("key %s out of order", k)
			}
			last = pos
		}
	})

	t.Run("writes null type and empty links", func(t *testing.T) {
		t.Parallel()
		if !strings.Contains(out, `"ne_type": null`) {
			t.Error("expected null ne_type")
		}
		if !strings.Contains(out, `"links": []`) {
			t.Error("expected empty links list")
		}
	})

	t.Run("uses four space indentation", func(t *testing.T) {
		t.Parallel()
		if !strings.Contains(out, "\n    \"instances\"") {
			t.Errorf("expected four-space indentation:\n%s", out)
		}
	})
}

func TestStoreAtomicReplace(t *testing.T) {
	t.Parallel()

	t.Run("rejects oversize change and keeps original", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t, "test", sampleInstances()...)
		path, _ := s.Path("test")
		before, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}

		ds, _ := s.Load("test")
		ds.Instances[0].Links = []string{strings.Repeat("x", 200)}

		err = s.AtomicReplace("test", ds, 100)
		if !errors.Is(err, model.ErrSave) {
			t.Fatalf("expected ErrSave, got %v", err)
		}

		after, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(before, after) {
			t.Error("original file changed after rejected write")
		}
		if _, err := os.Stat(filepath.Join(s.Dir(), "test", TempFile)); !os.IsNotExist(err) {
			t.Error("temporary file left behind")
		}
	})

	t.Run("failed temp write leaves nothing behind", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t, "test", sampleInstances()...)
		path, err := s.Path("test")
		if err != nil {
			t.Fatal(err)
		}
		before, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		// A directory in place of the temp file makes the write fail.
		tempPath := filepath.Join(s.Dir(), "test", TempFile)
		if err := os.Mkdir(tempPath, 0o750); err != nil {
			t.Fatal(err)
		}

		ds, _ := s.Load("test")
		ds.Instances[0].Links = []string{"http://x/Amsterdam"}
		if err := s.AtomicReplace("test", ds, 50000); !errors.Is(err, model.ErrSave) {
			t.Fatalf("expected ErrSave, got %v", err)
		}

		after, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(before, after) {
			t.Error("original file changed after failed write")
		}
		if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
			t.Error("temporary file left behind")
		}
	})

	t.Run("delta equal to bound is rejected", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t, "test", sampleInstances()...)
		ds, _ := s.Load("test")
		orig, _ := Encode(ds)
		ds.Instances[1].NEString += "abcde"
		changed, _ := Encode(ds)
		delta := int64(len(changed) - len(orig))

		if err := s.AtomicReplace("test", ds, delta); !errors.Is(err, model.ErrSave) {
			t.Errorf("expected ErrSave at delta == bound, got %v", err)
		}
		if err := s.AtomicReplace("test", ds, delta+1); err != nil {
			t.Errorf("expected success below bound, got %v", err)
		}
	})

	t.Run("replaced file is group and world writable", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t, "test", sampleInstances()...)
		ds, _ := s.Load("test")
		if err := s.AtomicReplace("test", ds, 15000); err != nil {
			t.Fatalf("AtomicReplace() error: %v", err)
		}

		path, _ := s.Path("test")
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != SharedFileMode {
			t.Errorf("mode = %v, expected %v", info.Mode().Perm(), SharedFileMode)
		}
	})

	t.Run("missing original is not found", func(t *testing.T) {
		t.Parallel()

		s := NewStore(t.TempDir())
		err := s.AtomicReplace("ghost", &model.Dataset{}, 15000)
		if !errors.Is(err, model.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStoreCreateAndList(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t, "train")
	if err := s.Create("train", &model.Dataset{}); !errors.Is(err, model.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate on second create, got %v", err)
	}
	if err := s.Create("test", &model.Dataset{}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(s.Dir(), "empty-dir"), 0o750); err != nil {
		t.Fatal(err)
	}

	names, err := s.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"test", "train"}) {
		t.Errorf("List() = %v, expected [test train]", names)
	}
}
