package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/observe"
)

type fakeStore struct {
	data map[string]any
}

func newFakeStore() *fakeStore { return &fakeStore{data: make(map[string]any)} }

func (s *fakeStore) GetString(key string) string {
	str, _ := s.data[key].(string)
	return str
}

func (s *fakeStore) Set(key string, value any) error {
	s.data[key] = value
	return nil
}

// newTestEnv builds an environment with the candidate lists pinned, so the
// host machine's real installs can't leak into the test.
func newTestEnv(store Store, recognizers, rasterizers []string) *Environment {
	env := &Environment{
		store:                store,
		sink:                 observe.Discard(),
		recognizerCandidates: recognizers,
		rasterizerCandidates: rasterizers,
		run:                  runCommand,
	}
	env.resolve()
	return env
}

// fakeTools lays out a fake recognizer executable and a rasterizer directory
// containing pdftoppm.
func fakeTools(t *testing.T) (recognizer, rasterizerDir string) {
	t.Helper()
	dir := t.TempDir()
	recognizer = filepath.Join(dir, "tesseract")
	require.NoError(t, os.WriteFile(recognizer, []byte("#!/bin/sh\n"), 0o755))

	rasterizerDir = filepath.Join(dir, "poppler")
	require.NoError(t, os.Mkdir(rasterizerDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rasterizerDir, rasterizerTool()), []byte("#!/bin/sh\n"), 0o755))
	return recognizer, rasterizerDir
}

func TestResolvePrefersPersistedPaths(t *testing.T) {
	recognizer, rasterizerDir := fakeTools(t)

	store := newFakeStore()
	require.NoError(t, store.Set(KeyRecognizerPath, recognizer))
	require.NoError(t, store.Set(KeyRasterizerPath, rasterizerDir))

	env := newTestEnv(store, nil, nil)
	gotRecognizer, gotRasterizer := env.Resolve()
	assert.Equal(t, recognizer, gotRecognizer)
	assert.Equal(t, rasterizerDir, gotRasterizer)
	assert.True(t, env.Ready())
}

func TestResolveIgnoresStalePersistedPaths(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.Set(KeyRecognizerPath, "/no/such/tesseract"))
	require.NoError(t, store.Set(KeyRasterizerPath, "/no/such/dir"))

	env := newTestEnv(store, nil, nil)
	assert.False(t, env.Ready())
}

func TestResolveProbesCandidatesAndPersists(t *testing.T) {
	recognizer, rasterizerDir := fakeTools(t)

	store := newFakeStore()
	env := newTestEnv(store,
		[]string{"/no/such/tesseract", recognizer},
		[]string{"/no/such/dir", rasterizerDir},
	)

	assert.True(t, env.Ready())
	assert.Equal(t, recognizer, store.GetString(KeyRecognizerPath))
	assert.Equal(t, rasterizerDir, store.GetString(KeyRasterizerPath))
}

func TestResolveWithoutStore(t *testing.T) {
	recognizer, rasterizerDir := fakeTools(t)
	env := newTestEnv(nil, []string{recognizer}, []string{rasterizerDir})
	assert.True(t, env.Ready())
}

func TestSetRecognizerValidatesBeforeCommit(t *testing.T) {
	recognizer, _ := fakeTools(t)
	store := newFakeStore()
	env := newTestEnv(store, nil, nil)

	assert.False(t, env.SetRecognizer("/no/such/tesseract"))
	assert.Empty(t, store.GetString(KeyRecognizerPath))

	assert.True(t, env.SetRecognizer(recognizer))
	assert.Equal(t, recognizer, store.GetString(KeyRecognizerPath))
	got, _ := env.Resolve()
	assert.Equal(t, recognizer, got)
}

func TestSetRasterizerRequiresDirectory(t *testing.T) {
	recognizer, rasterizerDir := fakeTools(t)
	store := newFakeStore()
	env := newTestEnv(store, nil, nil)

	assert.False(t, env.SetRasterizer(recognizer), "a file must be rejected")
	assert.False(t, env.SetRasterizer("/no/such/dir"))
	assert.True(t, env.SetRasterizer(rasterizerDir))
	assert.Equal(t, rasterizerDir, store.GetString(KeyRasterizerPath))
}

func TestVerifyUnconfigured(t *testing.T) {
	env := newTestEnv(nil, nil, nil)
	ok, message := env.Verify(context.Background())
	assert.False(t, ok)
	assert.Contains(t, message, "not configured")
}

func TestVerifyReportsVersion(t *testing.T) {
	recognizer, rasterizerDir := fakeTools(t)
	env := newTestEnv(nil, []string{recognizer}, []string{rasterizerDir})
	env.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		assert.Equal(t, recognizer, name)
		assert.Equal(t, []string{"--version"}, args)
		return []byte("tesseract 5.3.4\n leptonica-1.84.1\n"), nil
	}

	ok, message := env.Verify(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "tesseract 5.3.4", message)
}

func TestVerifyInvocationFailure(t *testing.T) {
	recognizer, rasterizerDir := fakeTools(t)
	env := newTestEnv(nil, []string{recognizer}, []string{rasterizerDir})
	env.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("exec format error")
	}

	ok, message := env.Verify(context.Background())
	assert.False(t, ok)
	assert.Contains(t, message, "cannot invoke")
}
