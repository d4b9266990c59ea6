package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/studyarc/resourcebank-backend/internal/clients/catalog"
)

// In-memory stand-ins for the external tiers. Each records enough state to
// assert on and supports failure injection.

type fakeScanner struct {
	clean bool
	err   error
	calls int
}

func (f *fakeScanner) Scan(_ context.Context, _ []byte) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.clean, nil
}

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte

	failPuts int
	putCalls int
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}}
}

func (f *fakeBucket) Put(_ context.Context, key string, data io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.failPuts > 0 {
		f.failPuts--
		return fmt.Errorf("injected put failure")
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[key] = b
	return nil
}

func (f *fakeBucket) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q not found", key)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeBucket) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeBucket) ListKeys(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, k)
		}
	}
	return out, nil
}

type fakeLock struct {
	mu      sync.Mutex
	held    map[string]string
	denied  bool
	extends int
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: map[string]string{}}
}

func (f *fakeLock) Acquire(_ context.Context, name, token string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denied {
		return false, nil
	}
	if _, ok := f.held[name]; ok {
		return false, nil
	}
	f.held[name] = token
	return true, nil
}

func (f *fakeLock) Extend(_ context.Context, name, token string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[name] != token {
		return false, nil
	}
	f.extends++
	return true, nil
}

func (f *fakeLock) extendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.extends
}

func (f *fakeLock) Release(_ context.Context, name, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[name] == token {
		delete(f.held, name)
	}
	return nil
}

type fakeCatalog struct {
	name      string
	entries   []catalog.Entry
	downloads map[string][]byte

	listErrs      int
	listCalls     int
	listDelay     time.Duration
	downloadCalls int
}

func (f *fakeCatalog) Name() string { return f.name }

func (f *fakeCatalog) List(_ context.Context) ([]catalog.Entry, error) {
	f.listCalls++
	if f.listDelay > 0 {
		time.Sleep(f.listDelay)
	}
	if f.listErrs > 0 {
		f.listErrs--
		return nil, fmt.Errorf("injected listing failure")
	}
	return f.entries, nil
}

func (f *fakeCatalog) Download(_ context.Context, e catalog.Entry) ([]byte, error) {
	f.downloadCalls++
	data, ok := f.downloads[e.Identifier]
	if !ok {
		return nil, fmt.Errorf("no download for %q", e.Identifier)
	}
	return data, nil
}

type fakeExtractor struct {
	text  string
	err   error
	fails int
	calls int
}

func (f *fakeExtractor) ExtractText(_ context.Context, _ []byte, _ string) (string, error) {
	f.calls++
	if f.fails > 0 {
		f.fails--
		return "", fmt.Errorf("injected extraction failure")
	}
	return f.text, f.err
}

type fakeOCR struct {
	text  string
	calls int
}

func (f *fakeOCR) OCRBytes(_ context.Context, _ []byte) (string, error) {
	f.calls++
	return f.text, nil
}

type fakeRenderer struct {
	pages [][]byte
}

func (f *fakeRenderer) RenderPages(_ context.Context, _ []byte, maxPages int) ([][]byte, error) {
	if len(f.pages) > maxPages {
		return f.pages[:maxPages], nil
	}
	return f.pages, nil
}
