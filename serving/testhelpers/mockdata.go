package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
)

// MockTree creates a temporary directory tree to serve in tests.
type MockTree struct {
	Root string
	t    *testing.T
}

// NewMockTree creates a new tree in a directory removed when the test ends.
func NewMockTree(t *testing.T) *MockTree {
	t.Helper()
	return &MockTree{
		Root: t.TempDir(),
		t:    t,
	}
}

// CreateDir creates a directory in the tree
func (m *MockTree) CreateDir(path string) {
	m.t.Helper()
	fullPath := filepath.Join(m.Root, path)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		m.t.Fatalf("Failed to create directory %s: %v", path, err)
	}
}

// CreateFile creates a file with the given content
func (m *MockTree) CreateFile(path string, content []byte) {
	m.t.Helper()
	fullPath := filepath.Join(m.Root, path)

	parentDir := filepath.Dir(fullPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		m.t.Fatalf("Failed to create parent dir for %s: %v", path, err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		m.t.Fatalf("Failed to create file %s: %v", path, err)
	}
}

// Sequence returns n bytes whose value at offset i is byte(i), which makes
// window checks easy to read.
func Sequence(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

// CreateStandardTree creates the tree most server tests use.
func (m *MockTree) CreateStandardTree() {
	m.CreateFile("hello.txt", []byte("hello, world\n"))
	m.CreateFile("index.html", []byte("<h1>home</h1>\n"))
	m.CreateFile("data.bin", Sequence(100))
	m.CreateFile("favicon.ico", []byte("icon"))

	m.CreateDir("docs")
	m.CreateFile("docs/readme.md", []byte("# readme\n"))
	m.CreateFile("docs/notes.txt", []byte("notes"))

	m.CreateDir("numbered")
	m.CreateFile("numbered/1.txt", []byte("one"))
	m.CreateFile("numbered/2.txt", []byte("two"))
	m.CreateFile("numbered/10.txt", []byte("ten"))

	m.CreateFile(".hidden", []byte("secret"))
}
