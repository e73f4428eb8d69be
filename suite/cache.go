package suite

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jpamb/interpreter/jvm"
)

// Cache is a content-addressed store of decoded instruction lists. Entries
// are keyed by the hash of the class file bytes plus the method signature,
// so a re-decompiled class never serves stale instructions.
type Cache struct {
	dir string
}

// NewCache opens (creating if necessary) an opcode cache rooted at dir.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) entryPath(classData []byte, method string) string {
	h := sha256.New()
	h.Write(classData)
	h.Write([]byte{0})
	h.Write([]byte(method))
	return filepath.Join(c.dir, hex.EncodeToString(h.Sum(nil))+".cbor")
}

// Load returns the cached instruction list for the method, if present. A
// corrupt entry is treated as a miss.
func (c *Cache) Load(classData []byte, method string) ([]jvm.Opcode, bool) {
	data, err := os.ReadFile(c.entryPath(classData, method))
	if err != nil {
		return nil, false
	}
	ops, err := UnmarshalOpcodes(data)
	if err != nil {
		return nil, false
	}
	return ops, true
}

// Store writes the instruction list for the method. Entries are written via
// a temp file and rename so concurrent readers never see a partial entry.
func (c *Cache) Store(classData []byte, method string, ops []jvm.Opcode) error {
	data, err := MarshalOpcodes(ops)
	if err != nil {
		return err
	}

	path := c.entryPath(classData, method)
	tmp, err := os.CreateTemp(c.dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create cache entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("cannot write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cannot write cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cannot commit cache entry: %w", err)
	}
	return nil
}
