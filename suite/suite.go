package suite

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/jpamb/interpreter/jvm"
)

var log = commonlog.GetLogger("jpamb.suite")

// Suite is the program image of one benchmark workspace. It resolves
// classes from the decompiled directory and serves per-method instruction
// lists, consulting the opcode cache when one is configured. Safe for
// concurrent use.
type Suite struct {
	manifest *Manifest
	cache    *Cache

	mu      sync.RWMutex
	classes map[jvm.ClassName]*classEntry
}

type classEntry struct {
	data []byte
	file *jvm.ClassFile
}

// Open builds a Suite for the given workspace manifest. When the manifest
// enables caching, the cache directory is created on the spot.
func Open(m *Manifest) (*Suite, error) {
	s := &Suite{
		manifest: m,
		classes:  make(map[jvm.ClassName]*classEntry),
	}
	if m.Cache.Enabled {
		cache, err := NewCache(m.CacheDir())
		if err != nil {
			return nil, err
		}
		s.cache = cache
		log.Debugf("opcode cache at %s", m.CacheDir())
	}
	return s, nil
}

// Manifest returns the workspace manifest this suite was opened with.
func (s *Suite) Manifest() *Manifest {
	return s.manifest
}

// FindClass resolves and decodes the named class from the decompiled
// directory. Results are memoized.
func (s *Suite) FindClass(class jvm.ClassName) (*jvm.ClassFile, error) {
	entry, err := s.classEntry(class)
	if err != nil {
		return nil, err
	}
	return entry.file, nil
}

// MethodOpcodes returns the decoded instruction list for the method,
// reading through the opcode cache when one is enabled.
func (s *Suite) MethodOpcodes(method jvm.AbsMethodID) ([]jvm.Opcode, error) {
	entry, err := s.classEntry(method.Class)
	if err != nil {
		return nil, err
	}

	sig := method.Method.String()
	if s.cache != nil {
		if ops, ok := s.cache.Load(entry.data, sig); ok {
			log.Debugf("cache hit for %s", method)
			return ops, nil
		}
	}

	ops, err := entry.file.MethodOpcodes(method.Method)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Store(entry.data, sig, ops); err != nil {
			log.Warningf("cannot cache %s: %v", method, err)
		}
	}
	return ops, nil
}

// SourceFile returns the path of the Java source file a method was
// decompiled from, derived from its class's package tree.
func (s *Suite) SourceFile(method jvm.AbsMethodID) string {
	rel := filepath.FromSlash(string(method.Class))
	return filepath.Join(s.manifest.SourceDir(), rel+".java")
}

func (s *Suite) classEntry(class jvm.ClassName) (*classEntry, error) {
	s.mu.RLock()
	entry, ok := s.classes[class]
	s.mu.RUnlock()
	if ok {
		return entry, nil
	}

	path := filepath.Join(s.manifest.DecompiledDir(), filepath.FromSlash(string(class))+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("class %s: cannot read %s: %w", class, path, err)
	}
	file, err := jvm.DecodeClassFile(data)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", class, err)
	}
	log.Debugf("loaded class %s from %s", class, path)

	entry = &classEntry{data: data, file: file}
	s.mu.Lock()
	s.classes[class] = entry
	s.mu.Unlock()
	return entry, nil
}
