package dmstore

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// entries is the in-memory form of a secrets config file.
//
// Each key is written on its own line:
//
//	key=T{text value}
//	key=B{base64}
//
// A value that spans lines opens with "T{" or "B{" alone and closes with a
// line holding only "}". Binary encoding is chosen for anything that is not
// printable ASCII or contains braces; sealed secrets are always binary.
type entries map[string][]byte

// binaryLineWidth is the base64 width at which binary values are wrapped.
const binaryLineWidth = 60

func needsBinaryEncoding(data []byte) bool {
	for _, b := range data {
		switch {
		case b == '\n' || b == '\t' || b == '\r':
		case b < 0x20, b >= 0x7f, b == '{', b == '}':
			return true
		}
	}
	return false
}

func readEntries(r io.Reader) (entries, error) {
	out := make(entries)
	sc := bufio.NewScanner(r)

	var (
		openKey string
		binary  bool
		body    bytes.Buffer
	)
	decode := func(key string, raw []byte, binary bool) error {
		if !binary {
			out[key] = bytes.Clone(raw)
			return nil
		}
		v, err := base64.StdEncoding.DecodeString(string(raw))
		if err != nil {
			return fmt.Errorf("decode base64 for key %q: %w", key, err)
		}
		out[key] = v
		return nil
	}

	for sc.Scan() {
		line := sc.Text()
		if openKey != "" {
			if line != "}" {
				if body.Len() > 0 {
					body.WriteByte('\n')
				}
				body.WriteString(line)
				continue
			}
			raw := body.Bytes()
			if binary {
				raw = bytes.ReplaceAll(raw, []byte{'\n'}, nil)
			} else {
				raw = bytes.Trim(raw, "\n")
			}
			if err := decode(openKey, raw, binary); err != nil {
				return nil, err
			}
			openKey = ""
			body.Reset()
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case value == "T{" || value == "B{":
			openKey = key
			binary = value[0] == 'B'
		case len(value) >= 3 && value[1] == '{' && strings.HasSuffix(value, "}"):
			switch value[0] {
			case 'T':
				out[key] = []byte(value[2 : len(value)-1])
			case 'B':
				if err := decode(key, []byte(value[2:len(value)-1]), true); err != nil {
					return nil, err
				}
			}
		}
	}
	if openKey != "" {
		return nil, fmt.Errorf("unterminated value for key %q", openKey)
	}
	return out, sc.Err()
}

func writeEntries(w io.Writer, kv entries) error {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := kv[key]
		var err error
		switch {
		case needsBinaryEncoding(value):
			enc := base64.StdEncoding.EncodeToString(value)
			if len(enc) <= binaryLineWidth {
				_, err = fmt.Fprintf(w, "%s=B{%s}\n\n", key, enc)
				break
			}
			var b strings.Builder
			for len(enc) > binaryLineWidth {
				b.WriteString(enc[:binaryLineWidth])
				b.WriteByte('\n')
				enc = enc[binaryLineWidth:]
			}
			b.WriteString(enc)
			_, err = fmt.Fprintf(w, "%s=B{\n%s\n}\n\n", key, b.String())
		case bytes.IndexByte(value, '\n') >= 0:
			_, err = fmt.Fprintf(w, "%s=T{\n%s\n}\n\n", key, value)
		default:
			_, err = fmt.Fprintf(w, "%s=T{%s}\n\n", key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ConfigDataStore implements DataStore on a single config file. The whole
// file is rewritten atomically on every Set and Delete.
type ConfigDataStore struct {
	path string

	mu   sync.RWMutex
	data entries
}

var _ DataStore = (*ConfigDataStore)(nil)

// NewConfigDataStore loads the config file at configPath, which may start
// with ~ or contain environment variables. A missing file is an empty store.
func NewConfigDataStore(configPath string) (*ConfigDataStore, error) {
	configPath = ExpandPath(configPath)

	data := make(entries)
	f, err := os.Open(configPath)
	switch {
	case err == nil:
		data, err = readEntries(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", configPath, err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}
	return &ConfigDataStore{path: configPath, data: data}, nil
}

// ExpandPath expands a leading ~/ and environment variables in path.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.Expand(path, os.Getenv)
}

func (s *ConfigDataStore) Get(key string, decrypt bool) ([]byte, error) {
	s.mu.RLock()
	data := s.data[key]
	s.mu.RUnlock()

	if len(data) == 0 {
		return nil, nil
	}
	if decrypt {
		return unseal(data)
	}
	return bytes.Clone(data), nil
}

func (s *ConfigDataStore) Set(key string, encrypt bool, value []byte) error {
	data := bytes.Clone(value)
	if encrypt {
		var err error
		if data, err = seal(value); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	return s.save()
}

func (s *ConfigDataStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.save()
}

func (s *ConfigDataStore) Path() string {
	return s.path
}

// save must be called with mu held.
func (s *ConfigDataStore) save() error {
	var buf bytes.Buffer
	if err := writeEntries(&buf, s.data); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	return atomicWriteFile(s.path, buf.Bytes(), 0600)
}
