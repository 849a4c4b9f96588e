package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteJSONL writes the corpus one JSON record per line.
func WriteJSONL(w io.Writer, posts Corpus) error {
	enc := json.NewEncoder(w)
	for _, p := range posts {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode post %s: %w", p.ID, err)
		}
	}
	return nil
}

// SaveJSONL writes the corpus to path, creating parent directories.
func SaveJSONL(path string, posts Corpus) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteJSONL(f, posts); err != nil {
		return err
	}
	return f.Close()
}

// ReadJSONL decodes a newline-delimited corpus.
func ReadJSONL(r io.Reader) (Corpus, error) {
	var posts Corpus
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var p Post
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("decode corpus line: %w", err)
		}
		posts = append(posts, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// LoadJSONL reads a corpus file written by SaveJSONL.
func LoadJSONL(path string) (Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSONL(f)
}
