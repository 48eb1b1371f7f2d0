package envfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"envsync/internal/domain/envvar"

	"github.com/joho/godotenv"
)

// DefaultPath is the source file used when none is given
const DefaultPath = ".env.production"

// Loader reads the desired variable set from a file or a stream
type Loader struct {
	stdin io.Reader
}

// NewLoader creates a loader. stdin is only read when LoadStdin is called.
func NewLoader(stdin io.Reader) *Loader {
	return &Loader{stdin: stdin}
}

// LoadFile decodes path. Files ending in .json are read as a flat object,
// everything else as dotenv.
func (l *Loader) LoadFile(path string) (envvar.DesiredSet, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return envvar.DesiredSet{}, envvar.ErrConfiguration(
				fmt.Sprintf("source file %s not found", path),
				"pass --file <path> or pipe variables with --stdin",
			)
		}
		return envvar.DesiredSet{}, envvar.ErrConfiguration(fmt.Sprintf("cannot read %s: %v", path, err), "")
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return decodeJSON(path, data)
	}
	return decodeDotenv(path, data)
}

// LoadStdin decodes a dotenv stream from stdin. An empty stream is an error.
func (l *Loader) LoadStdin() (envvar.DesiredSet, error) {
	if l.stdin == nil {
		return envvar.DesiredSet{}, envvar.ErrNoStdinInput()
	}

	data, err := io.ReadAll(l.stdin)
	if err != nil {
		return envvar.DesiredSet{}, envvar.ErrConfiguration(fmt.Sprintf("cannot read stdin: %v", err), "")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return envvar.DesiredSet{}, envvar.ErrNoStdinInput()
	}

	trimmed := bytes.TrimSpace(data)
	if trimmed[0] == '{' {
		return decodeJSON("stdin", data)
	}
	return decodeDotenv("stdin", data)
}

func decodeDotenv(source string, data []byte) (envvar.DesiredSet, error) {
	values, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return envvar.DesiredSet{}, envvar.ErrConfiguration(
			fmt.Sprintf("cannot parse %s: %v", source, err),
			"expected KEY=value lines",
		)
	}
	return envvar.NewDesiredSet(values)
}

func decodeJSON(source string, data []byte) (envvar.DesiredSet, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return envvar.DesiredSet{}, envvar.ErrConfiguration(
			fmt.Sprintf("cannot parse %s: %v", source, err),
			"expected a flat JSON object of names to values",
		)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return envvar.DesiredSet{}, envvar.ErrConfiguration(
			fmt.Sprintf("cannot parse %s: unexpected data after the JSON object", source),
			"expected a single flat JSON object of names to values",
		)
	}
	return envvar.NewDesiredSetFromAny(values)
}
