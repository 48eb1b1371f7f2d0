package envfile_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"envsync/internal/domain/envvar"
	"envsync/internal/infrastructure/envfile"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadFile_Dotenv(t *testing.T) {
	path := writeFile(t, ".env.production", strings.Join([]string{
		"# comment",
		"DB_URL=postgres://localhost/app",
		`API_KEY="quoted value"`,
		"export REGION=eu-west-1",
		"EMPTY=",
		"",
	}, "\n"))

	set, err := envfile.NewLoader(nil).LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	want := map[string]string{
		"DB_URL":  "postgres://localhost/app",
		"API_KEY": "quoted value",
		"REGION":  "eu-west-1",
		"EMPTY":   "",
	}
	if set.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", set.Len(), len(want))
	}
	for k, v := range want {
		if got, ok := set.Value(k); !ok || got != v {
			t.Errorf("%s = %q (%v), want %q", k, got, ok, v)
		}
	}
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "vars.json", `{"PORT": 8080, "DEBUG": true, "NAME": "app", "NOTHING": null}`)

	set, err := envfile.NewLoader(nil).LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	want := map[string]string{"PORT": "8080", "DEBUG": "true", "NAME": "app", "NOTHING": ""}
	for k, v := range want {
		if got, _ := set.Value(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		code string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.env") }, envvar.CodeConfiguration},
		{"empty", func(t *testing.T) string { return writeFile(t, ".env", "# only comments\n") }, envvar.CodeEmptyInput},
		{"bad json", func(t *testing.T) string { return writeFile(t, "x.json", "[1,2]") }, envvar.CodeConfiguration},
		{"bad key", func(t *testing.T) string { return writeFile(t, "x.json", `{"BAD-KEY": "x"}`) }, envvar.CodeConfiguration},
		{"trailing garbage", func(t *testing.T) string { return writeFile(t, "x.json", `{"A": 1} garbage`) }, envvar.CodeConfiguration},
		{"second object", func(t *testing.T) string { return writeFile(t, "x.json", `{"A": 1}{"B": 2}`) }, envvar.CodeConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := envfile.NewLoader(nil).LoadFile(tt.path(t))
			if !envvar.HasCode(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadStdin(t *testing.T) {
	set, err := envfile.NewLoader(strings.NewReader("A=1\nB=two\n")).LoadStdin()
	if err != nil {
		t.Fatalf("LoadStdin() error = %v", err)
	}
	if v, _ := set.Value("B"); v != "two" {
		t.Errorf("B = %q", v)
	}

	set, err = envfile.NewLoader(strings.NewReader("  {\"A\": 1}\n\n")).LoadStdin()
	if err != nil {
		t.Fatalf("LoadStdin() json error = %v", err)
	}
	if v, _ := set.Value("A"); v != "1" {
		t.Errorf("A = %q", v)
	}
}

func TestLoadStdin_Empty(t *testing.T) {
	for _, input := range []string{"", "  \n\t"} {
		_, err := envfile.NewLoader(strings.NewReader(input)).LoadStdin()
		if !envvar.IsConfigurationError(err) {
			t.Errorf("LoadStdin(%q) error = %v, want configuration error", input, err)
		}
	}

	_, err := envfile.NewLoader(nil).LoadStdin()
	if !envvar.IsConfigurationError(err) {
		t.Errorf("LoadStdin(nil) error = %v", err)
	}
}
