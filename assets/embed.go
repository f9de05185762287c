package assets

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed sql/*.sql events.yaml
var FS embed.FS

// Migration is one embedded SQL script.
type Migration struct {
	Name string
	SQL  string
}

// Migrations returns the embedded sql/*.sql scripts in lexical order.
func Migrations() ([]Migration, error) {
	names, err := fs.Glob(FS, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		b, err := FS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Name: strings.TrimPrefix(name, "sql/"), SQL: string(b)})
	}
	return out, nil
}

// SampleCorpus returns the bundled offline events corpus (YAML).
func SampleCorpus() ([]byte, error) {
	return FS.ReadFile("events.yaml")
}
