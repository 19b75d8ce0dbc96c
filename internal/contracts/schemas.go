package contracts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas
var schemasFS embed.FS

const AddFavoriteRequest = "add-favorite/v1"

var (
	compileOnce     sync.Once
	compiledSchemas map[string]*jsonschema.Schema
	compileErr      error
)

// compile собирает все схемы из schemas/ в ключи вида "add-favorite/v1".
func compile() {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	compiledSchemas = make(map[string]*jsonschema.Schema)

	var paths []string
	compileErr = fs.WalkDir(schemasFS, "schemas", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		file, err := schemasFS.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		if err := compiler.AddResource(path, file); err != nil {
			return fmt.Errorf("failed to add schema resource %s: %w", path, err)
		}
		paths = append(paths, path)
		return nil
	})
	if compileErr != nil {
		return
	}

	for _, path := range paths {
		schema, err := compiler.Compile(path)
		if err != nil {
			compileErr = fmt.Errorf("failed to compile schema %s: %w", path, err)
			return
		}
		key := strings.TrimSuffix(strings.TrimPrefix(path, "schemas/"), ".json")
		compiledSchemas[key] = schema
	}
}

// Validate проверяет JSON-тело по схеме с ключом name.
func Validate(name string, body []byte) error {
	compileOnce.Do(compile)
	if compileErr != nil {
		return compileErr
	}

	schema, ok := compiledSchemas[name]
	if !ok {
		return fmt.Errorf("schema %q not found", name)
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("body is not a valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}
	return nil
}
