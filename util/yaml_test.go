package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

type yamlParentType struct {
	Name  string        `yaml:"name"`
	Child yamlChildType `yaml:"child"`
}

type yamlChildType string

func (yc *yamlChildType) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == "fail" {
		return NewYamlError(node, "Fail")
	}
	*yc = yamlChildType(node.Value)
	return nil
}

func TestYAMLUnmarshal(t *testing.T) {
	var yp yamlParentType

	assert.ErrorContains(t, UnmarshalYamlString(`
name: hi
child: fail
`, &yp), "yaml line 3:8: Fail")

	assert.NoError(t, UnmarshalYamlString("name: hi\nchild: there\n", &yp))
	assert.Equal(t, yamlParentType{Name: "hi", Child: "there"}, yp)

	assert.ErrorContains(t, UnmarshalYamlString("name: hi\nextra: 1\n", &yp), "field extra not found")
	assert.NoError(t, UnmarshalYamlString("", &yp))
}

func TestYAMLUnmarshalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yml")
	assert.NoError(t, os.WriteFile(path, []byte("name: file\n"), 0o644))

	var yp yamlParentType
	assert.NoError(t, UnmarshalYamlFile(path, &yp))
	assert.Equal(t, "file", yp.Name)

	assert.Error(t, UnmarshalYamlFile(filepath.Join(t.TempDir(), "missing.yml"), &yp))
}
