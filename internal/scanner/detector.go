package scanner

import (
	"os"
	"path/filepath"
	"strings"
)

// Stack is the best-effort project profile detected from manifest files.
// It seeds project memory and the status output; nothing depends on it
// being right.
type Stack struct {
	ProjectName   string
	Language      string
	Framework     string
	TestFramework string
	Database      string
}

// Labels flattens the profile into the short tags project memory tracks.
func (s Stack) Labels() []string {
	var out []string
	for _, v := range []string{s.Language, s.Framework, s.TestFramework, s.Database} {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// DetectStack inspects manifest files at the project root.
func DetectStack(root string) Stack {
	s := Stack{ProjectName: filepath.Base(root)}

	has := func(names ...string) bool {
		for _, n := range names {
			if _, err := os.Stat(filepath.Join(root, n)); err == nil {
				return true
			}
		}
		return false
	}
	read := func(name string) string {
		b, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			return ""
		}
		return string(b)
	}

	switch {
	case has("package.json"):
		pkg := read("package.json")
		s.Language = "javascript"
		if has("tsconfig.json") {
			s.Language = "typescript"
		}
		switch {
		case strings.Contains(pkg, `"next"`):
			s.Framework = "next.js"
		case strings.Contains(pkg, `"react"`):
			s.Framework = "react"
		case strings.Contains(pkg, `"vue"`):
			s.Framework = "vue"
		case strings.Contains(pkg, `"svelte"`):
			s.Framework = "svelte"
		case strings.Contains(pkg, `"express"`):
			s.Framework = "express"
		}
		if strings.Contains(pkg, `"jest"`) {
			s.TestFramework = "jest"
		} else if strings.Contains(pkg, `"vitest"`) {
			s.TestFramework = "vitest"
		}

	case has("go.mod"):
		s.Language = "go"
		mod := read("go.mod")
		switch {
		case strings.Contains(mod, "github.com/gin-gonic/gin"):
			s.Framework = "gin"
		case strings.Contains(mod, "github.com/labstack/echo"):
			s.Framework = "echo"
		}

	case has("pyproject.toml", "requirements.txt"):
		s.Language = "python"
		req := read("requirements.txt") + read("pyproject.toml")
		switch {
		case strings.Contains(req, "django"):
			s.Framework = "django"
		case strings.Contains(req, "fastapi"):
			s.Framework = "fastapi"
		case strings.Contains(req, "flask"):
			s.Framework = "flask"
		}
		if strings.Contains(req, "pytest") {
			s.TestFramework = "pytest"
		}

	case has("Gemfile"):
		s.Language = "ruby"
		if strings.Contains(read("Gemfile"), "rails") {
			s.Framework = "rails"
		}
	}

	env := read("package.json") + read("docker-compose.yml") + read(".env.example")
	switch {
	case strings.Contains(env, "postgres"):
		s.Database = "postgresql"
	case strings.Contains(env, "mysql"):
		s.Database = "mysql"
	case strings.Contains(env, "sqlite"):
		s.Database = "sqlite"
	case strings.Contains(env, "mongo"):
		s.Database = "mongodb"
	}

	return s
}
