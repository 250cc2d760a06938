package file

import (
	"fmt"
	"path"

	"github.com/corymhall/selenelsp/lsp"
)

// Kind describes the kind of the file in question.
type Kind int

const (
	// UnknownKind is a file type we don't know about.
	UnknownKind = Kind(iota)

	// Lua is a Lua source file.
	Lua

	// Luau is a Luau source file.
	Luau

	// TOML is a selene.toml configuration file.
	TOML

	// YAML is a selene standard library definition.
	YAML
)

func (k Kind) String() string {
	switch k {
	case Lua:
		return "lua"
	case Luau:
		return "luau"
	case TOML:
		return "toml"
	case YAML:
		return "yaml"
	default:
		return fmt.Sprintf("internal error: unknown file kind %d", k)
	}
}

// IsSource reports whether selene lints files of this kind.
func (k Kind) IsSource() bool {
	return k == Lua || k == Luau
}

// IsConfig reports whether files of this kind are checked with
// validate-config.
func (k Kind) IsConfig() bool {
	return k == TOML || k == YAML
}

// KindForLang returns the [Kind] associated with the given LSP LanguageKind
// string from the LanguageID field of [lsp.TextDocumentItem], or UnknownKind
// if the language is not one selene understands. TOML documents only count
// when they are a selene.toml.
func KindForLang(langID lsp.LanguageKind, uri lsp.DocumentURI) Kind {
	switch langID {
	case "lua":
		return Lua
	case "luau":
		return Luau
	case "toml":
		if path.Base(string(uri)) != "selene.toml" {
			return UnknownKind
		}
		return TOML
	case "yaml":
		return YAML
	default:
		return UnknownKind
	}
}
