package lsp

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pulumi/pulumi/sdk/v3/go/common/util/contract"
)

type DocumentURI string

type LanguageKind string

// Path returns the file system path of a file:// URI. Percent-encoding is
// undone and Windows drive letters lose their leading slash.
func (uri DocumentURI) Path() string {
	contract.Assertf(uri.IsFile(), "URI must start with file://, got %q", uri)
	u, err := url.Parse(string(uri))
	if err != nil {
		return filepath.FromSlash(strings.TrimPrefix(string(uri), "file://"))
	}
	p := u.Path
	if runtime.GOOS == "windows" && len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}

func (uri DocumentURI) IsFile() bool {
	return strings.HasPrefix(string(uri), "file://")
}

func URIFromPath(path string) DocumentURI {
	if path == "" {
		return ""
	}
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return DocumentURI(u.String())
}
