package schema

import (
	"fmt"
	"regexp"
	"strings"
)

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// PathOf builds a field path such as mod_vsns.0.files.1.page_url.
func PathOf(segments ...any) string {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		parts = append(parts, fmt.Sprint(segment))
	}
	return JoinPath(parts)
}

func JoinPath(segments []string) string {
	return strings.Join(segments, ".")
}

// namespacePath turns a validator namespace (ModRecord.mod_vsns[0].files[1].page_url)
// into a field path, dropping the root struct name.
func namespacePath(namespace string) string {
	path := indexPattern.ReplaceAllString(namespace, ".$1")
	if dot := strings.IndexByte(path, '.'); dot >= 0 {
		return path[dot+1:]
	}
	return path
}
